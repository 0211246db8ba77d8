package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahmaruff/todos-api/internal/database"
	"github.com/ahmaruff/todos-api/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(a.cfg.GinMode)

			if err := a.connect(); err != nil {
				return err
			}
			if migrate {
				if err := database.Migrate(a.log); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr: ":" + a.cfg.Port,
				Handler: router.New(router.Deps{
					Config:      a.cfg,
					DB:          database.GetDB(),
					ActivityLog: a.activityLog(),
				}),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Server starting", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					a.log.Error("Server failed", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error("Shutdown error", zap.Error(err))
				return err
			}
			a.log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Run migrations before serving")
	return cmd
}
