// Package main implements the todos CLI: the HTTP API server and its
// maintenance commands.
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/config"
	"github.com/ahmaruff/todos-api/internal/database"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs once the configuration is read.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	logFile    *activitylog.DailyFile
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "todos",
		Short:        "Todo API server and tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("TODOS_CONFIG"), "Path to a TOML config file")

	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newExportCmd(a),
		newLogsCmd(a),
	)
	return cmd
}

func (a *app) load() error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.GinMode == gin.ReleaseMode {
		a.log, err = zap.NewProduction()
	} else {
		a.log, err = zap.NewDevelopment()
	}
	return err
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// activityLog opens the daily activity log of the configured log directory.
func (a *app) activityLog() *activitylog.Logger {
	if a.logFile == nil {
		a.logFile = activitylog.NewDailyFile(a.cfg.LogDir)
	}

	return activitylog.New(activitylog.NewSink(a.logFile), activitylog.Options{
		AppName:    a.cfg.AppName,
		AppVersion: a.cfg.AppVersion,
		AppEnv:     a.cfg.AppEnv,
		Location:   activitylog.LoadLocation(a.cfg.Timezone),
	})
}

func (a *app) connect() error {
	if err := database.Connect(a.cfg, a.log); err != nil {
		a.log.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	return nil
}
