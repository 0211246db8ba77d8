package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/ahmaruff/todos-api/internal/errors"
)

// ErrorHandler renders the last error attached with c.Error. Requests that
// do not expect JSON only get the status code, so gin's default body applies.
func ErrorHandler(h *apperrors.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if !h.Handle(c, err) {
			c.Status(apperrors.PolicyFor(err).Code)
		}
	}
}

// Recovery turns a panic into an unclassified error response.
func Recovery(h *apperrors.Handler) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if ok {
			err = pkgerrors.WithStack(err)
		} else {
			err = pkgerrors.New(fmt.Sprint(recovered))
		}

		if !h.Handle(c, err) {
			c.AbortWithStatus(apperrors.PolicyFor(err).Code)
			return
		}
		c.Abort()
	})
}

// RouteNotFound is the gin NoRoute handler
func RouteNotFound(c *gin.Context) {
	c.Error(apperrors.RouteNotFound(c.Request.Method, c.Request.URL.Path))
}

// MethodNotAllowed is the gin NoMethod handler
func MethodNotAllowed(c *gin.Context) {
	c.Error(apperrors.MethodNotAllowed(c.Request.Method, c.Request.URL.Path))
}
