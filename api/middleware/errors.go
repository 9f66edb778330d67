package middleware

import (
	"errors"
	"net/http"

	"photosocial/db"
	"photosocial/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ErrorBoundary renders the last error attached with c.Error as
// {"message", "status"}. Handlers that attach an error write nothing else.
func ErrorBoundary(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, message := describe(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		c.JSON(status, errorBody{Message: message, Status: status})
	}
}

func describe(err error) (int, string) {
	var partial *db.PartialWriteError
	if errors.As(err, &partial) {
		return http.StatusInternalServerError, partial.Operation + " was only partially applied"
	}
	var e *services.Error
	if errors.As(err, &e) {
		if e.Kind == services.KindInternal {
			return http.StatusInternalServerError, "Internal server error"
		}
		return e.Status(), e.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// NotFound is the handler for unmatched routes.
func NotFound(c *gin.Context) {
	c.Error(services.NotFoundError("Not found: " + c.Request.URL.Path))
}
