package middleware

import (
	"errors"
	"net/http"

	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// Never expose internal error details to clients.
			logger.Log.ErrorContext(c.Request.Context(), "Unhandled error",
				"error", err,
				"path", c.Request.URL.Path,
				"request_id", c.GetString("RequestID"),
			)
			response.Error(c, http.StatusInternalServerError, apperror.CodeUnexpected, "")
			return
		}

		if appErr.Status >= http.StatusInternalServerError && appErr.Err != nil {
			logger.Log.ErrorContext(c.Request.Context(), "Request failed",
				"code", appErr.Code,
				"error", appErr.Err,
				"request_id", c.GetString("RequestID"),
			)
		}

		if appErr.FieldErrors != nil {
			response.ValidationError(c, appErr.Status, appErr.Code, appErr.FieldErrors)
			return
		}
		response.Error(c, appErr.Status, appErr.Code, appErr.Message)
	}
}

// Recovery turns a panic into 500 UNEXPECTED_ERROR instead of an empty reply.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.ErrorContext(c.Request.Context(), "Panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("RequestID"),
		)
		response.Error(c, http.StatusInternalServerError, apperror.CodeUnexpected, "")
		c.Abort()
	})
}
