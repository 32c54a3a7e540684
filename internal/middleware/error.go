package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medicore/hospital-api/internal/handler"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

// ErrorHandler renders the last error recorded on the context. Services
// return AppError values, so the status and the client-safe message come
// straight off the error; anything else is logged and masked as a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		appErr := apperrors.From(c.Errors.Last().Err)
		c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
	}
}
