package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/types"
)

const defaultErrorMessage = "An unexpected error occurred"

// ErrorHandler renders the last error pushed with c.Error as an ierr.ErrorResponse
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		log.Errorw("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"request_id", types.GetRequestID(c.Request.Context()),
			"error", err,
		)

		c.JSON(status, NewErrorResponse(err))
	}
}

// AbortWithError writes the error response immediately, for middleware that stops the chain
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(ierr.HTTPStatusFromErr(err), NewErrorResponse(err))
}

func NewErrorResponse(err error) ierr.ErrorResponse {
	return ierr.ErrorResponse{
		Success: false,
		Message: getDisplayMessage(err),
		Code:    ierr.CodeFromErr(err),
		Details: getSafeDetails(err),
	}
}

// getDisplayMessage returns the outermost hint: the layer closest to the
// handler decides what the client reads
func getDisplayMessage(err error) string {
	hints := errors.GetAllHints(err)
	for i := len(hints) - 1; i >= 0; i-- {
		if hint := strings.TrimSpace(hints[i]); hint != "" {
			return hint
		}
	}
	return defaultErrorMessage
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
