package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"document-ingest/internal/shared/telemetry"
)

// RequestIDKey is the gin context key the request ID middleware writes to.
const RequestIDKey = "requestId"

// Error codes returned in ErrorBody.Code.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

// ErrorBody is the error object returned by every diagnostics route.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody under an "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Error aborts the request with a standardized error body. Server errors are
// logged at error level, client errors at warn.
func Error(c *gin.Context, status int, code, message string) {
	requestID := c.GetString(RequestIDKey)
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"route":      c.FullPath(),
		"request_id": requestID,
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, RequestID: requestID},
	})
}

// Internal hides err from the client and logs it against the request.
func Internal(c *gin.Context, message string, err error) {
	if err != nil {
		telemetry.Error("http.internal_cause", map[string]any{
			"request_id": c.GetString(RequestIDKey),
			"route":      c.FullPath(),
			"error":      err.Error(),
		})
	}
	Error(c, http.StatusInternalServerError, CodeInternal, message)
}
