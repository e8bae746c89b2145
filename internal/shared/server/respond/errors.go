package respond

import (
	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/telemetry"
)

// ErrorBody is the error object every failed request returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// correlationKeys maps gin context keys set by middleware and handlers to
// log field names.
var correlationKeys = [][2]string{
	{"requestId", "request_id"},
	{"userId", "user_id"},
	{"jobId", "job_id"},
	{"applicationId", "application_id"},
}

// Error logs and aborts with the {"error": {...}} envelope. 5xx responses log
// at error level and everything else at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
	}
	for _, kv := range correlationKeys {
		if v := c.GetString(kv[0]); v != "" {
			fields[kv[1]] = v
		}
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}
