package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is the envelope for every non-2xx JSON body
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code next to the message
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewErrorResponse builds an error envelope for the request path
func NewErrorResponse(code, message, path string, details map[string]interface{}) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Path:    path,
		Details: details,
	}}
}
