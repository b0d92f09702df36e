package errors

import "fmt"

// Machine codes attached to error responses.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// Upstream proxy error codes. These are part of the wire contract and use the
// proxy's own lowercase convention.
const (
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeUpstreamError       = "upstream_error"
	CodeUpstreamBadResponse = "upstream_bad_response"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ProxyError is the structured failure produced by the DSP proxy. It is both
// the wire body and the Go error carried up to the handler. StatusCode is the
// local status returned to the client, not necessarily the upstream's.
type ProxyError struct {
	Code       string      `json:"error"`
	Detail     interface{} `json:"detail"`
	StatusCode int         `json:"status_code"`
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	return fmt.Sprintf("%s (status %d): %v", e.Code, e.StatusCode, e.Detail)
}

// UpstreamDetail describes a non-2xx upstream response inside a ProxyError.
type UpstreamDetail struct {
	Status int         `json:"status"`
	Body   interface{} `json:"body"`
}
