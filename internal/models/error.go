package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeCreditsExhausted  = "CREDITS_EXHAUSTED"
	ErrCodeHandlerFailed     = "HANDLER_FAILED"
	ErrCodeReviewUnparseable = "REVIEW_UNPARSEABLE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// NewErrorResponse builds an envelope without details.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code}
}
