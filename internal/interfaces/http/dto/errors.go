package dto

import "net/http"

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall back to 500 Internal Server Error.
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	"INVALID_INPUT":           http.StatusBadRequest,
	"INVALID_NAME":            http.StatusBadRequest,
	"INVALID_ROLE":            http.StatusBadRequest,
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_BANK_ACCOUNT":    http.StatusBadRequest,
	"INVALID_GRANTOR":         http.StatusBadRequest,
	"INVALID_CONTRACT_PARAMS": http.StatusBadRequest,
	"UNKNOWN_CONTRACT_TYPE":   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:         http.StatusNotFound,
	"PROGRAM_NOT_FOUND":     http.StatusNotFound,
	"STAGE_NOT_FOUND":       http.StatusNotFound,
	"REQUIREMENT_NOT_FOUND": http.StatusNotFound,
	"PARTICIPANT_NOT_FOUND": http.StatusNotFound,
	"USER_NOT_FOUND":        http.StatusNotFound,
	"CONTRACT_NOT_FOUND":    http.StatusNotFound,

	// Conflicts -> 409
	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_INVITED":      http.StatusConflict,
	"ALREADY_CONFIRMED":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Lifecycle rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":              http.StatusUnprocessableEntity,
	"PROGRAM_NOT_ACTIVE":         http.StatusUnprocessableEntity,
	"STAGE_NOT_ACTIVE":           http.StatusUnprocessableEntity,
	"PENDING_REQUIREMENTS":       http.StatusUnprocessableEntity,
	"PROOF_MISSING":              http.StatusUnprocessableEntity,
	"ALREADY_COMPLETED":          http.StatusUnprocessableEntity,
	"CONTRACT_GATED_NO_PROOF":    http.StatusUnprocessableEntity,
	"GRANTOR_ALREADY_ASSIGNED":   http.StatusUnprocessableEntity,
	"CANNOT_CHANGE_GRANTOR_ROLE": http.StatusUnprocessableEntity,
	"CANNOT_REMOVE_GRANTOR":      http.StatusUnprocessableEntity,
	"NO_STAGES_CONFIGURED":       http.StatusUnprocessableEntity,
	"INVALID_STAGE_SEQUENCE":     http.StatusUnprocessableEntity,
	"INSUFFICIENT_FUNDS":         http.StatusUnprocessableEntity,

	// Upstream bank failures -> 502 Bad Gateway
	"DEPOSIT_FAILED":   http.StatusBadGateway,
	"BANK_UNAVAILABLE": http.StatusBadGateway,
	"BANK_REJECTED":    http.StatusBadGateway,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
