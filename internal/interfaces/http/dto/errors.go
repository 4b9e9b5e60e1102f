package dto

import (
	"net/http"

	"github.com/bizdocs/backend/internal/domain/shared"
)

// Error code constants returned in API error bodies.
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"

	ErrCodeNotFound = "ERR_NOT_FOUND"

	// ErrCodeStateConflict is used when a lifecycle rule refuses the operation
	ErrCodeStateConflict = "ERR_STATE_CONFLICT"
	// ErrCodeNumberCollision is used when numbering retries are exhausted
	ErrCodeNumberCollision = "ERR_NUMBER_COLLISION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeStateConflict: http.StatusConflict,
	// Transient: the client may simply submit again.
	ErrCodeNumberCollision: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the code is unknown.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes maps domain error codes to API error codes
var domainCodes = map[string]string{
	shared.CodeValidation:      ErrCodeValidation,
	shared.CodeStateConflict:   ErrCodeStateConflict,
	shared.CodeNumberCollision: ErrCodeNumberCollision,
	shared.CodeNotFound:        ErrCodeNotFound,
	shared.CodeUnauthorized:    ErrCodeUnauthorized,
	shared.CodeForbidden:       ErrCodeForbidden,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}
