package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeUnbalanced is used when a journal entry does not balance
	ErrCodeUnbalanced = "ERR_UNBALANCED"
	// ErrCodeUnauthorized is used when tenant/user identification is missing
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// GetHTTPStatus maps an error code to an HTTP status code
func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeUnbalanced:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
