package handler

import "github.com/linkshelf/api/internal/openapi"

// newError creates an ApiError with the given code and message
func newError(code, message string) openapi.ApiError {
	return openapi.ApiError{
		Code:    code,
		Message: message,
	}
}

// newErrorResponse creates an ApiErrorResponse with the given code and message
func newErrorResponse(code, message string) openapi.ApiErrorResponse {
	return openapi.ApiErrorResponse{
		Error: newError(code, message),
	}
}

func badRequestResponse(code, message string) openapi.BadRequestJSONResponse {
	return openapi.BadRequestJSONResponse(newErrorResponse(code, message))
}

func invalidURLResponse() openapi.BadRequestJSONResponse {
	return badRequestResponse(ErrCodeInvalidURL, "url must be an http or https URL")
}

// NewErrorResponse is exported for middleware that writes errors outside the
// strict handler, such as the router and rate limiter.
func NewErrorResponse(code, message string) openapi.ApiErrorResponse {
	return newErrorResponse(code, message)
}

// Common error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidURL      = "INVALID_URL"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeValidationError = "VALIDATION_ERROR"
)
