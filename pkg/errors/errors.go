package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeDuplicateActiveOffer = "DUPLICATE_ACTIVE_OFFER"
	CodeOfferLimitExceeded   = "OFFER_LIMIT_EXCEEDED"
	CodeOfferNotPending      = "OFFER_NOT_PENDING"
	CodeListingUnavailable   = "LISTING_UNAVAILABLE"
	CodeInvalidOffer         = "INVALID_OFFER"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeProvider             = "PROVIDER_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, err)
}

func BadRequest(message string, err error) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest, err)
}

// Validation is a 400 for a field-level problem the handler could not catch with struct tags.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest, nil)
}

func Unauthorized(message string, err error) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized, err)
}

func Forbidden(message string, err error) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden, err)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict, nil)
}

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError, err)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

// Provider wraps a failure of an external collaborator (payment provider, object storage).
func Provider(message string, err error) *AppError {
	return New(CodeProvider, message, http.StatusBadGateway, err)
}

func DuplicateActiveOffer() *AppError {
	return New(CodeDuplicateActiveOffer, "You already have an active offer on this listing", http.StatusConflict, nil)
}

func OfferLimitExceeded(limit int) *AppError {
	return New(CodeOfferLimitExceeded, fmt.Sprintf("You can make at most %d offers on a listing", limit), http.StatusConflict, nil)
}

func OfferNotPending(status string) *AppError {
	return New(CodeOfferNotPending, fmt.Sprintf("Offer is %s and can no longer be answered", status), http.StatusConflict, nil)
}

func ListingUnavailable() *AppError {
	return New(CodeListingUnavailable, "Listing is no longer available", http.StatusConflict, nil)
}

func InvalidOffer(message string) *AppError {
	return New(CodeInvalidOffer, message, http.StatusBadRequest, nil)
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
