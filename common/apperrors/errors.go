package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine readable error identifier sent to clients
type Code string

const (
	CodeNotFound               Code = "not_found"
	CodeInvalidPrice           Code = "invalid_price"
	CodeInvalidPaymentProof    Code = "invalid_payment_proof"
	CodeInvalidCreator         Code = "invalid_creator"
	CodeUserCreationFailed     Code = "user_creation_failed"
	CodePaymentInvalid         Code = "payment_invalid"
	CodeBadRequest             Code = "bad_request"
	CodeFacilitatorUnavailable Code = "facilitator_unavailable"
	CodeForbidden              Code = "forbidden"
	CodeConflict               Code = "conflict"
	CodeAgentUnavailable       Code = "agent_unavailable"
	CodeInternal               Code = "internal_error"
)

// AppError is an error that knows how it should be reported to a client
type AppError struct {
	Code       Code           `json:"error"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
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

// Is matches any AppError carrying the same code, so errors.Is works
// against the sentinels below regardless of message or wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of e with details attached
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Sentinels for errors.Is checks
var (
	ErrNotFound                  = &AppError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound}
	ErrInvalidPrice              = &AppError{Code: CodeInvalidPrice, Message: "asset price is missing or invalid", HTTPStatus: http.StatusUnprocessableEntity}
	ErrInvalidPaymentProofFormat = &AppError{Code: CodeInvalidPaymentProof, Message: "payment proof is not valid base64 encoded JSON", HTTPStatus: http.StatusBadRequest}
	ErrCreatorResolution         = &AppError{Code: CodeInvalidCreator, Message: "invalid creatorId", HTTPStatus: http.StatusBadRequest}
	ErrUserProvisioning          = &AppError{Code: CodeUserCreationFailed, Message: "failed to create new user", HTTPStatus: http.StatusInternalServerError}
	ErrPaymentInvalid            = &AppError{Code: CodePaymentInvalid, Message: "payment verification failed", HTTPStatus: http.StatusPaymentRequired}
	ErrValidation                = &AppError{Code: CodeBadRequest, Message: "invalid request", HTTPStatus: http.StatusBadRequest}
	ErrFacilitatorUnavailable    = &AppError{Code: CodeFacilitatorUnavailable, Message: "payment facilitator unavailable", HTTPStatus: http.StatusBadGateway}
	ErrConflict                  = &AppError{Code: CodeConflict, Message: "conflict", HTTPStatus: http.StatusConflict}
	ErrForbidden                 = &AppError{Code: CodeForbidden, Message: "forbidden", HTTPStatus: http.StatusForbidden}
	ErrAgentUnavailable          = &AppError{Code: CodeAgentUnavailable, Message: "agent is not configured", HTTPStatus: http.StatusServiceUnavailable}
)

// New creates an error of the same kind as sentinel with a specific message
func New(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		HTTPStatus: sentinel.HTTPStatus,
	}
}

// Newf is New with formatting
func Newf(sentinel *AppError, format string, args ...any) *AppError {
	return New(sentinel, fmt.Sprintf(format, args...))
}

// Wrap creates an error of the same kind as sentinel around cause
func Wrap(sentinel *AppError, message string, cause error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		HTTPStatus: sentinel.HTTPStatus,
		Err:        cause,
	}
}

// As extracts the first *AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps any error to the status code a client should see
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CodeOf maps any error to its client facing code
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Public returns the client facing form of err. Unknown errors are
// reduced to a generic internal error so driver messages never leak.
func Public(err error) *AppError {
	if appErr, ok := As(err); ok {
		return &AppError{
			Code:       appErr.Code,
			Message:    appErr.Message,
			HTTPStatus: appErr.HTTPStatus,
			Details:    appErr.Details,
		}
	}
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
}
