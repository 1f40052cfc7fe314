package envelope

import (
	"errors"
	"net/http"
)

var exceptionNames = map[int]string{
	http.StatusBadRequest:            "BadRequestException",
	http.StatusUnauthorized:          "UnauthorizedException",
	http.StatusForbidden:             "ForbiddenException",
	http.StatusNotFound:              "NotFoundException",
	http.StatusMethodNotAllowed:      "MethodNotAllowedException",
	http.StatusNotAcceptable:         "NotAcceptableException",
	http.StatusRequestTimeout:        "RequestTimeoutException",
	http.StatusConflict:              "ConflictException",
	http.StatusGone:                  "GoneException",
	http.StatusPreconditionFailed:    "PreconditionFailedException",
	http.StatusRequestEntityTooLarge: "PayloadTooLargeException",
	http.StatusUnsupportedMediaType:  "UnsupportedMediaTypeException",
	http.StatusUnprocessableEntity:   "UnprocessableEntityException",
	http.StatusTooManyRequests:       "TooManyRequestsException",
	http.StatusInternalServerError:   "InternalServerErrorException",
	http.StatusNotImplemented:        "NotImplementedException",
	http.StatusBadGateway:            "BadGatewayException",
	http.StatusServiceUnavailable:    "ServiceUnavailableException",
	http.StatusGatewayTimeout:        "GatewayTimeoutException",
}

// ExceptionName returns the exception name reported for status.
func ExceptionName(status int) string {
	if name, ok := exceptionNames[status]; ok {
		return name
	}
	return "HttpException"
}

// Error is an error with a declared HTTP status.
type Error struct {
	Status  int
	Name    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error named after status.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Name: ExceptionName(status), Message: message}
}

// Wrap creates an Error for status that keeps err in its chain.
func Wrap(status int, message string, err error) *Error {
	e := NewError(status, message)
	e.Err = err
	return e
}

// BadRequest returns a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// NotFound returns a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Conflict returns a 409 error.
func Conflict(message string) *Error {
	return NewError(http.StatusConflict, message)
}

// Internal returns a 500 error carrying err's text.
func Internal(err error) *Error {
	return Wrap(http.StatusInternalServerError, err.Error(), err)
}

// From returns err as an *Error. Errors without a declared status become
// 500s.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Name == "" {
			e = &Error{Status: e.Status, Name: ExceptionName(e.Status), Message: e.Message, Err: e.Err}
		}
		return e
	}
	return Internal(err)
}
