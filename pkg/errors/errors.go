package errors

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorCode 对外暴露的错误码，写入响应体的 error 字段
type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeUnavailable    ErrorCode = "SERVICE_UNAVAILABLE"

	CodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	CodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"
	CodeInvalidOrderState ErrorCode = "INVALID_ORDER_STATE"
	CodeOutOfStock        ErrorCode = "OUT_OF_STOCK"
	CodeSignatureInvalid  ErrorCode = "SIGNATURE_INVALID"
	CodeNoPendingRefund   ErrorCode = "NO_PENDING_REFUND"
	CodeConcurrentUpdate  ErrorCode = "CONCURRENT_MODIFICATION"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest:        http.StatusBadRequest,
	CodeValidation:        http.StatusBadRequest,
	CodeSignatureInvalid:  http.StatusBadRequest,
	CodeNoPendingRefund:   http.StatusBadRequest,
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeOrderNotFound:     http.StatusNotFound,
	CodeProductNotFound:   http.StatusNotFound,
	CodeConflict:          http.StatusConflict,
	CodeOutOfStock:        http.StatusConflict,
	CodeConcurrentUpdate:  http.StatusConflict,
	CodeInvalidOrderState: http.StatusUnprocessableEntity,
	CodeTooManyRequest:    http.StatusTooManyRequests,
	CodeUnavailable:       http.StatusServiceUnavailable,
}

// FieldError one rejected request field
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// AppError is what the API layer renders. Message is user-visible except for
// CodeInternal, whose cause stays in Err and the log.
type AppError struct {
	Code    ErrorCode
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(" (")
		b.WriteString(e.Err.Error())
		b.WriteString(")")
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatusCode unknown codes are 500
func (e *AppError) HTTPStatusCode() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithField returns a copy that also names the offending field.
func (e *AppError) WithField(field, reason string) *AppError {
	clone := *e
	clone.Fields = append(append([]FieldError(nil), e.Fields...), FieldError{Field: field, Reason: reason})
	return &clone
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }

func NotFound(message string) *AppError { return New(CodeNotFound, message) }

func Conflict(message string) *AppError { return New(CodeConflict, message) }

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
