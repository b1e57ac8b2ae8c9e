package errors

import (
	"errors"

	"storefront/domain/catalog"
	"storefront/domain/order"
	"storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/domain/user"
)

// domainMapping 按顺序匹配，越具体的哨兵错误越靠前
var domainMapping = []struct {
	sentinel error
	code     ErrorCode
}{
	{order.ErrOrderNotFound, CodeOrderNotFound},
	{catalog.ErrProductNotFound, CodeProductNotFound},
	{catalog.ErrInsufficientStock, CodeOutOfStock},
	{payment.ErrSignatureInvalid, CodeSignatureInvalid},
	{order.ErrNoPendingRefund, CodeNoPendingRefund},
	{order.ErrInvalidOrderState, CodeInvalidOrderState},
	{order.ErrConcurrentModification, CodeConcurrentUpdate},
	{user.ErrConcurrentModification, CodeConcurrentUpdate},
	{order.ErrAccessDenied, CodeForbidden},
	{order.ErrEmptyOrderItems, CodeValidation},
	{order.ErrInvalidQuantity, CodeValidation},
	{order.ErrInvalidStatus, CodeValidation},
	{order.ErrInvalidDiscount, CodeValidation},
	{order.ErrInvalidRefundAmount, CodeValidation},
	{user.ErrInvalidEmail, CodeValidation},
	{user.ErrInvalidName, CodeValidation},
	{user.ErrInvalidRole, CodeValidation},
	{user.ErrUserNotActive, CodeForbidden},
	{shared.ErrCurrencyMismatch, CodeValidation},
	{payment.ErrGatewayUnavailable, CodeUnavailable},
	{shared.ErrNotFound, CodeNotFound},
	{shared.ErrForbidden, CodeForbidden},
	{shared.ErrUnauthorized, CodeUnauthorized},
	{shared.ErrInvalidInput, CodeValidation},
	{shared.ErrConflict, CodeConflict},
}

// FromDomainError 将领域错误映射为应用错误；未知错误视为内部错误
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range domainMapping {
		if errors.Is(err, m.sentinel) {
			mapped := Wrap(err, m.code, err.Error())
			if field := fieldOf(err); field != "" && m.code == CodeValidation {
				mapped.Fields = []FieldError{{Field: field, Reason: err.Error()}}
			}
			return mapped
		}
	}
	return Wrap(err, CodeInternal, "internal server error")
}

type fielder interface {
	Field() string
}

func fieldOf(err error) string {
	var f fielder
	if errors.As(err, &f) {
		return f.Field()
	}
	return ""
}
