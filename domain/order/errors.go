/*
Package order - 订单领域错误定义

哨兵错误支持 errors.Is() 判断；NewXxxError 构造函数在创建时捕获堆栈
（skip=3 跳过 runtime.Callers, CaptureStack, NewXxxError），堆栈从调用点开始。
*/
package order

import (
	"errors"
	"fmt"

	"storefront/domain/shared"
)

var (
	// ErrOrderNotFound also matches shared.ErrNotFound
	ErrOrderNotFound = fmt.Errorf("order %w", shared.ErrNotFound)

	// ErrConcurrentModification 乐观锁冲突，调用方应重试
	ErrConcurrentModification = errors.New("order was modified by another transaction, please retry")

	// ErrInvalidOrderState 当前状态不允许该操作
	ErrInvalidOrderState = errors.New("invalid order state")

	ErrEmptyOrderItems = errors.New("order must have at least one item")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidStatus 状态值不在枚举内或缺失
	ErrInvalidStatus = errors.New("invalid order status")

	ErrInvalidDiscount = errors.New("invalid discount")

	ErrNoPendingRefund = errors.New("no pending refund for this order")

	ErrInvalidRefundAmount = errors.New("invalid refund amount")

	// ErrAccessDenied 非订单所有者或非管理员
	ErrAccessDenied = errors.New("access denied")
)

// NewOrderNotFoundError 返回的错误支持 errors.Is(err, ErrOrderNotFound) 与 shared.Stacker
func NewOrderNotFoundError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrOrderNotFound,
		message:  "order not found: " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrConcurrentModification,
		message:  "order " + orderID + " was modified by another transaction, please retry",
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidOrderStateError message is user facing
func NewInvalidOrderStateError(message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrderState,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewEmptyOrderItemsError() error {
	return &orderDomainError{
		sentinel: ErrEmptyOrderItems,
		field:    "items",
		message:  "order must have at least one item",
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidQuantityError(productID string) error {
	return &orderDomainError{
		sentinel: ErrInvalidQuantity,
		field:    "items.quantity",
		message:  "quantity must be at least 1 for product " + productID,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidStatusError(raw, message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidStatus,
		field:    "status",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidDiscountError(message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidDiscount,
		field:    "discount",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewNoPendingRefundError() error {
	return &orderDomainError{
		sentinel: ErrNoPendingRefund,
		message:  "No pending refund for this order",
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidRefundAmountError(message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidRefundAmount,
		field:    "refundedAmount",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewAccessDeniedError(message string) error {
	return &orderDomainError{
		sentinel: ErrAccessDenied,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

// orderDomainError 实现 error, Unwrap, Stacker
type orderDomainError struct {
	sentinel error
	field    string
	message  string
	stack    []uintptr
}

func (e *orderDomainError) Error() string {
	return e.message
}

func (e *orderDomainError) Unwrap() error {
	return e.sentinel
}

// Field 校验失败的字段（可能为空）
func (e *orderDomainError) Field() string {
	return e.field
}

func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}
