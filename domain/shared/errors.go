/*
Package shared - 领域层共享错误定义

哨兵错误用于 errors.Is() 分类；DomainError 在构造时捕获堆栈，打印日志时才格式化。
领域错误不携带 HTTP 状态码，映射在 api/response 完成。
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrNotFound 资源未找到
	ErrNotFound = errors.New("not found")

	// ErrConflict 资源冲突（并发修改、唯一约束冲突）
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput 参数校验失败
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized 未认证
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden 已认证但无权限
	ErrForbidden = errors.New("forbidden")
)

// DomainError 携带业务上下文和发生点堆栈的结构化错误。
// errors.Is 按哨兵分类，Field 供 API 层生成字段级详情。
type DomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

// NewError builds a DomainError whose stack starts at the caller of the
// exported constructor that called NewError.
func NewError(sentinel error, entity, field, message string) *DomainError {
	return &DomainError{
		sentinel: sentinel,
		entity:   entity,
		field:    field,
		message:  message,
		stack:    CaptureStack(4),
	}
}

func (e *DomainError) Error() string  { return e.message }
func (e *DomainError) Unwrap() error  { return e.sentinel }
func (e *DomainError) Entity() string { return e.entity }
func (e *DomainError) Field() string  { return e.field }

// Stack 按需格式化堆栈
func (e *DomainError) Stack() []string { return FormatStack(e.stack) }

// CaptureStack 捕获当前调用栈，供子领域包构造错误时使用。
// skip 通常为 3：Callers, CaptureStack, NewXxxError
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack 过滤 runtime 内部帧，最多返回 10 帧
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) >= 10 {
			break
		}
	}
	return result
}

func NewNotFoundError(entity, id string) error {
	msg := entity + " not found"
	if id != "" {
		msg += ": " + id
	}
	return NewError(ErrNotFound, entity, "", msg)
}

func NewConflictError(entity, message string) error {
	return NewError(ErrConflict, entity, "", message)
}

// NewValidationError 创建"校验失败"领域错误
func NewValidationError(entity, field, reason string) error {
	return NewError(ErrInvalidInput, entity, field, reason)
}

func NewForbiddenError(entity, reason string) error {
	return NewError(ErrForbidden, entity, "", reason)
}

func NewUnauthorizedError(reason string) error {
	return NewError(ErrUnauthorized, "principal", "", reason)
}

// Stacker 可提供堆栈的错误，API 层据此统一提取堆栈
type Stacker interface {
	Stack() []string
}
