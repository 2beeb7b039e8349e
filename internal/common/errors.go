package common

import (
	"errors"
	"fmt"
)

// ============================================================================
// 业务错误分类
//
// 退款结算的调用方需要区分四类失败：参数校验失败、资源缺失、
// 前置状态不满足、存储事务失败（可重试，保证无副作用）。
// 四类错误均支持 errors.As 判定。
// ============================================================================

// ValidationError 请求金额越界、零额结单等校验失败，未发生任何变更
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError 退款单、订单或售后单不存在
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: %v", e.Resource, e.ID)
}

// NewNotFoundError 创建资源缺失错误
func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// StateError 前置状态不满足（重复审核、重复确认、并发冲突）
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// NewStateError 创建状态错误
func NewStateError(format string, args ...any) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// ConsistencyError 事务提交失败，保证零副作用，调用方可安全重试
type ConsistencyError struct {
	Cause error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("退款事务失败（未产生变更）: %v", e.Cause)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Cause
}

// NewConsistencyError 包装存储层失败
func NewConsistencyError(cause error) *ConsistencyError {
	return &ConsistencyError{Cause: cause}
}

// ============================================================================
// 判定辅助
// ============================================================================

// IsValidationError 是否为校验错误
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError 是否为资源缺失错误
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsStateError 是否为状态错误
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsConsistencyError 是否为可重试的事务错误
func IsConsistencyError(err error) bool {
	var target *ConsistencyError
	return errors.As(err, &target)
}

// ErrorCode 将业务错误映射为响应状态码
func ErrorCode(err error) int {
	switch {
	case IsValidationError(err):
		return CodeRefundAmountOver
	case IsNotFoundError(err):
		return CodeRefundNotFound
	case IsStateError(err):
		return CodeRefundFinalized
	case IsConsistencyError(err):
		return CodeRefundStorage
	default:
		return CodeInternalError
	}
}
