package services

import (
	"errors"

	"authpay/app/repositories"
	"authpay/pkg/authorizer"
)

// 对外暴露的稳定错误码
// HTTP 层只依赖这些码做状态码映射，不解析错误文案
const (
	CodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	CodePaymentNotApproved    = "PAYMENT_NOT_APPROVED"
	CodeRefundNotFound        = "REFUND_NOT_FOUND"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidCard           = "INVALID_CARD_IDENTIFIER"
	CodeAuthorizerUnavailable = "AUTHORIZER_UNAVAILABLE"
	CodeInternal              = "INTERNAL"
)

// Error 服务层错误，携带稳定错误码
type Error struct {
	Code string
	Err  error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

// Unwrap 返回内部错误
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 创建服务层错误
func NewError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// ErrorCode 提取错误码，非服务层错误一律视为 INTERNAL
func ErrorCode(err error) string {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return CodeInternal
}

// translateError 将仓库层/授权层错误翻译为带码的服务层错误
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repositories.ErrPaymentNotFound):
		return NewError(CodePaymentNotFound, err)
	case errors.Is(err, repositories.ErrPaymentNotApproved):
		return NewError(CodePaymentNotApproved, err)
	case errors.Is(err, repositories.ErrRefundNotFound):
		return NewError(CodeRefundNotFound, err)
	case errors.Is(err, repositories.ErrInsufficientBalance):
		return NewError(CodeInsufficientBalance, err)
	case errors.Is(err, repositories.ErrInvalidAmount):
		return NewError(CodeInvalidAmount, err)
	case errors.Is(err, authorizer.ErrUnavailable):
		return NewError(CodeAuthorizerUnavailable, err)
	default:
		return NewError(CodeInternal, err)
	}
}
