package repositories

import "errors"

// 仓库层的业务错误
// 服务层据此翻译为带稳定错误码的对外错误
var (
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentNotApproved 支付未处于已批准状态，不允许退款
	ErrPaymentNotApproved = errors.New("payment not approved")

	// ErrRefundNotFound 退款记录不存在
	ErrRefundNotFound = errors.New("refund not found")

	// ErrInsufficientBalance 退款金额超过剩余可退余额
	ErrInsufficientBalance = errors.New("insufficient refundable balance")

	// ErrInvalidAmount 金额必须为正整数
	ErrInvalidAmount = errors.New("invalid amount")
)
