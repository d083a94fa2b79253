package services

import (
	"context"
	"fmt"

	"authpay/app/models/refund"
	"authpay/app/repositories"
	"authpay/pkg/logger"
)

// RefundService 退款编排服务
// 校验与写入全部发生在仓库层的单个事务内，这里只做编排与错误翻译
type RefundService struct {
	refunds  *repositories.RefundRepository
	payments *repositories.PaymentRepository
}

// NewRefundService 创建退款编排服务
func NewRefundService() *RefundService {
	return &RefundService{
		refunds:  repositories.NewRefundRepository(),
		payments: repositories.NewPaymentRepository(),
	}
}

// NewRefundServiceWith 以显式依赖创建退款编排服务
func NewRefundServiceWith(refunds *repositories.RefundRepository, payments *repositories.PaymentRepository) *RefundService {
	return &RefundService{
		refunds:  refunds,
		payments: payments,
	}
}

// Refund 对一笔支付发起退款
// 拒绝原因通过稳定错误码返回：PAYMENT_NOT_FOUND / PAYMENT_NOT_APPROVED /
// INSUFFICIENT_BALANCE / INVALID_AMOUNT
func (s *RefundService) Refund(ctx context.Context, paymentID string, amount int64) (*refund.Refund, error) {
	record, err := s.refunds.Create(ctx, paymentID, amount)
	if err != nil {
		return nil, translateError(err)
	}

	logger.InfoString("Refund", "Create",
		fmt.Sprintf("payment=%s refund=%s amount=%d", paymentID, record.ID, amount))
	return record, nil
}

// GetRefund 获取某笔支付下的单条退款记录
// 退款存在但不属于该支付时同样返回 REFUND_NOT_FOUND，不泄露其他支付的退款
func (s *RefundService) GetRefund(ctx context.Context, paymentID, refundID string) (*refund.Refund, error) {
	record, err := s.refunds.Get(ctx, refundID)
	if err != nil {
		return nil, translateError(err)
	}

	if record.PaymentID != paymentID {
		return nil, NewError(CodeRefundNotFound, repositories.ErrRefundNotFound)
	}
	return record, nil
}

// ListRefunds 获取某笔支付的退款记录及累计退款金额
func (s *RefundService) ListRefunds(ctx context.Context, paymentID string) ([]refund.Refund, int64, error) {
	// 先确认支付存在，保证对未知支付返回 PAYMENT_NOT_FOUND 而非空列表
	if _, err := s.payments.Get(ctx, paymentID); err != nil {
		return nil, 0, translateError(err)
	}

	records, err := s.refunds.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, 0, translateError(err)
	}

	var total int64
	for _, r := range records {
		total += r.Amount
	}
	return records, total, nil
}
