package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authpay/app/models/payment"
	"authpay/app/repositories"
	"authpay/pkg/authorizer"
)

func TestChargeApproved(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeApproved}
	service := newTestPaymentService(auth)

	record, created, err := service.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(payment.StatusApproved), record.Status)
	assert.Equal(t, int64(1), auth.calls.Load())
}

func TestChargeDeclined(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeDeclined}
	service := newTestPaymentService(auth)

	record, created, err := service.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(payment.StatusDeclined), record.Status)
}

func TestChargeAuthorizerUnavailableLandsFailed(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{
		outcome: authorizer.OutcomeFailure,
		err:     authorizer.ErrUnavailable,
	}
	service := newTestPaymentService(auth)

	// 重试额度耗尽后支付落 failed，不会卡在 processing
	record, created, err := service.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(payment.StatusFailed), record.Status)
}

func TestChargeRejectsInvalidInput(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeApproved}
	service := newTestPaymentService(auth)
	ctx := context.Background()

	// 非正金额在编排层拒绝
	_, _, err := service.Charge(ctx, -100, "123456789012345")
	assert.Equal(t, CodeInvalidAmount, ErrorCode(err))

	_, _, err = service.Charge(ctx, 0, "123456789012345")
	assert.Equal(t, CodeInvalidAmount, ErrorCode(err))

	// 卡标识必须是 15 位数字
	for _, card := range []string{"", "123", "1234567890123456", "12345678901234a"} {
		_, _, err = service.Charge(ctx, 1000, card)
		assert.Equal(t, CodeInvalidCard, ErrorCode(err), "card=%q", card)
	}

	// 非法输入不触碰授权方，也不留下任何支付记录
	assert.Equal(t, int64(0), auth.calls.Load())
	_, err = repositories.NewPaymentRepository().GetByCardIdentifier(ctx, "123456789012345")
	assert.ErrorIs(t, err, repositories.ErrPaymentNotFound)
}

func TestChargeIdempotentHit(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeApproved}
	service := newTestPaymentService(auth)

	first, created, err := service.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	require.True(t, created)

	// 同卡再次扣款：返回既有支付，绝不重复触碰授权方
	second, created, err := service.Charge(context.Background(), 9999, "123456789012345")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1000), second.Amount)
	assert.Equal(t, int64(1), auth.calls.Load())
}

func TestChargeFallsBackWhenEnqueueFails(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeApproved}
	service := NewPaymentServiceWith(repositories.NewPaymentRepository(), auth, &failingEnqueuer{})

	// 入队失败转本地同步授权，照样落终态
	record, created, err := service.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(payment.StatusApproved), record.Status)
	assert.Equal(t, int64(1), auth.calls.Load())
}

func TestGetPayment(t *testing.T) {
	setupTestDB(t)
	auth := &stubAuthorizer{outcome: authorizer.OutcomeApproved}
	paymentService := newTestPaymentService(auth)
	refundService := NewRefundService()

	record, _, err := paymentService.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)

	_, err = refundService.Refund(context.Background(), record.ID, 250)
	require.NoError(t, err)

	got, refunded, err := paymentService.GetPayment(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, int64(250), refunded)
}

func TestGetPaymentNotFound(t *testing.T) {
	setupTestDB(t)
	service := newTestPaymentService(&stubAuthorizer{outcome: authorizer.OutcomeApproved})

	_, _, err := service.GetPayment(context.Background(), "no-such-id")
	assert.Equal(t, CodePaymentNotFound, ErrorCode(err))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodePaymentNotFound, ErrorCode(NewError(CodePaymentNotFound, nil)))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("plain error")))

	// 包装后的服务层错误仍能提取错误码
	wrapped := NewError(CodeInsufficientBalance, errors.New("boom"))
	assert.Equal(t, CodeInsufficientBalance, ErrorCode(wrapped))
}
