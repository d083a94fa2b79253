package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authpay/app/models/payment"
	"authpay/pkg/authorizer"
)

// chargeApproved 发起一笔扣款并确保其落为 approved
func chargeApproved(t *testing.T, amount int64, card string) *payment.Payment {
	t.Helper()

	service := newTestPaymentService(&stubAuthorizer{outcome: authorizer.OutcomeApproved})
	record, created, err := service.Charge(context.Background(), amount, card)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, string(payment.StatusApproved), record.Status)
	return record
}

func TestRefundApprovedPayment(t *testing.T) {
	setupTestDB(t)
	record := chargeApproved(t, 1000, "123456789012345")
	service := NewRefundService()

	refund, err := service.Refund(context.Background(), record.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, record.ID, refund.PaymentID)
	assert.Equal(t, int64(400), refund.Amount)
}

func TestRefundErrorCodes(t *testing.T) {
	setupTestDB(t)
	record := chargeApproved(t, 1000, "123456789012345")
	service := NewRefundService()
	ctx := context.Background()

	// 未知支付
	_, err := service.Refund(ctx, "no-such-id", 100)
	assert.Equal(t, CodePaymentNotFound, ErrorCode(err))

	// 非法金额
	_, err = service.Refund(ctx, record.ID, 0)
	assert.Equal(t, CodeInvalidAmount, ErrorCode(err))

	// 超额退款
	_, err = service.Refund(ctx, record.ID, 1001)
	assert.Equal(t, CodeInsufficientBalance, ErrorCode(err))
}

func TestRefundNonApprovedPayment(t *testing.T) {
	setupTestDB(t)

	// 被拒绝的支付不可退款
	declinedService := newTestPaymentService(&stubAuthorizer{outcome: authorizer.OutcomeDeclined})
	record, _, err := declinedService.Charge(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)

	service := NewRefundService()
	_, err = service.Refund(context.Background(), record.ID, 100)
	assert.Equal(t, CodePaymentNotApproved, ErrorCode(err))
}

func TestGetRefund(t *testing.T) {
	setupTestDB(t)
	record := chargeApproved(t, 1000, "123456789012345")
	service := NewRefundService()
	ctx := context.Background()

	created, err := service.Refund(ctx, record.ID, 400)
	require.NoError(t, err)

	got, err := service.GetRefund(ctx, record.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(400), got.Amount)

	// 未知退款
	_, err = service.GetRefund(ctx, record.ID, "no-such-refund")
	assert.Equal(t, CodeRefundNotFound, ErrorCode(err))

	// 退款存在但挂在别的支付下，同样按不存在处理
	other := chargeApproved(t, 500, "999999999999999")
	_, err = service.GetRefund(ctx, other.ID, created.ID)
	assert.Equal(t, CodeRefundNotFound, ErrorCode(err))
}

func TestListRefunds(t *testing.T) {
	setupTestDB(t)
	record := chargeApproved(t, 1000, "123456789012345")
	service := NewRefundService()
	ctx := context.Background()

	_, err := service.Refund(ctx, record.ID, 300)
	require.NoError(t, err)
	_, err = service.Refund(ctx, record.ID, 200)
	require.NoError(t, err)

	records, total, err := service.ListRefunds(ctx, record.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(500), total)
}

func TestListRefundsUnknownPayment(t *testing.T) {
	setupTestDB(t)
	service := NewRefundService()

	_, _, err := service.ListRefunds(context.Background(), "no-such-id")
	assert.Equal(t, CodePaymentNotFound, ErrorCode(err))
}
