package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authpay/app/models/payment"
)

func TestReserveCreatesProcessingPayment(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	record, created, err := repo.Reserve(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, int64(1000), record.Amount)
	assert.Equal(t, "123456789012345", record.CardIdentifier)
	assert.Equal(t, string(payment.StatusProcessing), record.Status)
}

func TestReserveIdempotentOnSameCard(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	first, created, err := repo.Reserve(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)
	require.True(t, created)

	// 同卡再次扣款：金额不同也不创建新记录
	second, created, err := repo.Reserve(context.Background(), 9999, "123456789012345")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1000), second.Amount)

	// 不同的卡互不影响
	other, created, err := repo.Reserve(context.Background(), 500, "999999999999999")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestReserveConcurrentSameCard(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	const goroutines = 10

	var wg sync.WaitGroup
	ids := make([]string, goroutines)
	createdFlags := make([]bool, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, created, err := repo.Reserve(context.Background(), 1000, "123456789012345")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = record.ID
			createdFlags[i] = created
		}(i)
	}
	wg.Wait()

	// 恰好一个赢家拿到 created，所有人看到同一笔支付
	winners := 0
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		if createdFlags[i] {
			winners++
		}
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, winners)
}

func TestFinishProcessingMovesToTerminal(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	record, _, err := repo.Reserve(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)

	finished, err := repo.FinishProcessing(context.Background(), record.ID, payment.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, string(payment.StatusApproved), finished.Status)
}

func TestFinishProcessingDoesNotOverwriteTerminal(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	record, _, err := repo.Reserve(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)

	_, err = repo.FinishProcessing(context.Background(), record.ID, payment.StatusApproved)
	require.NoError(t, err)

	// 第二次迁移是 no-op，返回已持久化的终态
	result, err := repo.FinishProcessing(context.Background(), record.ID, payment.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, string(payment.StatusApproved), result.Status)
}

func TestFinishProcessingRejectsNonTerminalTarget(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	record, _, err := repo.Reserve(context.Background(), 1000, "123456789012345")
	require.NoError(t, err)

	_, err = repo.FinishProcessing(context.Background(), record.ID, payment.StatusProcessing)
	assert.Error(t, err)
}

func TestFinishProcessingUnknownPayment(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	_, err := repo.FinishProcessing(context.Background(), "no-such-id", payment.StatusFailed)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetNotFound(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	_, err := repo.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetWithRefundedTotal(t *testing.T) {
	setupTestDB(t)
	payments := NewPaymentRepository()
	refunds := NewRefundRepository()

	record := approvedPayment(t, payments, 1000, "123456789012345")

	// 无退款时累计为 0
	_, refunded, err := payments.GetWithRefundedTotal(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), refunded)

	_, err = refunds.Create(context.Background(), record.ID, 300)
	require.NoError(t, err)
	_, err = refunds.Create(context.Background(), record.ID, 200)
	require.NoError(t, err)

	got, refunded, err := payments.GetWithRefundedTotal(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, int64(500), refunded)
}
