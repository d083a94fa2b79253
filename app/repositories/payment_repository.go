package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"authpay/app/models/payment"
	"authpay/app/models/refund"
	"authpay/pkg/database"
)

// PaymentRepository 支付记录仓库
// 一张卡全局只允许创建一笔支付，由 card_identifier 的唯一索引保证
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建仓库实例
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		db: database.DB,
	}
}

// Reserve 以插入即裁决的方式占用卡标识
// 直接尝试插入一条 processing 记录，以唯一索引冲突作为"已存在"的唯一判定，
// 不做先查后插，避免并发窗口。
// 冲突时返回已存在的支付记录，created 为 false
func (r *PaymentRepository) Reserve(ctx context.Context, amount int64, cardIdentifier string) (p *payment.Payment, created bool, err error) {
	err = withConflictRetry(func() error {
		record := &payment.Payment{
			ID:             uuid.New().String(),
			Amount:         amount,
			CardIdentifier: cardIdentifier,
			Status:         string(payment.StatusProcessing),
		}

		insertErr := r.db.WithContext(ctx).Create(record).Error
		if insertErr == nil {
			p = record
			created = true
			return nil
		}

		// 唯一索引冲突：卡已被占用，读取既有记录返回给调用方
		if errors.Is(insertErr, gorm.ErrDuplicatedKey) {
			existing, getErr := r.GetByCardIdentifier(ctx, cardIdentifier)
			if getErr != nil {
				return fmt.Errorf("load existing payment: %w", getErr)
			}
			p = existing
			created = false
			return nil
		}

		return insertErr
	})
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}

// FinishProcessing 将处理中的支付迁移到终态
// 条件更新（status = processing）即 CAS，与状态写入在同一语句内原子完成；
// 没有命中说明并发方已经完成迁移，此时不覆盖，读回已持久化的终态返回
func (r *PaymentRepository) FinishProcessing(ctx context.Context, id string, target payment.Status) (*payment.Payment, error) {
	if !target.IsTerminal() {
		return nil, fmt.Errorf("status %q is not terminal", target)
	}

	var result *payment.Payment
	err := withConflictRetry(func() error {
		res := r.db.WithContext(ctx).
			Model(&payment.Payment{}).
			Where("id = ? AND status = ?", id, string(payment.StatusProcessing)).
			Update("status", string(target))
		if res.Error != nil {
			return res.Error
		}

		// 命中与否都读回当前行：
		// 零行受影响时要么记录不存在，要么已是终态（迁移为 no-op）
		current, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get 根据 ID 获取支付记录
func (r *PaymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var record payment.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByCardIdentifier 根据卡标识获取支付记录
func (r *PaymentRepository) GetByCardIdentifier(ctx context.Context, cardIdentifier string) (*payment.Payment, error) {
	var record payment.Payment
	err := r.db.WithContext(ctx).Where("card_identifier = ?", cardIdentifier).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetWithRefundedTotal 获取支付记录及累计退款金额
// 累计退款为派生值，读取时聚合计算，不落库
func (r *PaymentRepository) GetWithRefundedTotal(ctx context.Context, id string) (*payment.Payment, int64, error) {
	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	var refunded int64
	err = r.db.WithContext(ctx).
		Model(&refund.Refund{}).
		Where("payment_id = ?", id).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&refunded).Error
	if err != nil {
		return nil, 0, err
	}

	return record, refunded, nil
}
