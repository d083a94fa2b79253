package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"authpay/app/models/payment"
	"authpay/app/models/refund"
	"authpay/pkg/database"
)

// RefundRepository 退款记录仓库
// 不变式：任意支付的累计退款金额不得超过支付金额，
// 校验与写入在同一事务内完成，杜绝并发退款各自读到过期余额
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建仓库实例
func NewRefundRepository() *RefundRepository {
	return &RefundRepository{
		db: database.DB,
	}
}

// Create 在单个事务内完成余额校验和退款写入
// 流程：锁定支付行 -> 校验状态 -> 聚合已退款金额 -> 校验余额 -> 插入 -> 提交
func (r *RefundRepository) Create(ctx context.Context, paymentID string, amount int64) (*refund.Refund, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var created *refund.Refund
	err := withConflictRetry(func() error {
		created = nil
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 行锁串行化同一笔支付的并发退款；
			// SQLite 不支持 FOR UPDATE，由引擎级的单写锁承担同样的职责
			query := tx
			if tx.Dialector.Name() == "postgres" {
				query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}

			var p payment.Payment
			if err := query.Where("id = ?", paymentID).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPaymentNotFound
				}
				return err
			}

			// 只有已批准的支付可退款
			if !p.IsApproved() {
				return ErrPaymentNotApproved
			}

			// 聚合已提交的退款计算剩余可退余额
			var refunded int64
			if err := tx.Model(&refund.Refund{}).
				Where("payment_id = ?", paymentID).
				Select("COALESCE(SUM(amount), 0)").
				Scan(&refunded).Error; err != nil {
				return err
			}

			if amount > p.Amount-refunded {
				return ErrInsufficientBalance
			}

			record := &refund.Refund{
				ID:        uuid.New().String(),
				PaymentID: paymentID,
				Amount:    amount,
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}

			created = record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get 根据 ID 获取退款记录
func (r *RefundRepository) Get(ctx context.Context, id string) (*refund.Refund, error) {
	var record refund.Refund
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByPayment 获取某笔支付的全部退款记录
func (r *RefundRepository) ListByPayment(ctx context.Context, paymentID string) ([]refund.Refund, error) {
	var records []refund.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
