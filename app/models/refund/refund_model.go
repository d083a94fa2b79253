package refund

import (
	"time"
)

// Refund 退款记录模型
// 退款一经写入即视为生效且不可变更；
// 同一笔支付的退款总额不允许超过支付金额，该约束在仓库层的事务内保证
type Refund struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PaymentID string    `gorm:"type:varchar(36);index;not null" json:"payment_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"" json:"created_at"`
	UpdatedAt time.Time `gorm:"" json:"updated_at"`
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}
