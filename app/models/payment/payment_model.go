package payment

import (
	"time"
)

// Payment 支付记录模型
// 一经创建金额与卡标识不可变更，状态最多发生一次迁移（processing -> 终态），
// 之后整行只读；refunded_total 为派生值，不落库
type Payment struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	CardIdentifier string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"card_identifier"`
	Status         string    `gorm:"type:varchar(20);index;not null" json:"status"`
	CreatedAt      time.Time `gorm:"" json:"created_at"`
	UpdatedAt      time.Time `gorm:"" json:"updated_at"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
