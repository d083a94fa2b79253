package migrations

import (
	"authpay/app/models/payment"
	"authpay/app/models/refund"
)

// RegisterTables 返回需要迁移的表的模型列表
func RegisterTables() []interface{} {
	return []interface{}{
		&payment.Payment{},
		&refund.Refund{},
	}
}
