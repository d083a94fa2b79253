package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"
)

// RefundRequest 创建退款请求
// 目标支付由路由参数指定，请求体只携带金额
type RefundRequest struct {
	Amount int64 `json:"amount" valid:"amount"`
}

// ValidateRefund 验证创建退款请求
func ValidateRefund(c *gin.Context) (*RefundRequest, error) {
	var req RefundRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"amount": []string{"required"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"amount": []string{
			"required:金额不能为空",
		},
	}

	if err := ValidateStruct(&req, rules, messages); err != nil {
		return nil, err
	}

	// 金额的正负校验留给退款事务统一处理（INVALID_AMOUNT），
	// 这里只保证请求体完整
	return &req, nil
}
