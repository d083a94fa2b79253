package requests

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"
)

// cardIdentifierRegex 卡标识格式：15 位数字
var cardIdentifierRegex = regexp.MustCompile(`^\d{15}$`)

// PaymentRequest 创建支付请求
type PaymentRequest struct {
	Amount         int64  `json:"amount" valid:"amount"`
	CardIdentifier string `json:"card_identifier" valid:"card_identifier"`
}

// ValidatePayment 验证创建支付请求
func ValidatePayment(c *gin.Context) (*PaymentRequest, error) {
	var req PaymentRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"amount":          []string{"required"},
		"card_identifier": []string{"required"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"amount": []string{
			"required:金额不能为空",
		},
		"card_identifier": []string{
			"required:卡标识不能为空",
		},
	}

	if err := ValidateStruct(&req, rules, messages); err != nil {
		return nil, err
	}

	// 4. 额外的业务校验
	if req.Amount <= 0 {
		return nil, fmt.Errorf("金额必须为正整数（最小货币单位）")
	}
	if !cardIdentifierRegex.MatchString(req.CardIdentifier) {
		return nil, fmt.Errorf("无效的卡标识格式，应为 15 位数字")
	}

	return &req, nil
}
