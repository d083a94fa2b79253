package requests

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonContext 构造携带 JSON 请求体的测试上下文
func jsonContext(t *testing.T, body string) *gin.Context {
	t.Helper()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	req, err := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c
}

func TestValidatePayment(t *testing.T) {
	req, err := ValidatePayment(jsonContext(t, `{"amount": 1000, "card_identifier": "123456789012345"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), req.Amount)
	assert.Equal(t, "123456789012345", req.CardIdentifier)
}

func TestValidatePaymentRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"空请求体", `{}`},
		{"非法 JSON", `{not json`},
		{"金额为零", `{"amount": 0, "card_identifier": "123456789012345"}`},
		{"金额为负", `{"amount": -100, "card_identifier": "123456789012345"}`},
		{"卡标识过短", `{"amount": 1000, "card_identifier": "12345678901234"}`},
		{"卡标识过长", `{"amount": 1000, "card_identifier": "1234567890123456"}`},
		{"卡标识含字母", `{"amount": 1000, "card_identifier": "12345678901234a"}`},
		{"缺少卡标识", `{"amount": 1000}`},
		{"缺少金额", `{"card_identifier": "123456789012345"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePayment(jsonContext(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestValidateRefund(t *testing.T) {
	req, err := ValidateRefund(jsonContext(t, `{"amount": 500}`))
	require.NoError(t, err)
	assert.Equal(t, int64(500), req.Amount)
}

func TestValidateRefundRejectsBadInput(t *testing.T) {
	_, err := ValidateRefund(jsonContext(t, `{}`))
	assert.Error(t, err)

	_, err = ValidateRefund(jsonContext(t, `not json`))
	assert.Error(t, err)
}
