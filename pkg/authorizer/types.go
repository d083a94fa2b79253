package authorizer

import "errors"

// Outcome 授权调用的结果
// Approved / Declined 是授权方给出的明确业务结论，
// Failure 覆盖传输错误、超时和无法解析的响应
type Outcome string

const (
	OutcomeApproved Outcome = "approved" // 授权通过
	OutcomeDeclined Outcome = "declined" // 授权拒绝（如余额不足）
	OutcomeFailure  Outcome = "failure"  // 调用失败，无法得到结论
)

// 授权失败的分类错误
var (
	// ErrUnavailable 可重试类失败（超时、连接错误、5xx），重试额度耗尽后返回
	ErrUnavailable = errors.New("authorizer unavailable")

	// ErrInvalidRequest 不可重试类失败（4xx、响应格式错误），只尝试一次
	ErrInvalidRequest = errors.New("authorizer rejected request as invalid")
)

// decision 授权方返回的决定
const (
	decisionApproved = "approved"
	decisionDeclined = "declined"
)

// authorizeRequest 发往授权方的请求体
type authorizeRequest struct {
	Amount         int64  `json:"amount"`
	CardIdentifier string `json:"card_identifier"`
}

// authorizeResponse 授权方返回的响应体
type authorizeResponse struct {
	Decision string `json:"decision"`
}
