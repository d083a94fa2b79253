package payment

import (
	"authpay/pkg/authorizer"
)

// Status 支付状态
type Status string

const (
	StatusProcessing Status = "processing" // 处理中，结果未知
	StatusApproved   Status = "approved"   // 授权方批准
	StatusDeclined   Status = "declined"   // 授权方拒绝（如余额不足）
	StatusFailed     Status = "failed"     // 授权流程无法完成（如授权方故障）
)

// IsTerminal 判断状态是否为终态
// 终态不允许再次迁移
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusFailed:
		return true
	case StatusProcessing:
		return false
	default:
		return false
	}
}

// CanTransitionTo 判断当前状态能否迁移到目标状态
// 唯一合法的迁移是 processing 到任一终态
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusProcessing {
		return false
	}
	return target.IsTerminal()
}

// StatusForOutcome 将授权结果映射为终态
// 新增 Outcome 时此处的穷举 switch 会强制回访
func StatusForOutcome(outcome authorizer.Outcome) Status {
	switch outcome {
	case authorizer.OutcomeApproved:
		return StatusApproved
	case authorizer.OutcomeDeclined:
		return StatusDeclined
	case authorizer.OutcomeFailure:
		return StatusFailed
	default:
		return StatusFailed
	}
}

// IsProcessing 检查支付是否处理中
func (p *Payment) IsProcessing() bool {
	return p.Status == string(StatusProcessing)
}

// IsApproved 检查支付是否已批准
// 只有已批准的支付才允许退款
func (p *Payment) IsApproved() bool {
	return p.Status == string(StatusApproved)
}
