package authorizer

import (
	"math/rand"
	"time"
)

// Policy 重试策略
// 以显式对象注入 Client，测试时可替换为零延迟策略
type Policy struct {
	MaxAttempts    int           // 最大尝试次数（含首次调用）
	BaseDelay      time.Duration // 首次重试的基础延迟
	MaxDelay       time.Duration // 单次退避的延迟上限
	JitterFraction float64       // 抖动比例，0.2 表示在 ±20% 范围内随机
	CallTimeout    time.Duration // 单次调用的超时时间
}

// DefaultPolicy 生产环境默认策略
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      200 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		JitterFraction: 0.2,
		CallTimeout:    5 * time.Second,
	}
}

// Backoff 计算第 attempt 次失败后的退避时长（attempt 从 1 开始）
// 指数增长，封顶 MaxDelay，并叠加随机抖动避免重试风暴
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	// 叠加抖动
	if p.JitterFraction > 0 {
		jitter := time.Duration((rand.Float64()*2 - 1) * p.JitterFraction * float64(delay))
		delay += jitter
	}

	if delay < 0 {
		return 0
	}
	return delay
}
