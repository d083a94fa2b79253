// Package authorizer 封装对外部支付授权方的调用
// 支持超时、重试和指数退避，区分可重试与不可重试的失败
package authorizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"authpay/pkg/logger"
)

// Client 授权方客户端
// 本身不做任何去重，幂等性由上游的保留步骤保证
type Client struct {
	client *resty.Client
	url    string
	policy Policy
}

// Config 授权方客户端配置
type Config struct {
	URL    string
	Policy Policy
}

// NewClient 创建授权方客户端
func NewClient(cfg Config) *Client {
	client := resty.New().
		SetTimeout(cfg.Policy.CallTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		url:    cfg.URL,
		policy: cfg.Policy,
	}
}

// Authorize 请求授权方对一笔扣款做出决定
// 返回明确的 Outcome；得不到结论时返回 OutcomeFailure 及分类错误：
// - ErrUnavailable：可重试失败在重试额度内始终未成功
// - ErrInvalidRequest：不可重试失败，只尝试一次
func (c *Client) Authorize(ctx context.Context, amount int64, cardIdentifier string) (Outcome, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		outcome, retriable, err := c.attempt(ctx, amount, cardIdentifier)
		if err == nil {
			return outcome, nil
		}

		if !retriable {
			// 调用方取消不是请求本身的问题，原样返回
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return OutcomeFailure, err
			}
			logger.WarnString("Authorizer", "Authorize",
				fmt.Sprintf("不可重试失败: %v", err))
			return OutcomeFailure, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}

		lastErr = err
		logger.WarnString("Authorizer", "Authorize",
			fmt.Sprintf("第 %d 次调用失败: %v", attempt, err))

		// 最后一次失败后不再等待
		if attempt == c.policy.MaxAttempts {
			break
		}
		// 退避期间被取消同样原样返回
		if err := c.sleep(ctx, c.policy.Backoff(attempt)); err != nil {
			return OutcomeFailure, err
		}
	}

	return OutcomeFailure, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// attempt 单次授权调用
// 返回值 retriable 标记该失败是否允许重试
func (c *Client) attempt(ctx context.Context, amount int64, cardIdentifier string) (outcome Outcome, retriable bool, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(authorizeRequest{
			Amount:         amount,
			CardIdentifier: cardIdentifier,
		}).
		Post(c.url)

	// 传输层错误（超时、连接重置等）可重试，
	// 调用方主动取消除外
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeFailure, false, ctx.Err()
		}
		return OutcomeFailure, true, err
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError:
		// 5xx 等同于授权方暂时不可用
		return OutcomeFailure, true, fmt.Errorf("authorizer returned %d", status)
	case status >= http.StatusBadRequest:
		// 4xx 表示请求本身有问题，重试没有意义
		return OutcomeFailure, false, fmt.Errorf("authorizer returned %d", status)
	}

	var decision authorizeResponse
	if err := json.Unmarshal(resp.Body(), &decision); err != nil {
		return OutcomeFailure, false, fmt.Errorf("malformed response: %w", err)
	}

	switch decision.Decision {
	case decisionApproved:
		return OutcomeApproved, false, nil
	case decisionDeclined:
		return OutcomeDeclined, false, nil
	default:
		return OutcomeFailure, false, fmt.Errorf("unknown decision %q", decision.Decision)
	}
}

// sleep 可被 context 打断的等待
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
