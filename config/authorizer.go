package config

import (
	"authpay/pkg/config"
)

func init() {
	config.Add("authorizer", func() map[string]interface{} {
		return map[string]interface{}{
			// 授权方扣款接口地址
			"url": config.Env("AUTHORIZER_URL", ""),

			// 单次调用超时，单位：秒
			"timeout": config.Env("AUTHORIZER_TIMEOUT", 5),

			/* ------------------ 重试策略 ------------------ */
			// 含首次调用在内的最大尝试次数
			"max_attempts": config.Env("AUTHORIZER_MAX_ATTEMPTS", 3),

			// 指数退避的首次间隔与上限，单位：毫秒
			"base_delay_ms": config.Env("AUTHORIZER_BASE_DELAY_MS", 200),
			"max_delay_ms":  config.Env("AUTHORIZER_MAX_DELAY_MS", 2000),

			// 抖动比例，0.2 表示每次退避在 ±20% 内随机浮动
			"jitter_fraction": config.Env("AUTHORIZER_JITTER_FRACTION", 0.2),
		}
	})
}
