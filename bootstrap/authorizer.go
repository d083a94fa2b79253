package bootstrap

import (
	"fmt"
	"net/url"

	"authpay/pkg/config"
	"authpay/pkg/logger"
)

// SetupAuthorizer 校验授权方配置
// 授权方客户端由支付编排服务按配置自行创建，
// 这里只在启动时把配置问题暴露出来，避免首笔扣款才发现地址缺失
func SetupAuthorizer() {
	endpoint := config.GetString("authorizer.url")
	if endpoint == "" {
		logger.ErrorString("Authorizer", "Config", "缺少必要的配置: AUTHORIZER_URL 未设置，所有扣款将落 failed")
		return
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		logger.ErrorString("Authorizer", "Config", "AUTHORIZER_URL 不是合法地址: "+err.Error())
		return
	}

	logger.InfoString("Authorizer", "Setup", fmt.Sprintf(
		"授权方客户端配置就绪 [url=%s, max_attempts=%d, timeout=%ds]",
		endpoint,
		config.GetInt("authorizer.max_attempts"),
		config.GetInt("authorizer.timeout"),
	))
}
