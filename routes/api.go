package routes

import (
	"authpay/app/http/controllers/api/v1/payment"
	"authpay/app/http/middlewares"

	"github.com/gin-gonic/gin"
)

// 路由限流配置
const (
	// 🌍 全局限流：每小时每IP 30000 请求
	GlobalRateLimit = "30000-H"
	// 💳 创建支付限流：每小时每IP 600 请求
	CreatePaymentLimit = "600-H"
	// 💸 创建退款限流：每小时每IP 600 请求
	CreateRefundLimit = "600-H"
	// 🔍 查询限流：每分钟每IP 300 请求
	QueryLimit = "300-M"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.Recovery(),
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// 💳 支付相关路由
	paymentRoutes := v1.Group("/payments")
	{
		pc := payment.NewPaymentController()
		rc := payment.NewRefundController()

		// 📝 发起扣款（按卡标识幂等）
		// POST /v1/payments
		paymentRoutes.POST("",
			middlewares.LimitPerRoute(CreatePaymentLimit),
			pc.Store,
		)

		// 📊 查询支付详情（含累计退款金额）
		// GET /v1/payments/:id
		paymentRoutes.GET("/:id",
			middlewares.LimitPerRoute(QueryLimit),
			pc.Show,
		)

		// 💸 发起退款
		// POST /v1/payments/:id/refunds
		paymentRoutes.POST("/:id/refunds",
			middlewares.LimitPerRoute(CreateRefundLimit),
			rc.Store,
		)

		// 📑 查询退款记录
		// GET /v1/payments/:id/refunds
		paymentRoutes.GET("/:id/refunds",
			middlewares.LimitPerRoute(QueryLimit),
			rc.Index,
		)

		// 🔎 查询单条退款详情
		// GET /v1/payments/:id/refunds/:refund_id
		paymentRoutes.GET("/:id/refunds/:refund_id",
			middlewares.LimitPerRoute(QueryLimit),
			rc.Show,
		)

		// 💓 健康检查
		// GET /v1/health
		v1.GET("/health", pc.HealthCheck)
	}
}
