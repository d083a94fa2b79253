package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authpay/app/requests"
	"authpay/app/services"
	"authpay/pkg/queue"
	"authpay/pkg/response"
)

// CodeValidationFailed 请求体未通过验证时的错误码
const CodeValidationFailed = "VALIDATION_FAILED"

// PaymentController 支付控制器
type PaymentController struct {
	paymentService *services.PaymentService
	queueService   *queue.QueueService
}

// NewPaymentController 创建支付控制器
func NewPaymentController() *PaymentController {
	return &PaymentController{
		paymentService: services.NewPaymentService(),
		queueService:   queue.NewQueueService(),
	}
}

// Store 处理扣款请求
// 同一张卡重复提交不报错，返回既有支付的当前状态（幂等）
func (pc *PaymentController) Store(c *gin.Context) {
	// 1. 请求验证
	request, err := requests.ValidatePayment(c)
	if err != nil {
		response.AbortWithCode(c, http.StatusUnprocessableEntity, CodeValidationFailed, err.Error())
		return
	}

	// 2. 执行扣款编排
	record, created, err := pc.paymentService.Charge(c.Request.Context(), request.Amount, request.CardIdentifier)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data := gin.H{
		"id":              record.ID,
		"amount":          record.Amount,
		"card_identifier": record.CardIdentifier,
		"status":          record.Status,
	}

	// 3. 新建返回 201，幂等命中返回 200
	if created {
		response.Created(c, data)
		return
	}
	response.Data(c, data)
}

// Show 获取支付详情
func (pc *PaymentController) Show(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Abort400(c, "缺少支付 ID")
		return
	}

	record, refundedTotal, err := pc.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Data(c, gin.H{
		"id":              record.ID,
		"amount":          record.Amount,
		"card_identifier": record.CardIdentifier,
		"status":          record.Status,
		"refunded_total":  refundedTotal,
	})
}

// HealthCheck 健康检查端点
func (pc *PaymentController) HealthCheck(c *gin.Context) {
	// 检查队列后端连接
	if err := pc.queueService.Ping(c.Request.Context()); err != nil {
		response.Abort500(c, "Queue service unavailable")
		return
	}

	response.Data(c, gin.H{
		"status": "ok",
	})
}

// respondServiceError 将服务层错误码映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	code := services.ErrorCode(err)
	switch code {
	case services.CodePaymentNotFound:
		response.AbortWithCode(c, http.StatusNotFound, code, "支付记录不存在")
	case services.CodePaymentNotApproved:
		response.AbortWithCode(c, http.StatusNotFound, code, "支付未批准，不允许退款")
	case services.CodeRefundNotFound:
		response.AbortWithCode(c, http.StatusNotFound, code, "退款记录不存在")
	case services.CodeInsufficientBalance:
		response.AbortWithCode(c, http.StatusUnprocessableEntity, code, "退款金额超过剩余可退余额")
	case services.CodeInvalidAmount:
		response.AbortWithCode(c, http.StatusUnprocessableEntity, code, "金额必须为正整数")
	case services.CodeInvalidCard:
		response.AbortWithCode(c, http.StatusUnprocessableEntity, code, "无效的卡标识格式，应为 15 位数字")
	default:
		response.ServerError(c, err)
	}
}
