package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authpay/app/requests"
	"authpay/app/services"
	"authpay/pkg/response"
)

// RefundController 退款控制器
type RefundController struct {
	refundService *services.RefundService
}

// NewRefundController 创建退款控制器
func NewRefundController() *RefundController {
	return &RefundController{
		refundService: services.NewRefundService(),
	}
}

// Store 对一笔支付发起退款
func (rc *RefundController) Store(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.Abort400(c, "缺少支付 ID")
		return
	}

	// 1. 请求验证
	request, err := requests.ValidateRefund(c)
	if err != nil {
		response.AbortWithCode(c, http.StatusUnprocessableEntity, CodeValidationFailed, err.Error())
		return
	}

	// 2. 事务内校验并写入退款
	record, err := rc.refundService.Refund(c.Request.Context(), paymentID, request.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":         record.ID,
		"payment_id": record.PaymentID,
		"amount":     record.Amount,
	})
}

// Show 获取单条退款详情
func (rc *RefundController) Show(c *gin.Context) {
	paymentID := c.Param("id")
	refundID := c.Param("refund_id")
	if paymentID == "" || refundID == "" {
		response.Abort400(c, "缺少支付或退款 ID")
		return
	}

	record, err := rc.refundService.GetRefund(c.Request.Context(), paymentID, refundID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Data(c, gin.H{
		"id":         record.ID,
		"payment_id": record.PaymentID,
		"amount":     record.Amount,
		"created_at": record.CreatedAt,
	})
}

// Index 获取某笔支付的退款记录
func (rc *RefundController) Index(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.Abort400(c, "缺少支付 ID")
		return
	}

	records, total, err := rc.refundService.ListRefunds(c.Request.Context(), paymentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Data(c, gin.H{
		"payment_id":     paymentID,
		"refunds":        records,
		"refunded_total": total,
	})
}
