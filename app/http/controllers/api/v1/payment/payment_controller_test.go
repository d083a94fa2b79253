package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"authpay/app/repositories"
	"authpay/app/services"
	"authpay/pkg/authorizer"
	"authpay/pkg/database"
	"authpay/pkg/database/migrations"
	"authpay/pkg/logger"
	"authpay/pkg/response"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "controller-test-*")
	logger.InitLogger(filepath.Join(dir, "test.log"), 1, 1, 1, false, "single", "error")
	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// stubAuthorizer 固定结果的授权方替身
type stubAuthorizer struct {
	outcome authorizer.Outcome
}

func (s *stubAuthorizer) Authorize(ctx context.Context, amount int64, cardIdentifier string) (authorizer.Outcome, error) {
	return s.outcome, nil
}

// setupRouter 挂载支付路由，授权方由替身扮演，队列走本地同步授权
func setupRouter(t *testing.T, outcome authorizer.Outcome) *gin.Engine {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	database.Connect(sqlite.Open(dsn), logger.NewGormLogger())
	database.SQLDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(migrations.RegisterTables()))

	paymentService := services.NewPaymentServiceWith(
		repositories.NewPaymentRepository(),
		&stubAuthorizer{outcome: outcome},
		nil,
	)
	pc := &PaymentController{paymentService: paymentService}
	rc := &RefundController{refundService: services.NewRefundService()}

	router := gin.New()
	router.POST("/v1/payments", pc.Store)
	router.GET("/v1/payments/:id", pc.Show)
	router.POST("/v1/payments/:id/refunds", rc.Store)
	router.GET("/v1/payments/:id/refunds", rc.Index)
	router.GET("/v1/payments/:id/refunds/:refund_id", rc.Show)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "响应缺少 data 字段: %s", w.Body.String())
	return data
}

func TestCreatePayment(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	w := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := dataField(t, w)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, float64(1000), data["amount"])
	assert.Equal(t, "approved", data["status"])
}

func TestCreatePaymentIdempotent(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	first := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	firstData := dataField(t, first)

	// 重复提交返回 200 和既有支付，金额以首次为准
	second := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 9999, "card_identifier": "123456789012345"}`)
	require.Equal(t, http.StatusOK, second.Code)
	secondData := dataField(t, second)

	assert.Equal(t, firstData["id"], secondData["id"])
	assert.Equal(t, float64(1000), secondData["amount"])
}

func TestCreatePaymentValidation(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	cases := []string{
		`{"amount": 0, "card_identifier": "123456789012345"}`,
		`{"amount": 1000, "card_identifier": "123"}`,
		`{"amount": 1000}`,
		`not json`,
	}
	for _, body := range cases {
		w := doRequest(router, http.MethodPost, "/v1/payments", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
		assert.Equal(t, CodeValidationFailed, decodeResponse(t, w).Code)
	}
}

func TestShowPayment(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	created := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	id := dataField(t, created)["id"].(string)

	w := doRequest(router, http.MethodGet, "/v1/payments/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	data := dataField(t, w)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, float64(0), data["refunded_total"])
}

func TestShowPaymentNotFound(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	w := doRequest(router, http.MethodGet, "/v1/payments/no-such-id", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodePaymentNotFound, decodeResponse(t, w).Code)
}

func TestRefundFlow(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	created := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	id := dataField(t, created)["id"].(string)

	// 退 400 成功
	w := doRequest(router, http.MethodPost, "/v1/payments/"+id+"/refunds", `{"amount": 400}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(400), dataField(t, w)["amount"])

	// 超额退款 422
	w = doRequest(router, http.MethodPost, "/v1/payments/"+id+"/refunds", `{"amount": 700}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, services.CodeInsufficientBalance, decodeResponse(t, w).Code)

	// 支付详情包含累计退款
	w = doRequest(router, http.MethodGet, "/v1/payments/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(400), dataField(t, w)["refunded_total"])

	// 退款列表
	w = doRequest(router, http.MethodGet, "/v1/payments/"+id+"/refunds", "")
	require.Equal(t, http.StatusOK, w.Code)
	listData := dataField(t, w)
	assert.Equal(t, float64(400), listData["refunded_total"])
	refunds, ok := listData["refunds"].([]interface{})
	require.True(t, ok)
	assert.Len(t, refunds, 1)
}

func TestShowRefund(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	created := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	paymentID := dataField(t, created)["id"].(string)

	refund := doRequest(router, http.MethodPost, "/v1/payments/"+paymentID+"/refunds", `{"amount": 400}`)
	require.Equal(t, http.StatusCreated, refund.Code)
	refundID := dataField(t, refund)["id"].(string)

	w := doRequest(router, http.MethodGet, "/v1/payments/"+paymentID+"/refunds/"+refundID, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, refundID, data["id"])
	assert.Equal(t, paymentID, data["payment_id"])
	assert.Equal(t, float64(400), data["amount"])

	// 未知退款 404
	w = doRequest(router, http.MethodGet, "/v1/payments/"+paymentID+"/refunds/no-such-refund", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeRefundNotFound, decodeResponse(t, w).Code)
}

func TestRefundDeclinedPayment(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeDeclined)

	created := doRequest(router, http.MethodPost, "/v1/payments",
		`{"amount": 1000, "card_identifier": "123456789012345"}`)
	id := dataField(t, created)["id"].(string)

	// 被拒绝的支付不可退款
	w := doRequest(router, http.MethodPost, "/v1/payments/"+id+"/refunds", `{"amount": 100}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodePaymentNotApproved, decodeResponse(t, w).Code)
}

func TestRefundUnknownPayment(t *testing.T) {
	router := setupRouter(t, authorizer.OutcomeApproved)

	w := doRequest(router, http.MethodPost, "/v1/payments/no-such-id/refunds", `{"amount": 100}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodePaymentNotFound, decodeResponse(t, w).Code)
}
