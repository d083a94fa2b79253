package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"authpay/app/models/payment"
	"authpay/app/repositories"
	"authpay/pkg/authorizer"
	"authpay/pkg/config"
	"authpay/pkg/logger"
	"authpay/pkg/queue"
)

// cardIdentifierPattern 卡标识格式：15 位数字
var cardIdentifierPattern = regexp.MustCompile(`^\d{15}$`)

// Authorizer 授权方调用接口，测试时可替换
type Authorizer interface {
	Authorize(ctx context.Context, amount int64, cardIdentifier string) (authorizer.Outcome, error)
}

// Enqueuer 授权任务入队接口
type Enqueuer interface {
	PushTask(ctx context.Context, task *queue.AuthorizeTask) error
}

// PaymentService 支付编排服务
// 只做顺序编排与错误翻译，不持有任何状态：
// 扣款 = 占卡（幂等保护）-> 入队 -> worker 调用授权方 -> 状态迁移落库
type PaymentService struct {
	payments   *repositories.PaymentRepository
	authorizer Authorizer
	queue      Enqueuer
}

// NewPaymentService 根据配置创建支付编排服务
func NewPaymentService() *PaymentService {
	client := authorizer.NewClient(authorizer.Config{
		URL: config.GetString("authorizer.url"),
		Policy: authorizer.Policy{
			MaxAttempts:    config.GetInt("authorizer.max_attempts", 3),
			BaseDelay:      time.Duration(config.GetInt("authorizer.base_delay_ms", 200)) * time.Millisecond,
			MaxDelay:       time.Duration(config.GetInt("authorizer.max_delay_ms", 2000)) * time.Millisecond,
			JitterFraction: config.GetFloat64("authorizer.jitter_fraction", 0.2),
			CallTimeout:    time.Duration(config.GetInt("authorizer.timeout", 5)) * time.Second,
		},
	})

	return &PaymentService{
		payments:   repositories.NewPaymentRepository(),
		authorizer: client,
		queue:      queue.NewQueueService(),
	}
}

// NewPaymentServiceWith 以显式依赖创建支付编排服务
// queue 传 nil 时授权在本地同步完成（测试以及队列不可用时的降级路径）
func NewPaymentServiceWith(payments *repositories.PaymentRepository, auth Authorizer, enqueuer Enqueuer) *PaymentService {
	return &PaymentService{
		payments:   payments,
		authorizer: auth,
		queue:      enqueuer,
	}
}

// Charge 处理一笔扣款请求
// 金额和卡标识在这里校验，非法输入不触碰存储也不触碰授权方；
// 占卡成功后才允许进入授权流程；幂等命中时直接返回既有支付（created 为 false），
// 不创建重复记录，也绝不重复授权
func (s *PaymentService) Charge(ctx context.Context, amount int64, cardIdentifier string) (*payment.Payment, bool, error) {
	if amount <= 0 {
		return nil, false, NewError(CodeInvalidAmount, repositories.ErrInvalidAmount)
	}
	if !cardIdentifierPattern.MatchString(cardIdentifier) {
		return nil, false, NewError(CodeInvalidCard, errors.New("card identifier must be 15 digits"))
	}

	record, created, err := s.payments.Reserve(ctx, amount, cardIdentifier)
	if err != nil {
		return nil, false, translateError(fmt.Errorf("reserve card: %w", err))
	}

	// 幂等命中：返回既有支付的当前状态
	if !created {
		logger.InfoString("Payment", "Charge",
			fmt.Sprintf("幂等命中 card=%s payment=%s status=%s", cardIdentifier, record.ID, record.Status))
		return record, false, nil
	}

	task := &queue.AuthorizeTask{
		ID:             uuid.New().String(),
		PaymentID:      record.ID,
		Amount:         amount,
		CardIdentifier: cardIdentifier,
		Status:         queue.TaskPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if s.queue != nil {
		if err := s.queue.PushTask(ctx, task); err == nil {
			return record, true, nil
		} else {
			logger.ErrorString("Payment", "Charge", "授权任务入队失败，转本地同步授权: "+err.Error())
		}
	}

	// 队列不可用时就地完成授权，切断与调用方上下文的关联，
	// 调用方断开不会把支付卡死在 processing
	finished, err := s.FinalizeAuthorization(context.WithoutCancel(ctx), task)
	if err != nil {
		return record, true, err
	}
	return finished, true, nil
}

// FinalizeAuthorization 调用授权方并将结果落为终态
// worker 的任务处理入口；重试耗尽或不可重试的失败统一落 failed，
// 状态迁移由仓库层的条件更新保证原子性与不可覆盖
func (s *PaymentService) FinalizeAuthorization(ctx context.Context, task *queue.AuthorizeTask) (*payment.Payment, error) {
	outcome, err := s.authorizer.Authorize(ctx, task.Amount, task.CardIdentifier)
	if err != nil {
		logger.WarnString("Payment", "Authorize",
			fmt.Sprintf("payment=%s 授权未得出结论: %v", task.PaymentID, err))
	}

	target := payment.StatusForOutcome(outcome)
	record, finishErr := s.payments.FinishProcessing(ctx, task.PaymentID, target)
	if finishErr != nil {
		return nil, translateError(fmt.Errorf("finish payment %s: %w", task.PaymentID, finishErr))
	}

	logger.InfoString("Payment", "Finalize",
		fmt.Sprintf("payment=%s outcome=%s status=%s", task.PaymentID, outcome, record.Status))
	return record, nil
}

// Process 实现 queue.Processor
func (s *PaymentService) Process(ctx context.Context, task *queue.AuthorizeTask) error {
	_, err := s.FinalizeAuthorization(ctx, task)
	return err
}

// GetPayment 获取支付记录及累计退款金额
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*payment.Payment, int64, error) {
	record, refunded, err := s.payments.GetWithRefundedTotal(ctx, id)
	if err != nil {
		return nil, 0, translateError(err)
	}
	return record, refunded, nil
}
