package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"authpay/pkg/config"
	"authpay/pkg/redis"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// AuthorizeTask 授权任务
// 保留（reserve）成功后入队，worker 负责调用授权方并落终态，
// 授权流程因此不依赖发起请求的调用方存活
type AuthorizeTask struct {
	ID             string     `json:"id"`
	PaymentID      string     `json:"payment_id"`
	Amount         int64      `json:"amount"`
	CardIdentifier string     `json:"card_identifier"`
	Status         TaskStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// QueueService Redis 队列服务
// 支持高并发操作和可靠的任务处理
type QueueService struct {
	client      *redis.RedisClient
	prefix      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	metrics     *QueueMetrics
}

// NewQueueService 创建新的队列服务实例
func NewQueueService() *QueueService {
	rateLimit := config.GetInt("queue.rate_limit", 1000)
	burst := config.GetInt("queue.rate_burst", rateLimit)

	return &QueueService{
		client:      redis.GetRedis(redis.QueueDB),
		prefix:      config.GetString("redis.queue_prefix", "authpay"),
		timeout:     time.Duration(config.GetInt("redis.queue_timeout", 3600)) * time.Second,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		metrics:     NewQueueMetrics(),
	}
}

// PushTask 将任务推送到队列
// 支持限流和监控指标收集
func (q *QueueService) PushTask(ctx context.Context, task *AuthorizeTask) error {
	// 应用限流
	if err := q.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 开始计时
	start := time.Now()
	defer func() {
		if q.metrics != nil {
			q.metrics.RecordPushLatency(time.Since(start))
		}
	}()

	// 序列化任务
	taskJSON, err := json.Marshal(task)
	if err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	// 使用管道确保任务与状态键一起写入
	key := fmt.Sprintf("%s:tasks", q.prefix)
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, task.ID)

	pipe := q.client.Client.Pipeline()
	pipe.LPush(ctx, key, taskJSON)
	pipe.Set(ctx, statusKey, string(TaskPending), q.timeout)

	_, err = pipe.Exec(ctx)
	if err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to push task: %w", err)
	}

	q.metrics.RecordSuccess(OpPush)
	return nil
}

// PopTask 从队列中获取任务
// 阻塞等待有上限，队列为空时返回 nil 任务
func (q *QueueService) PopTask(ctx context.Context, wait time.Duration) (*AuthorizeTask, error) {
	key := fmt.Sprintf("%s:tasks", q.prefix)
	result, err := q.client.Client.BRPop(ctx, wait, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil // 队列为空
		}
		q.metrics.RecordError(OpPop)
		return nil, fmt.Errorf("failed to pop task from queue: %w", err)
	}

	var task AuthorizeTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		q.metrics.RecordError(OpPop)
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	q.metrics.RecordSuccess(OpPop)
	return &task, nil
}

// UpdateTaskStatus 更新任务状态
func (q *QueueService) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error {
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, taskID)
	if err := q.client.Client.Set(ctx, statusKey, string(status), q.timeout).Err(); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// GetTaskStatus 获取任务状态
func (q *QueueService) GetTaskStatus(ctx context.Context, taskID string) (TaskStatus, error) {
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, taskID)
	status, err := q.client.Client.Get(ctx, statusKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil // 任务不存在
		}
		return "", fmt.Errorf("failed to get task status: %w", err)
	}
	return TaskStatus(status), nil
}

// Ping 检查队列后端连接
func (q *QueueService) Ping(ctx context.Context) error {
	return q.client.Client.Ping(ctx).Err()
}

// Metrics 获取队列指标收集器
func (q *QueueService) Metrics() *QueueMetrics {
	return q.metrics
}
