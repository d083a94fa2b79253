package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"authpay/pkg/logger"
)

// Processor 任务处理器
// 由服务层实现（授权 + 状态迁移），worker 只负责调度
type Processor interface {
	Process(ctx context.Context, task *AuthorizeTask) error
}

// Worker 队列工作器
type Worker struct {
	queueService *QueueService
	processor    Processor
	stopChan     chan struct{}
	workerCount  int
	metrics      *QueueMetrics
	wg           sync.WaitGroup
	config       WorkerConfig
}

// WorkerConfig 工作器配置
type WorkerConfig struct {
	WorkerCount     int           // 并发工作器数量
	TaskTimeout     time.Duration // 单个任务的处理超时
	PopWait         time.Duration // 队列为空时的阻塞等待上限
	ShutdownTimeout time.Duration // 关闭超时时间
}

// NewWorker 创建新的工作器组
func NewWorker(qs *QueueService, processor Processor, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 10 // 默认工作器数量
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 30 * time.Second
	}
	if config.PopWait <= 0 {
		config.PopWait = time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	return &Worker{
		queueService: qs,
		processor:    processor,
		stopChan:     make(chan struct{}),
		workerCount:  config.WorkerCount,
		metrics:      qs.Metrics(),
		config:       config,
	}
}

// Start 启动工作器组
func (w *Worker) Start() {
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.startWorker(i)
	}
}

// Stop 停止工作器组，等待在途任务完成
func (w *Worker) Stop() {
	close(w.stopChan)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.config.ShutdownTimeout):
		logger.WarnString("Worker", "Stop", "关闭超时，放弃等待在途任务")
	}
}

// startWorker 启动单个工作器
func (w *Worker) startWorker(id int) {
	defer w.wg.Done()

	logger.InfoString("Worker", "Start", fmt.Sprintf("Worker %d started", id))

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Worker", "Stop", fmt.Sprintf("Worker %d stopping", id))
			return
		default:
			if err := w.processNextTask(); err != nil {
				logger.ErrorString("Worker", "Process", fmt.Sprintf("Worker %d error: %v", id, err))
				time.Sleep(time.Second) // 错误恢复延迟
			}
		}
	}
}

// processNextTask 取出并处理下一个任务
// 任务上下文由 worker 自持，调用方断开不影响授权落终态
func (w *Worker) processNextTask() error {
	popCtx, cancelPop := context.WithTimeout(context.Background(), w.config.PopWait+redisPopGrace)
	defer cancelPop()

	task, err := w.queueService.PopTask(popCtx, w.config.PopWait)
	if err != nil {
		return err
	}
	if task == nil {
		return nil // 队列为空
	}

	start := time.Now()
	defer func() {
		w.metrics.RecordProcessLatency(time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.config.TaskTimeout)
	defer cancel()

	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskRunning); err != nil {
		logger.WarnString("Worker", "Status", err.Error())
	}

	if err := w.processor.Process(ctx, task); err != nil {
		w.metrics.RecordError(OpProcess)
		if statusErr := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskFailed); statusErr != nil {
			logger.WarnString("Worker", "Status", statusErr.Error())
		}
		return fmt.Errorf("process task %s: %w", task.ID, err)
	}

	w.metrics.RecordSuccess(OpProcess)
	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskCompleted); err != nil {
		logger.WarnString("Worker", "Status", err.Error())
	}
	return nil
}

// redisPopGrace BRPop 等待上限之外的网络余量
const redisPopGrace = 2 * time.Second
