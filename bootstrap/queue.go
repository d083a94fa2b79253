package bootstrap

import (
	"time"

	"authpay/app/services"
	"authpay/pkg/config"
	"authpay/pkg/logger"
	"authpay/pkg/queue"
	"authpay/pkg/redis"
)

// worker 全局工作器组，供优雅关闭使用
var worker *queue.Worker

// SetupQueue 初始化授权任务队列与工作器组
// worker 持有自己的上下文处理授权任务，
// 发起扣款的调用方断开连接不影响支付落终态
func SetupQueue() {
	if redis.Manager == nil {
		logger.ErrorString("Queue", "Setup", "Redis manager not initialized")
		return
	}

	queueService := queue.NewQueueService()

	// 授权编排服务作为任务处理器
	paymentService := services.NewPaymentService()

	worker = queue.NewWorker(queueService, paymentService, queue.WorkerConfig{
		WorkerCount:     config.GetInt("queue.worker_count", 10),
		TaskTimeout:     time.Duration(config.GetInt("queue.task_timeout", 30)) * time.Second,
		PopWait:         time.Second,
		ShutdownTimeout: 30 * time.Second,
	})

	worker.Start()

	logger.InfoString("Queue", "Setup", "队列服务启动成功")
}

// StopQueue 停止工作器组，等待在途授权任务完成
func StopQueue() {
	if worker != nil {
		worker.Stop()
	}
}
