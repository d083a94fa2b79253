package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricOperation 定义指标操作类型
type MetricOperation string

const (
	OpPush    MetricOperation = "push"
	OpPop     MetricOperation = "pop"
	OpProcess MetricOperation = "process"
)

// LatencyStats 延迟统计
type LatencyStats struct {
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
	mu    sync.Mutex
}

// QueueMetrics 性能指标收集器
type QueueMetrics struct {
	totalTasks      atomic.Int64
	successfulTasks atomic.Int64
	failedTasks     atomic.Int64

	// 延迟统计
	pushLatency    *LatencyStats
	popLatency     *LatencyStats
	processLatency *LatencyStats
}

// NewQueueMetrics 创建新的指标收集器
func NewQueueMetrics() *QueueMetrics {
	return &QueueMetrics{
		pushLatency:    &LatencyStats{},
		popLatency:     &LatencyStats{},
		processLatency: &LatencyStats{},
	}
}

// RecordSuccess 记录成功操作
func (m *QueueMetrics) RecordSuccess(op MetricOperation) {
	m.successfulTasks.Add(1)
	m.totalTasks.Add(1)
}

// RecordError 记录失败操作
func (m *QueueMetrics) RecordError(op MetricOperation) {
	m.failedTasks.Add(1)
	m.totalTasks.Add(1)
}

// RecordPushLatency 记录推送延迟
func (m *QueueMetrics) RecordPushLatency(d time.Duration) {
	m.pushLatency.record(d)
}

// RecordPopLatency 记录获取延迟
func (m *QueueMetrics) RecordPopLatency(d time.Duration) {
	m.popLatency.record(d)
}

// RecordProcessLatency 记录处理延迟
func (m *QueueMetrics) RecordProcessLatency(d time.Duration) {
	m.processLatency.record(d)
}

// TotalTasks 累计任务数
func (m *QueueMetrics) TotalTasks() int64 {
	return m.totalTasks.Load()
}

// FailedTasks 累计失败任务数
func (m *QueueMetrics) FailedTasks() int64 {
	return m.failedTasks.Load()
}

// record 记录延迟数据
func (s *LatencyStats) record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.total += d

	// 更新最小值
	if s.min == 0 || d < s.min {
		s.min = d
	}

	// 更新最大值
	if d > s.max {
		s.max = d
	}
}
