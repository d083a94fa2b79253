package repositories

import (
	"strings"
)

// maxConflictRetries 事务冲突的最大重试次数
// 只覆盖存储层自身的并发冲突，业务错误不重试
const maxConflictRetries = 3

// withConflictRetry 对存储层冲突做有限次数的透明重试
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = fn()
		if err == nil || !isRetriableConflict(err) {
			return err
		}
	}
	return err
}

// isRetriableConflict 判断是否为可重试的存储层冲突
// PostgreSQL 序列化失败/死锁，以及 SQLite 的写锁竞争
func isRetriableConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
