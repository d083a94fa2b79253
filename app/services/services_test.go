package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"authpay/app/repositories"
	"authpay/pkg/authorizer"
	"authpay/pkg/database"
	"authpay/pkg/database/migrations"
	"authpay/pkg/logger"
	"authpay/pkg/queue"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "services-test-*")
	logger.InitLogger(filepath.Join(dir, "test.log"), 1, 1, 1, false, "single", "error")

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	database.Connect(sqlite.Open(dsn), logger.NewGormLogger())
	database.SQLDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(migrations.RegisterTables()))
}

// stubAuthorizer 受控的授权方替身，记录调用次数
type stubAuthorizer struct {
	outcome authorizer.Outcome
	err     error
	calls   atomic.Int64
}

func (s *stubAuthorizer) Authorize(ctx context.Context, amount int64, cardIdentifier string) (authorizer.Outcome, error) {
	s.calls.Add(1)
	return s.outcome, s.err
}

// failingEnqueuer 入队必定失败，驱动 Charge 走本地同步授权
type failingEnqueuer struct{}

func (f *failingEnqueuer) PushTask(ctx context.Context, task *queue.AuthorizeTask) error {
	return errors.New("queue backend down")
}

func newTestPaymentService(auth *stubAuthorizer) *PaymentService {
	return NewPaymentServiceWith(repositories.NewPaymentRepository(), auth, nil)
}
