package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tx-monitor/internal/models"

	"github.com/google/uuid"
)

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, transaction *models.Transaction) error {
	args := m.Called(ctx, tx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepo) MarkFraud(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepo) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) ListFraudulent(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) ListUnclassified(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) AggregateRevenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepo) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardSummary), args.Error(1)
}

func (m *MockTransactionRepo) CreateFailedPaymentTx(ctx context.Context, tx pgx.Tx, payment *models.FailedPayment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockTransactionRepo) ListFailedPayments(ctx context.Context) ([]*models.FailedPayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FailedPayment), args.Error(1)
}

func (m *MockTransactionRepo) WebhookEventExistsTx(ctx context.Context, tx pgx.Tx, eventID string) (bool, error) {
	args := m.Called(ctx, tx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepo) CreateWebhookEventTx(ctx context.Context, tx pgx.Tx, eventID, eventType string) error {
	args := m.Called(ctx, tx, eventID, eventType)
	return args.Error(0)
}

type MockOperatorRepo struct {
	mock.Mock
}

func (m *MockOperatorRepo) CreateTx(ctx context.Context, tx pgx.Tx, operator *models.Operator) (*models.Operator, error) {
	args := m.Called(ctx, tx, operator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockOperatorRepo) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockOperatorRepo) ExistsByUsernameTx(ctx context.Context, tx pgx.Tx, username string) (bool, error) {
	args := m.Called(ctx, tx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepo) ExistsByEmailTx(ctx context.Context, tx pgx.Tx, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendAlert(ctx context.Context, body string) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}
