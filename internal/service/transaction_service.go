package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/notifier"
	"tx-monitor/internal/storage/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transactions interface {
	Create(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error)
	IngestStream(ctx context.Context, msg models.StreamTransaction) (*models.Transaction, error)

	ListAll(ctx context.Context) ([]*models.Transaction, error)
	ListFraudulent(ctx context.Context) ([]*models.Transaction, error)
	ListFailedPayments(ctx context.Context) ([]*models.FailedPayment, error)
	Summary(ctx context.Context) (*models.DashboardSummary, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

type TransactionService struct {
	repo       postgres.TransactionRepository
	classifier Classifier
	notifier   notifier.Notifier
	log        *slog.Logger
}

func NewTransactionService(
	repo postgres.TransactionRepository,
	classifier Classifier,
	notifier notifier.Notifier,
	log *slog.Logger,
) *TransactionService {
	return &TransactionService{
		repo:       repo,
		classifier: classifier,
		notifier:   notifier,
		log:        log,
	}
}

// Create канонический путь ingest для API-адаптера: валидация, запись,
// синхронная классификация и best-effort алерт. Ошибка нотификации никогда
// не доходит до клиента: запись к этому моменту уже durable.
func (s *TransactionService) Create(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error) {
	const op = "service.Create"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ID:              uuid.New(),
		Amount:          *req.Amount,
		TransactionType: *req.TransactionType,
		Description:     *req.Description,
		IsFraud:         false,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("%s: failed to create transaction: %w", op, err)
	}

	s.log.Info("транзакция сохранена",
		slog.String("op", op),
		slog.String("transaction_id", transaction.ID.String()),
		slog.String("amount", transaction.Amount.StringFixed(2)),
		slog.String("type", string(transaction.TransactionType)))

	classifyAndNotify(ctx, s.repo, s.classifier, s.notifier, s.log, transaction)

	return transaction, nil
}

// IngestStream записывает сообщение стрима как debit-операцию.
// Классификация здесь не выполняется: сырые вставки подбирает FraudSweeper.
// Ошибка записи возвращается наверх, чтобы consumer не коммитил offset.
func (s *TransactionService) IngestStream(ctx context.Context, msg models.StreamTransaction) (*models.Transaction, error) {
	const op = "service.IngestStream"

	if msg.Amount.IsNegative() {
		return nil, custom_err.ErrInvalidAmount
	}

	transaction := &models.Transaction{
		ID:              uuid.New(),
		Amount:          msg.Amount,
		TransactionType: models.TypeDebit,
		Description:     msg.Description,
		IsFraud:         false,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("%s: failed to create transaction: %w", op, err)
	}

	s.log.Info("stream-транзакция сохранена",
		slog.String("op", op),
		slog.String("transaction_id", transaction.ID.String()),
		slog.String("amount", transaction.Amount.StringFixed(2)),
		slog.String("merchant", msg.Merchant),
		slog.String("user_id", msg.UserID))

	return transaction, nil
}

func (s *TransactionService) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	const op = "service.ListAll"

	transactions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, nil
}

func (s *TransactionService) ListFraudulent(ctx context.Context) ([]*models.Transaction, error) {
	const op = "service.ListFraudulent"

	transactions, err := s.repo.ListFraudulent(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, nil
}

func (s *TransactionService) ListFailedPayments(ctx context.Context) ([]*models.FailedPayment, error) {
	const op = "service.ListFailedPayments"

	payments, err := s.repo.ListFailedPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// Revenue суммирует amount по всем транзакциям. Пустое хранилище дает ноль,
// а не NULL: COALESCE в запросе.
func (s *TransactionService) Revenue(ctx context.Context) (decimal.Decimal, error) {
	const op = "service.Revenue"

	revenue, err := s.repo.AggregateRevenue(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return revenue, nil
}

func (s *TransactionService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	const op = "service.Summary"

	summary, err := s.repo.GetSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

// classifyAndNotify общий шаг пайплайна: классификация, CAS-пометка и алерт.
// Алерт уходит ровно один раз на переход false->true: проигравший гонку
// вызов получает flagged=false и молчит.
func classifyAndNotify(
	ctx context.Context,
	repo postgres.TransactionRepository,
	classifier Classifier,
	alerts notifier.Notifier,
	log *slog.Logger,
	transaction *models.Transaction,
) bool {
	if !classifier.Classify(transaction) {
		return false
	}

	flagged, err := repo.MarkFraud(ctx, transaction.ID)
	if err != nil {
		log.Error("не удалось пометить транзакцию как фрод",
			slog.String("transaction_id", transaction.ID.String()),
			slog.String("error", err.Error()))
		return false
	}
	if !flagged {
		return false
	}
	transaction.IsFraud = true

	log.Warn("транзакция помечена как фрод",
		slog.String("transaction_id", transaction.ID.String()),
		slog.String("amount", transaction.Amount.StringFixed(2)))

	if err := alerts.SendAlert(ctx, buildFraudAlert(transaction)); err != nil {
		log.Error("не удалось отправить фрод-алерт",
			slog.String("transaction_id", transaction.ID.String()),
			slog.String("error", err.Error()))
	}

	return true
}

func buildFraudAlert(transaction *models.Transaction) string {
	return fmt.Sprintf(
		"🚨 Fraud Detected!\nTX ID: %s\nType: %s\nAmount: $%s\nDescription: %s\nTime: %s",
		transaction.ID.String(),
		transaction.TransactionType,
		transaction.Amount.StringFixed(2),
		transaction.Description,
		transaction.CreatedAt.Format("2006-01-02 15:04:05"),
	)
}
