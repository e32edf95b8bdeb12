package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	CreateTx(ctx context.Context, tx pgx.Tx, transaction *models.Transaction) error
	MarkFraud(ctx context.Context, id uuid.UUID) (bool, error)

	ListAll(ctx context.Context) ([]*models.Transaction, error)
	ListFraudulent(ctx context.Context) ([]*models.Transaction, error)
	ListUnclassified(ctx context.Context) ([]*models.Transaction, error)
	AggregateRevenue(ctx context.Context) (decimal.Decimal, error)
	GetSummary(ctx context.Context) (*models.DashboardSummary, error)

	CreateFailedPaymentTx(ctx context.Context, tx pgx.Tx, payment *models.FailedPayment) error
	ListFailedPayments(ctx context.Context) ([]*models.FailedPayment, error)

	WebhookEventExistsTx(ctx context.Context, tx pgx.Tx, eventID string) (bool, error)
	CreateWebhookEventTx(ctx context.Context, tx pgx.Tx, eventID, eventType string) error
}

type PgTransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &PgTransactionRepository{db: db}
}

func (r *PgTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	const op = "storage.Create"

	_, err := r.db.Exec(ctx, storage.CreateTransactionQuery,
		transaction.ID,
		transaction.Amount,
		transaction.TransactionType,
		transaction.Description,
		transaction.IsFraud,
		transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgTransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, transaction *models.Transaction) error {
	const op = "storage.CreateTx"

	_, err := tx.Exec(ctx, storage.CreateTransactionQuery,
		transaction.ID,
		transaction.Amount,
		transaction.TransactionType,
		transaction.Description,
		transaction.IsFraud,
		transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkFraud идемпотентно выставляет is_fraud=true. Возвращает true, если
// именно этот вызов выполнил переход false->true (тогда вызывающий шлет алерт).
func (r *PgTransactionRepository) MarkFraud(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "storage.MarkFraud"

	tag, err := r.db.Exec(ctx, storage.MarkTransactionFraudQuery, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, storage.TransactionExistsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return false, custom_err.ErrNotFound
	}
	return false, nil
}

func (r *PgTransactionRepository) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	return r.listTransactions(ctx, "storage.ListAll", storage.ListAllTransactionsQuery)
}

func (r *PgTransactionRepository) ListFraudulent(ctx context.Context) ([]*models.Transaction, error) {
	return r.listTransactions(ctx, "storage.ListFraudulent", storage.ListFraudulentTransactionsQuery)
}

func (r *PgTransactionRepository) ListUnclassified(ctx context.Context) ([]*models.Transaction, error) {
	return r.listTransactions(ctx, "storage.ListUnclassified", storage.ListUnclassifiedTransactionsQuery)
}

func (r *PgTransactionRepository) listTransactions(ctx context.Context, op, query string) ([]*models.Transaction, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID,
			&t.Amount,
			&t.TransactionType,
			&t.Description,
			&t.IsFraud,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

func (r *PgTransactionRepository) AggregateRevenue(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.AggregateRevenue"

	var revenue decimal.Decimal
	if err := r.db.QueryRow(ctx, storage.AggregateRevenueQuery).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return revenue, nil
}

func (r *PgTransactionRepository) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	const op = "storage.GetSummary"

	var summary models.DashboardSummary
	err := r.db.QueryRow(ctx, storage.DashboardSummaryQuery).Scan(
		&summary.TotalTransactions,
		&summary.FraudCount,
		&summary.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &summary, nil
}

func (r *PgTransactionRepository) CreateFailedPaymentTx(ctx context.Context, tx pgx.Tx, payment *models.FailedPayment) error {
	const op = "storage.CreateFailedPaymentTx"

	_, err := tx.Exec(ctx, storage.CreateFailedPaymentQuery,
		payment.ID,
		payment.Amount,
		payment.ErrorMessage,
		payment.CustomerRef,
		payment.Email,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgTransactionRepository) ListFailedPayments(ctx context.Context) ([]*models.FailedPayment, error) {
	const op = "storage.ListFailedPayments"

	rows, err := r.db.Query(ctx, storage.ListFailedPaymentsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var payments []*models.FailedPayment
	for rows.Next() {
		var p models.FailedPayment
		err := rows.Scan(
			&p.ID,
			&p.Amount,
			&p.ErrorMessage,
			&p.CustomerRef,
			&p.Email,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *PgTransactionRepository) WebhookEventExistsTx(ctx context.Context, tx pgx.Tx, eventID string) (bool, error) {
	const op = "storage.WebhookEventExistsTx"

	var exists bool
	if err := tx.QueryRow(ctx, storage.WebhookEventExistsQuery, eventID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *PgTransactionRepository) CreateWebhookEventTx(ctx context.Context, tx pgx.Tx, eventID, eventType string) error {
	const op = "storage.CreateWebhookEventTx"

	_, err := tx.Exec(ctx, storage.CreateWebhookEventQuery, eventID, eventType, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
