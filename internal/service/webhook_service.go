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
	"tx-monitor/internal/webhook"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Webhooks interface {
	HandleCheckoutCompleted(ctx context.Context, event *webhook.Event) (*models.Transaction, error)
	HandlePaymentFailed(ctx context.Context, event *webhook.Event) (*models.FailedPayment, error)
}

// WebhookService сверка событий платежного шлюза с хранилищем.
// Шлюз доставляет события at-least-once, поэтому каждая мутация пишется
// в одной pgx-транзакции с записью event id в дедуп-леджер webhook_events.
type WebhookService struct {
	repo       postgres.TransactionRepository
	txManager  TxManager
	classifier Classifier
	notifier   notifier.Notifier
	log        *slog.Logger
}

func NewWebhookService(
	repo postgres.TransactionRepository,
	txManager TxManager,
	classifier Classifier,
	notifier notifier.Notifier,
	log *slog.Logger,
) *WebhookService {
	return &WebhookService{
		repo:       repo,
		txManager:  txManager,
		classifier: classifier,
		notifier:   notifier,
		log:        log,
	}
}

// HandleCheckoutCompleted создает credit-транзакцию по оплаченной checkout-сессии.
// Сумма шлюза в центах, храним в основных единицах без потери точности.
// Повторная доставка того же event id возвращает ErrDuplicateEvent без записи.
func (s *WebhookService) HandleCheckoutCompleted(ctx context.Context, event *webhook.Event) (*models.Transaction, error) {
	const op = "service.HandleCheckoutCompleted"

	session := event.Session
	if session == nil {
		return nil, custom_err.ErrInvalidPayload
	}

	createdAt := event.Created
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	transaction := &models.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.New(session.AmountTotal, -2),
		TransactionType: models.TypeCredit,
		Description:     fmt.Sprintf("Stripe payment (session %s)", session.ID),
		IsFraud:         false,
		CreatedAt:       createdAt,
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		exists, err := s.repo.WebhookEventExistsTx(ctx, tx, event.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to check event: %w", op, err)
		}
		if exists {
			return custom_err.ErrDuplicateEvent
		}

		if err := s.repo.CreateWebhookEventTx(ctx, tx, event.ID, event.Type); err != nil {
			return fmt.Errorf("%s: failed to record event: %w", op, err)
		}
		if err := s.repo.CreateTx(ctx, tx, transaction); err != nil {
			return fmt.Errorf("%s: failed to create transaction: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("платеж зафиксирован по webhook",
		slog.String("op", op),
		slog.String("event_id", event.ID),
		slog.String("transaction_id", transaction.ID.String()),
		slog.String("amount", transaction.Amount.StringFixed(2)))

	// Запись уже durable: классификация и алерты не влияют на ответ шлюзу
	classifyAndNotify(ctx, s.repo, s.classifier, s.notifier, s.log, transaction)

	if err := s.notifier.SendAlert(ctx, fmt.Sprintf(
		"✅ Payment received: $%s (session %s)",
		transaction.Amount.StringFixed(2), session.ID,
	)); err != nil {
		s.log.Error("не удалось отправить уведомление об оплате",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))
	}

	return transaction, nil
}

// HandlePaymentFailed пишет строку в леджер неуспешных платежей и шлет
// best-effort уведомление. Ошибка уведомления не мешает вернуть шлюзу 200.
func (s *WebhookService) HandlePaymentFailed(ctx context.Context, event *webhook.Event) (*models.FailedPayment, error) {
	const op = "service.HandlePaymentFailed"

	intent := event.Intent
	if intent == nil {
		return nil, custom_err.ErrInvalidPayload
	}

	errorMessage := intent.LastPaymentError.Message
	if errorMessage == "" {
		errorMessage = "unknown error"
	}

	payment := &models.FailedPayment{
		ID:           uuid.New(),
		Amount:       decimal.New(intent.Amount, -2),
		ErrorMessage: errorMessage,
		CreatedAt:    time.Now().UTC(),
	}
	if intent.Customer != "" {
		payment.CustomerRef = &intent.Customer
	}
	if intent.ReceiptEmail != "" {
		payment.Email = &intent.ReceiptEmail
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		exists, err := s.repo.WebhookEventExistsTx(ctx, tx, event.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to check event: %w", op, err)
		}
		if exists {
			return custom_err.ErrDuplicateEvent
		}

		if err := s.repo.CreateWebhookEventTx(ctx, tx, event.ID, event.Type); err != nil {
			return fmt.Errorf("%s: failed to record event: %w", op, err)
		}
		if err := s.repo.CreateFailedPaymentTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("%s: failed to create failed payment: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn("неуспешный платеж зафиксирован",
		slog.String("op", op),
		slog.String("event_id", event.ID),
		slog.String("amount", payment.Amount.StringFixed(2)),
		slog.String("reason", payment.ErrorMessage))

	if err := s.notifier.SendAlert(ctx, fmt.Sprintf(
		"❌ Payment failed: $%s (%s)",
		payment.Amount.StringFixed(2), payment.ErrorMessage,
	)); err != nil {
		s.log.Error("не удалось отправить уведомление о неуспешном платеже",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))
	}

	return payment, nil
}
