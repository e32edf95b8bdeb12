package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"tx-monitor/internal/api/middlew"
	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/service"
	"tx-monitor/internal/webhook"
	"tx-monitor/pkg/response"
)

const maxWebhookBodySize = 64 * 1024

// PayloadVerifier проверяет подлинность сырого тела вебхука
type PayloadVerifier interface {
	Verify(payload []byte, sigHeader string) error
}

type WebhookHandler struct {
	verifier PayloadVerifier
	service  service.Webhooks
}

func NewWebhookHandler(verifier PayloadVerifier, service service.Webhooks) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		service:  service,
	}
}

// HandleStripe godoc
// @Summary      Webhook платежного шлюза
// @Description  Принимает события Stripe; подпись проверяется до парсинга тела
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	const op = "handler.HandleStripe"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		log.Warn("failed to read webhook body", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return
	}

	// Проверка подписи строго до парсинга: непроверенное тело не разбираем
	if err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature")); err != nil {
		log.Warn("webhook signature verification failed", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_signature", "Signature verification failed")
		return
	}

	event, err := webhook.ParseEvent(payload)
	if err != nil {
		log.Warn("invalid webhook payload", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_payload", "Invalid event payload")
		return
	}

	switch event.Type {
	case webhook.TypeCheckoutCompleted:
		h.handleCheckoutCompleted(w, r, log, event)

	case webhook.TypePaymentFailed:
		h.handlePaymentFailed(w, r, log, event)

	default:
		// Неизвестные типы событий подтверждаем, иначе шлюз будет ретраить
		log.Info("webhook event ignored",
			slog.String("op", op),
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
		response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, log *slog.Logger, event *webhook.Event) {
	const op = "handler.handleCheckoutCompleted"

	if event.Session.PaymentStatus != "paid" {
		log.Info("checkout session not paid, ignored",
			slog.String("op", op),
			slog.String("event_id", event.ID),
			slog.String("payment_status", event.Session.PaymentStatus))
		response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	transaction, err := h.service.HandleCheckoutCompleted(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrDuplicateEvent):
			log.Info("duplicate webhook event", slog.String("op", op), slog.String("event_id", event.ID))
			response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "already_processed"})
		default:
			// 500 сигнализирует шлюзу повторить доставку
			log.Error("failed to persist payment", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to persist payment")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{
		"status":         "processed",
		"transaction_id": transaction.ID.String(),
	})
}

func (h *WebhookHandler) handlePaymentFailed(w http.ResponseWriter, r *http.Request, log *slog.Logger, event *webhook.Event) {
	const op = "handler.handlePaymentFailed"

	_, err := h.service.HandlePaymentFailed(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrDuplicateEvent):
			log.Info("duplicate webhook event", slog.String("op", op), slog.String("event_id", event.ID))
			response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "already_processed"})
		default:
			log.Error("failed to record failed payment", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to record failed payment")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "recorded"})
}
