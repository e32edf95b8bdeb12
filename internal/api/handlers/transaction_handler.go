package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tx-monitor/internal/api/middlew"
	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/service"
	"tx-monitor/pkg/response"
)

type TransactionHandler struct {
	service service.Transactions
}

func NewTransactionHandler(service service.Transactions) *TransactionHandler {
	return &TransactionHandler{
		service: service,
	}
}

// Create godoc
// @Summary      Создать транзакцию
// @Description  Записывает транзакцию, синхронно классифицирует и при фроде шлет SMS-алерт
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.CreateTransactionRequest true "Данные транзакции"
// @Success      201 {object} models.Transaction
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Router       /transactions [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateTransaction"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	transaction, err := h.service.Create(r.Context(), req)
	if err != nil {
		var missingField *custom_err.MissingFieldError
		switch {
		case errors.As(err, &missingField):
			log.Warn("missing field", slog.String("op", op), slog.String("field", missingField.Field))
			response.WriteJSONError(w, log, http.StatusBadRequest, missingField.Error(), "")
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("invalid amount", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_amount", "Amount must not be negative")
		case errors.Is(err, custom_err.ErrInvalidType):
			log.Warn("invalid transaction type", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_type", "Transaction type must be credit or debit")
		default:
			log.Error("failed to create transaction", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusCreated, transaction)
}

// List godoc
// @Summary      Список всех транзакций
// @Description  Возвращает все транзакции в порядке создания
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} models.Transaction
// @Failure      401 {object} response.ErrorResponse
// @Router       /transactions [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ListTransactions"
	log := middlew.GetLogger(r.Context())

	transactions, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error("failed to list transactions", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve transactions")
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, transactions)
}

// FraudAlerts godoc
// @Summary      Список фродовых транзакций
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} models.Transaction
// @Failure      401 {object} response.ErrorResponse
// @Router       /transactions/fraud [get]
func (h *TransactionHandler) FraudAlerts(w http.ResponseWriter, r *http.Request) {
	const op = "handler.FraudAlerts"
	log := middlew.GetLogger(r.Context())

	transactions, err := h.service.ListFraudulent(r.Context())
	if err != nil {
		log.Error("failed to list fraud alerts", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve fraud alerts")
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, transactions)
}

// FailedPayments godoc
// @Summary      Список неуспешных платежей
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} models.FailedPayment
// @Failure      401 {object} response.ErrorResponse
// @Router       /failed-payments [get]
func (h *TransactionHandler) FailedPayments(w http.ResponseWriter, r *http.Request) {
	const op = "handler.FailedPayments"
	log := middlew.GetLogger(r.Context())

	payments, err := h.service.ListFailedPayments(r.Context())
	if err != nil {
		log.Error("failed to list failed payments", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve failed payments")
		return
	}
	if payments == nil {
		payments = []*models.FailedPayment{}
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, payments)
}

// Dashboard godoc
// @Summary      Сводка по транзакциям
// @Description  Количество транзакций, суммарная выручка и число фрод-алертов
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} models.DashboardSummary
// @Failure      401 {object} response.ErrorResponse
// @Router       /dashboard [get]
func (h *TransactionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Dashboard"
	log := middlew.GetLogger(r.Context())

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		log.Error("failed to get summary", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve summary")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, summary)
}
