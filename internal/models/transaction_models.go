package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tx-monitor/internal/custom_err"
)

// Transaction зафиксированная финансовая операция. После создания мутирует
// только флаг IsFraud (и только из false в true).
type Transaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Description     string          `json:"description" db:"description"`
	IsFraud         bool            `json:"is_fraud" db:"is_fraud"`
	CreatedAt       time.Time       `json:"timestamp" db:"created_at"`
}

// TransactionType типы операций
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// IsValid проверяет валидность типа операции
func (t TransactionType) IsValid() bool {
	return t == TypeCredit || t == TypeDebit
}

// CreateTransactionRequest запрос на создание транзакции через API.
// Поля объявлены указателями, чтобы отличать отсутствующее поле от нулевого.
type CreateTransactionRequest struct {
	Amount          *decimal.Decimal `json:"amount"`
	TransactionType *TransactionType `json:"transaction_type"`
	Description     *string          `json:"description"`
}

// Validate возвращает MissingFieldError для первого отсутствующего поля.
func (r *CreateTransactionRequest) Validate() error {
	if r.Amount == nil {
		return custom_err.NewMissingFieldError("amount")
	}
	if r.TransactionType == nil {
		return custom_err.NewMissingFieldError("transaction_type")
	}
	if r.Description == nil {
		return custom_err.NewMissingFieldError("description")
	}
	if r.Amount.IsNegative() {
		return custom_err.ErrInvalidAmount
	}
	if !r.TransactionType.IsValid() {
		return custom_err.ErrInvalidType
	}
	return nil
}

// FailedPayment неуспешная попытка оплаты от платежного шлюза.
// Не связывается с Transaction: событие шлюза не несет id транзакции.
type FailedPayment struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	ErrorMessage string          `json:"error_message" db:"error_message"`
	CustomerRef  *string         `json:"customer_ref,omitempty" db:"customer_ref"`
	Email        *string         `json:"email,omitempty" db:"email"`
	CreatedAt    time.Time       `json:"timestamp" db:"created_at"`
}

// DashboardSummary агрегаты для главной страницы дашборда
type DashboardSummary struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	FraudCount        int64           `json:"fraud_count"`
}
