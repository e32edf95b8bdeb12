package service

import (
	"strings"
	"tx-monitor/internal/models"

	"github.com/shopspring/decimal"
)

// Classifier решает, помечать ли транзакцию как подозрительную.
// Реализация должна быть чистой функцией, вызываемой конкурентно без блокировок.
type Classifier interface {
	Classify(transaction *models.Transaction) bool
}

// ThresholdClassifier реализует пороговые правила:
// сумма строго выше порога или подстрока "suspicious" в описании.
type ThresholdClassifier struct {
	threshold decimal.Decimal
}

func NewThresholdClassifier(threshold decimal.Decimal) *ThresholdClassifier {
	return &ThresholdClassifier{threshold: threshold}
}

func (c *ThresholdClassifier) Classify(transaction *models.Transaction) bool {
	if transaction.Amount.GreaterThan(c.threshold) {
		return true
	}
	return strings.Contains(strings.ToLower(transaction.Description), "suspicious")
}
