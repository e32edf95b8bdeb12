package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tx-monitor/internal/models"
)

func TestThresholdClassifier_Classify(t *testing.T) {
	classifier := NewThresholdClassifier(decimal.NewFromInt(1000))

	tests := []struct {
		name        string
		amount      string
		description string
		want        bool
	}{
		{"amount above threshold", "1500.00", "grocery store", true},
		{"amount above threshold with clean description", "1000.01", "rent payment", true},
		{"amount exactly at threshold", "1000.00", "rent payment", false},
		{"amount below threshold", "999.99", "coffee", false},
		{"suspicious keyword lowercase", "10.00", "suspicious transfer", true},
		{"suspicious keyword uppercase", "10.00", "SUSPICIOUS transfer", true},
		{"suspicious keyword mixed case", "10.00", "Suspicious activity detected", true},
		{"keyword inside a word", "10.00", "unsuspiciously normal", true},
		{"both rules match", "5000.00", "suspicious wire", true},
		{"zero amount clean description", "0.00", "refund", false},
		{"empty description below threshold", "50.00", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			assert.NoError(t, err)

			transaction := &models.Transaction{
				Amount:          amount,
				TransactionType: models.TypeDebit,
				Description:     tt.description,
			}

			assert.Equal(t, tt.want, classifier.Classify(transaction))
		})
	}
}

func TestThresholdClassifier_CustomThreshold(t *testing.T) {
	classifier := NewThresholdClassifier(decimal.NewFromInt(50))

	cheap := &models.Transaction{Amount: decimal.NewFromInt(49), Description: "lunch"}
	pricey := &models.Transaction{Amount: decimal.NewFromInt(51), Description: "lunch"}

	assert.False(t, classifier.Classify(cheap))
	assert.True(t, classifier.Classify(pricey))
}
