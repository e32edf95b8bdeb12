package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tx-monitor/internal/models"
)

func setupSweeper() (*FraudSweeper, *MockTransactionRepo, *MockNotifier) {
	repo := new(MockTransactionRepo)
	alerts := new(MockNotifier)
	classifier := NewThresholdClassifier(decimal.NewFromInt(1000))

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	sweeper := NewFraudSweeper(repo, classifier, alerts, time.Minute, log)
	return sweeper, repo, alerts
}

func unclassified(amount, description string) *models.Transaction {
	return &models.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.RequireFromString(amount),
		TransactionType: models.TypeDebit,
		Description:     description,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestFraudSweeper_RescanUnclassified_FlagsSuspicious(t *testing.T) {
	sweeper, repo, alerts := setupSweeper()
	ctx := context.Background()

	clean := unclassified("10.00", "coffee")
	overThreshold := unclassified("2500.00", "bulk order")
	keyword := unclassified("5.00", "suspicious transfer")

	repo.On("ListUnclassified", ctx).Return([]*models.Transaction{clean, overThreshold, keyword}, nil)
	repo.On("MarkFraud", ctx, overThreshold.ID).Return(true, nil)
	repo.On("MarkFraud", ctx, keyword.ID).Return(true, nil)
	alerts.On("SendAlert", ctx, mock.AnythingOfType("string")).Return(nil)

	flagged, err := sweeper.RescanUnclassified(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, flagged)
	assert.True(t, overThreshold.IsFraud)
	assert.True(t, keyword.IsFraud)
	assert.False(t, clean.IsFraud)

	alerts.AssertNumberOfCalls(t, "SendAlert", 2)
	repo.AssertNotCalled(t, "MarkFraud", ctx, clean.ID)
}

func TestFraudSweeper_RescanUnclassified_LostRaceNoAlert(t *testing.T) {
	sweeper, repo, alerts := setupSweeper()
	ctx := context.Background()

	// Параллельный ingest успел пометить строку первым
	raced := unclassified("2500.00", "bulk order")

	repo.On("ListUnclassified", ctx).Return([]*models.Transaction{raced}, nil)
	repo.On("MarkFraud", ctx, raced.ID).Return(false, nil)

	flagged, err := sweeper.RescanUnclassified(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 0, flagged)
	alerts.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
}

func TestFraudSweeper_RescanUnclassified_EmptyIsNoOp(t *testing.T) {
	sweeper, repo, alerts := setupSweeper()
	ctx := context.Background()

	repo.On("ListUnclassified", ctx).Return([]*models.Transaction{}, nil)

	flagged, err := sweeper.RescanUnclassified(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 0, flagged)
	alerts.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
}

func TestFraudSweeper_RescanUnclassified_ListError(t *testing.T) {
	sweeper, repo, _ := setupSweeper()
	ctx := context.Background()

	repo.On("ListUnclassified", ctx).Return(nil, errors.New("connection refused"))

	flagged, err := sweeper.RescanUnclassified(ctx)

	assert.Error(t, err)
	assert.Equal(t, 0, flagged)
}

func TestFraudSweeper_RescanUnclassified_MarkFraudErrorContinues(t *testing.T) {
	sweeper, repo, alerts := setupSweeper()
	ctx := context.Background()

	failing := unclassified("2500.00", "bulk order")
	working := unclassified("3000.00", "wire")

	repo.On("ListUnclassified", ctx).Return([]*models.Transaction{failing, working}, nil)
	repo.On("MarkFraud", ctx, failing.ID).Return(false, errors.New("connection reset"))
	repo.On("MarkFraud", ctx, working.ID).Return(true, nil)
	alerts.On("SendAlert", ctx, mock.AnythingOfType("string")).Return(nil)

	flagged, err := sweeper.RescanUnclassified(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, flagged)
	alerts.AssertNumberOfCalls(t, "SendAlert", 1)
}

func TestFraudSweeper_ShutdownStopsLoop(t *testing.T) {
	sweeper, _, _ := setupSweeper()

	sweeper.Run(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, sweeper.Shutdown(ctx))
}
