//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tx-monitor/internal/models"
	"tx-monitor/internal/testhelpers"
)

func setupRepository(t *testing.T) (TransactionRepository, *testhelpers.TestDB) {
	t.Helper()

	testDB := testhelpers.SetupTestDB(t)
	testDB.RunMigrations(t)
	testDB.CleanupDB(t)

	return NewTransactionRepository(testDB.Pool), testDB
}

func seedTransaction(t *testing.T, repo TransactionRepository, amount string) {
	t.Helper()

	err := repo.Create(context.Background(), &models.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.RequireFromString(amount),
		TransactionType: models.TypeDebit,
		Description:     "seed",
		CreatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestAggregateRevenue_Integration_EmptyStore(t *testing.T) {
	repo, testDB := setupRepository(t)
	defer testDB.TeardownTestDB()

	revenue, err := repo.AggregateRevenue(context.Background())

	require.NoError(t, err)
	assert.True(t, revenue.IsZero(), "по пустому хранилищу сумма должна быть 0, получено %s", revenue)
}

func TestAggregateRevenue_Integration_SumsAllAmounts(t *testing.T) {
	repo, testDB := setupRepository(t)
	defer testDB.TeardownTestDB()

	seedTransaction(t, repo, "100")
	seedTransaction(t, repo, "250.50")

	revenue, err := repo.AggregateRevenue(context.Background())

	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.RequireFromString("350.50")),
		"ожидалось 350.50, получено %s", revenue)
}

func TestGetSummary_Integration_MatchesAggregateRevenue(t *testing.T) {
	repo, testDB := setupRepository(t)
	defer testDB.TeardownTestDB()

	seedTransaction(t, repo, "100")
	seedTransaction(t, repo, "250.50")

	revenue, err := repo.AggregateRevenue(context.Background())
	require.NoError(t, err)

	summary, err := repo.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalTransactions)
	assert.True(t, summary.TotalRevenue.Equal(revenue))
}
