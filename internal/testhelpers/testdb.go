//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB пул к тестовой базе для интеграционных тестов.
// База задается через TEST_DATABASE_URL; без нее тесты пропускаются,
// чтобы обычный прогон не требовал поднятого postgres.
type TestDB struct {
	Pool *pgxpool.Pool
	url  string
}

func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("не удалось подключиться к тестовой базе: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("тестовая база недоступна: %v", err)
	}

	return &TestDB{Pool: pool, url: url}
}

func (db *TestDB) RunMigrations(t *testing.T) {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("не удалось определить путь к каталогу миграций")
	}
	migrationsPath := filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")

	m, err := migrate.New("file://"+migrationsPath, db.url)
	if err != nil {
		t.Fatalf("не удалось создать мигратор: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("не удалось применить миграции: %v", err)
	}
}

func (db *TestDB) CleanupDB(t *testing.T) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		"TRUNCATE transactions, failed_payments, webhook_events, operators")
	if err != nil {
		t.Fatalf("не удалось очистить тестовую базу: %v", err)
	}
}

func (db *TestDB) TeardownTestDB() {
	db.Pool.Close()
}
