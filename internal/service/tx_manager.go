package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxManager выполняет fn в одной транзакции базы данных. Используется там,
// где дедуп-проверка и запись обязаны быть атомарными (webhook-события,
// регистрация оператора).
type TxManager interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type PgxPoolIface interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type PgxTxManager struct {
	pool PgxPoolIface
}

func NewPgxTxManager(pool PgxPoolIface) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

// WithTx коммитит при nil от fn, иначе откатывает и возвращает ошибку fn
// как есть, чтобы вызывающий мог матчить сентинелы через errors.Is.
func (m *PgxTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}
