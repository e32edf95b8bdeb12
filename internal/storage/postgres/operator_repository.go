package postgres

import (
	"context"
	"errors"
	"fmt"
	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OperatorRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, operator *models.Operator) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	ExistsByUsernameTx(ctx context.Context, tx pgx.Tx, username string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx pgx.Tx, email string) (bool, error)
}

type PgOperatorRepository struct {
	db *pgxpool.Pool
}

func NewOperatorRepository(db *pgxpool.Pool) OperatorRepository {
	return &PgOperatorRepository{db: db}
}

func (r *PgOperatorRepository) CreateTx(ctx context.Context, tx pgx.Tx, operator *models.Operator) (*models.Operator, error) {
	const op = "storage.CreateOperatorTx"

	var created models.Operator
	err := tx.QueryRow(ctx, storage.CreateOperatorQuery,
		operator.ID,
		operator.Username,
		operator.Email,
		operator.PasswordHash,
	).Scan(
		&created.ID,
		&created.Username,
		&created.Email,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &created, nil
}

func (r *PgOperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	const op = "storage.GetOperatorByUsername"

	var operator models.Operator
	err := r.db.QueryRow(ctx, storage.GetOperatorByUsernameQuery, username).Scan(
		&operator.ID,
		&operator.Username,
		&operator.Email,
		&operator.PasswordHash,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &operator, nil
}

func (r *PgOperatorRepository) ExistsByUsernameTx(ctx context.Context, tx pgx.Tx, username string) (bool, error) {
	const op = "storage.ExistsByUsernameTx"

	var exists bool
	if err := tx.QueryRow(ctx, storage.CheckOperatorExistsByUsernameQuery, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *PgOperatorRepository) ExistsByEmailTx(ctx context.Context, tx pgx.Tx, email string) (bool, error) {
	const op = "storage.ExistsByEmailTx"

	var exists bool
	if err := tx.QueryRow(ctx, storage.CheckOperatorExistsByEmailQuery, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
