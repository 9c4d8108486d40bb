package paymentrepo

import (
	"context"
	"errors"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const intentColumns = `id, user_id, package_id, credits, amount_btc, address, status,
		tx_hash, confirmations, expires_at, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Save(ctx context.Context, intent *domain.PaymentIntent) error {
	query := `
        INSERT INTO payment_intents
			(id, user_id, package_id, credits, amount_btc, address, status, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.Exec(ctx, query,
		intent.ID, intent.UserID, intent.PackageID, intent.Credits,
		intent.AmountBTC, intent.Address, intent.Status, intent.ExpiresAt)
	if err != nil {
		zap.L().Error("can't save payment intent", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	query := `
        SELECT ` + intentColumns + `
        FROM payment_intents
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, intentID)
	intent, err := scanIntent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find payment intent", zap.Error(err))
		return nil, err
	}
	return intent, nil
}

func (r *Repository) FindPending(ctx context.Context, limit uint32) ([]domain.PaymentIntent, error) {
	query := `
        SELECT ` + intentColumns + `
        FROM payment_intents
        WHERE status = 'pending'
        ORDER BY created_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, int(limit))
	if err != nil {
		zap.L().Error("can't get pending payment intents", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var intents []domain.PaymentIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			zap.L().Error("can't scan payment intent row", zap.Error(err))
			return nil, err
		}
		intents = append(intents, *intent)
	}
	return intents, nil
}

// UpdateStatus only moves intents out of pending, terminal states stay put.
func (r *Repository) UpdateStatus(ctx context.Context, intentID, status, txHash string, confirmations int) error {
	query := `
        UPDATE payment_intents
        SET status = $1, tx_hash = $2, confirmations = $3
        WHERE id = $4 AND status = 'pending'
    `
	_, err := r.db.Exec(ctx, query, status, txHash, confirmations, intentID)
	if err != nil {
		zap.L().Error("can't update payment intent", zap.Error(err))
		return err
	}
	return nil
}

func scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := row.Scan(
		&intent.ID, &intent.UserID, &intent.PackageID, &intent.Credits, &intent.AmountBTC,
		&intent.Address, &intent.Status, &intent.TxHash, &intent.Confirmations,
		&intent.ExpiresAt, &intent.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
