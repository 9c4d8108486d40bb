package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/pg"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
	"go.uber.org/zap"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func (r *Repository) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        SELECT id, user_id, balance
        FROM balances
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) CreateBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        INSERT INTO balances (user_id, balance)
        VALUES ($1, 0)
        RETURNING id, user_id, balance
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Balance)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// Deduct decrements the balance and appends the charge row in one database
// transaction. The conditional UPDATE is what makes two concurrent deductions
// safe: only one of them can pass the balance >= amount predicate.
func (r *Repository) Deduct(ctx context.Context, userID int, amount int64, refID string) (int64, error) {
	var newBalance int64
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		query := `
			UPDATE balances
			SET balance = balance - $1
			WHERE user_id = $2 AND balance >= $1
			RETURNING balance
		`
		err := r.db.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := r.balanceExists(ctx, userID)
			if exErr != nil {
				return exErr
			}
			if !exists {
				return creditservice.ErrAccountNotFound
			}
			return creditservice.ErrInsufficientCredit
		}
		if err != nil {
			zap.L().Error("failed to deduct balance", zap.Error(err))
			return err
		}
		return r.appendTransaction(ctx, userID, -amount, domain.ReasonGenerationCharge, refID)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit increments the balance and appends the transaction row. When refID is
// set, a transaction with the same reason and refID makes the call a no-op so
// duplicated payment confirmations cannot top up an account twice.
func (r *Repository) Credit(ctx context.Context, userID int, amount int64, reason, refID string) (int64, error) {
	var newBalance int64
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		if refID != "" {
			existing, err := r.findTransactionByRef(ctx, reason, refID)
			if err != nil {
				return err
			}
			if existing != nil {
				return creditservice.ErrAlreadyCredited
			}
		}
		query := `
			UPDATE balances
			SET balance = balance + $1
			WHERE user_id = $2
			RETURNING balance
		`
		err := r.db.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			return creditservice.ErrAccountNotFound
		}
		if err != nil {
			zap.L().Error("failed to credit balance", zap.Error(err))
			return err
		}
		return r.appendTransaction(ctx, userID, amount, reason, refID)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Refund compensates the generation charge recorded for refID. Checking for an
// existing refund row inside the transaction keeps the operation idempotent.
func (r *Repository) Refund(ctx context.Context, refID string) (int64, error) {
	var refunded int64
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		charge, err := r.findTransactionByRef(ctx, domain.ReasonGenerationCharge, refID)
		if err != nil {
			return err
		}
		if charge == nil {
			return creditservice.ErrChargeNotFound
		}

		refund, err := r.findTransactionByRef(ctx, domain.ReasonRefund, refID)
		if err != nil {
			return err
		}
		if refund != nil {
			return creditservice.ErrAlreadyRefunded
		}

		amount := -charge.Delta
		query := `
			UPDATE balances
			SET balance = balance + $1
			WHERE user_id = $2
			RETURNING balance
		`
		var newBalance int64
		if err := r.db.QueryRow(ctx, query, amount, charge.UserID).Scan(&newBalance); err != nil {
			zap.L().Error("failed to refund balance", zap.Error(err))
			return err
		}
		refunded = amount
		return r.appendTransaction(ctx, charge.UserID, amount, domain.ReasonRefund, refID)
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID int) ([]domain.CreditTransaction, error) {
	query := `
        SELECT id, user_id, delta, reason, ref_id, created_at
        FROM credit_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.CreditTransaction
	for rows.Next() {
		var tx domain.CreditTransaction
		err := rows.Scan(&tx.ID, &tx.UserID, &tx.Delta, &tx.Reason, &tx.RefID, &tx.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func (r *Repository) balanceExists(ctx context.Context, userID int) (bool, error) {
	var id int
	err := r.db.QueryRow(ctx, "SELECT id FROM balances WHERE user_id = $1", userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) findTransactionByRef(ctx context.Context, reason, refID string) (*domain.CreditTransaction, error) {
	query := `
        SELECT id, user_id, delta, reason, ref_id, created_at
        FROM credit_transactions
        WHERE reason = $1 AND ref_id = $2
    `
	row := r.db.QueryRow(ctx, query, reason, refID)
	var tx domain.CreditTransaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Delta, &tx.Reason, &tx.RefID, &tx.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to find transaction by ref", zap.Error(err))
		return nil, err
	}
	return &tx, nil
}

func (r *Repository) appendTransaction(ctx context.Context, userID int, delta int64, reason, refID string) error {
	query := `
		INSERT INTO credit_transactions (user_id, delta, reason, ref_id)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, userID, delta, reason, refID)
	if err != nil {
		zap.L().Error("failed to append transaction", zap.Error(err))
		return err
	}
	return nil
}
