package paymentrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"

	"github.com/docforge/docforge/internal/domain"
)

var intentRowColumns = []string{
	"id", "user_id", "package_id", "credits", "amount_btc", "address", "status",
	"tx_hash", "confirmations", "expires_at", "created_at",
}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func sampleIntentRow(now time.Time) []any {
	return []any{
		"intent-1", 1, "starter", int64(100), 0.0005, "bc1qxyz", domain.PaymentStatusPending,
		"", 0, now.Add(30 * time.Minute), now,
	}
}

func TestRepository_Save(t *testing.T) {
	repo, mock := NewMock(t)
	expires := time.Now().Add(30 * time.Minute)

	intent := &domain.PaymentIntent{
		ID:        "intent-1",
		UserID:    1,
		PackageID: "starter",
		Credits:   100,
		AmountBTC: 0.0005,
		Address:   "bc1qxyz",
		Status:    domain.PaymentStatusPending,
		ExpiresAt: expires,
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Successfully saves intent",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`
        INSERT INTO payment_intents
			(id, user_id, package_id, credits, amount_btc, address, status, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)).
					WithArgs("intent-1", 1, "starter", int64(100), 0.0005, "bc1qxyz", domain.PaymentStatusPending, expires).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`
        INSERT INTO payment_intents
			(id, user_id, package_id, credits, amount_btc, address, status, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)).
					WithArgs("intent-1", 1, "starter", int64(100), 0.0005, "bc1qxyz", domain.PaymentStatusPending, expires).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			err := repo.Save(context.Background(), intent)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		intentID  string
		mockSetup func()
		expectErr bool
		found     bool
	}{
		{
			name:     "Existing intent returned",
			intentID: "intent-1",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM payment_intents\s+WHERE id = \$1`).
					WithArgs("intent-1").
					WillReturnRows(pgxmock.NewRows(intentRowColumns).AddRow(sampleIntentRow(now)...))
			},
			found: true,
		},
		{
			name:     "Unknown intent returns nil",
			intentID: "missing",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM payment_intents\s+WHERE id = \$1`).
					WithArgs("missing").
					WillReturnError(pgx.ErrNoRows)
			},
			found: false,
		},
		{
			name:     "Database error",
			intentID: "intent-1",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM payment_intents\s+WHERE id = \$1`).
					WithArgs("intent-1").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			intent, err := repo.FindByID(context.Background(), tt.intentID)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.found {
				assert.NotNil(t, intent)
				assert.Equal(t, "intent-1", intent.ID)
				assert.Equal(t, domain.PaymentStatusPending, intent.Status)
			} else {
				assert.Nil(t, intent)
			}
		})
	}
}

func TestRepository_FindPending(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		expectLen int
	}{
		{
			name: "Returns pending intents oldest first",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM payment_intents\s+WHERE status = 'pending'`).
					WithArgs(500).
					WillReturnRows(pgxmock.NewRows(intentRowColumns).AddRow(sampleIntentRow(now)...))
			},
			expectLen: 1,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM payment_intents\s+WHERE status = 'pending'`).
					WithArgs(500).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			intents, err := repo.FindPending(context.Background(), 500)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, intents, tt.expectLen)
			}
		})
	}
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)

	updateQuery := regexp.QuoteMeta(`
        UPDATE payment_intents
        SET status = $1, tx_hash = $2, confirmations = $3
        WHERE id = $4 AND status = 'pending'`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Successfully updates intent",
			mockSetup: func() {
				mock.ExpectExec(updateQuery).
					WithArgs(domain.PaymentStatusConfirmed, "abc123", 3, "intent-1").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(updateQuery).
					WithArgs(domain.PaymentStatusConfirmed, "abc123", 3, "intent-1").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			err := repo.UpdateStatus(context.Background(), "intent-1", domain.PaymentStatusConfirmed, "abc123", 3)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
