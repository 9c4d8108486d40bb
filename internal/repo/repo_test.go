package repo

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/docforge/docforge/internal/pg"
	jobrepo "github.com/docforge/docforge/internal/repo/job-repo"
	ledgerrepo "github.com/docforge/docforge/internal/repo/ledger-repo"
	paymentrepo "github.com/docforge/docforge/internal/repo/payment-repo"
	userrepo "github.com/docforge/docforge/internal/repo/user-repo"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	mockTxManager := pg.NewMockTXManager(ctrl)
	assert.NoError(t, err)
	repo := New(mockDB, mockTxManager)
	defer mockDB.Close()

	return repo, mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.NotNil(t, repo.UserRepo)
	assert.NotNil(t, repo.LedgerRepo)
	assert.NotNil(t, repo.JobRepo)
	assert.NotNil(t, repo.PaymentRepo)

	assert.IsType(t, &userrepo.Repository{}, repo.UserRepo)
	assert.IsType(t, &ledgerrepo.Repository{}, repo.LedgerRepo)
	assert.IsType(t, &jobrepo.Repository{}, repo.JobRepo)
	assert.IsType(t, &paymentrepo.Repository{}, repo.PaymentRepo)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
