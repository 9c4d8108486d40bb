package repo

import (
	"github.com/docforge/docforge/internal/pg"
	jobrepo "github.com/docforge/docforge/internal/repo/job-repo"
	ledgerrepo "github.com/docforge/docforge/internal/repo/ledger-repo"
	paymentrepo "github.com/docforge/docforge/internal/repo/payment-repo"
	userrepo "github.com/docforge/docforge/internal/repo/user-repo"
	"github.com/docforge/docforge/internal/service/authservice"
	"github.com/docforge/docforge/internal/service/creditservice"
	"github.com/docforge/docforge/internal/service/jobservice"
	"github.com/docforge/docforge/internal/service/paymentservice"
)

type Repositories struct {
	UserRepo    authservice.Repo
	LedgerRepo  creditservice.LedgerRepo
	JobRepo     jobservice.JobRepo
	PaymentRepo paymentservice.IntentRepo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	userRepo := userrepo.New(conn)
	ledgerRepo := ledgerrepo.New(conn, txManager)
	jobRepo := jobrepo.New(conn, txManager)
	paymentRepo := paymentrepo.New(conn)

	return &Repositories{
		UserRepo:    userRepo,
		LedgerRepo:  ledgerRepo,
		JobRepo:     jobRepo,
		PaymentRepo: paymentRepo,
	}
}
