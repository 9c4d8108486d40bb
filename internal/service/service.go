package service

import (
	"github.com/docforge/docforge/internal/config"
	"github.com/docforge/docforge/internal/handlers/auth"
	"github.com/docforge/docforge/internal/handlers/credits"
	"github.com/docforge/docforge/internal/handlers/generate"
	"github.com/docforge/docforge/internal/handlers/payment"

	pkgauth "github.com/docforge/docforge/pkg/auth"

	"github.com/docforge/docforge/internal/repo"
	authservice "github.com/docforge/docforge/internal/service/authservice"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
	jobservice "github.com/docforge/docforge/internal/service/jobservice"
	paymentservice "github.com/docforge/docforge/internal/service/paymentservice"
)

type Services struct {
	AuthService    auth.Service
	CreditService  credits.Service
	JobService     generate.Service
	PaymentService payment.Service

	// Concrete services shared with the background workers: the orchestrator
	// refunds through the ledger, the payment watcher polls pending intents.
	CreditLedger *creditservice.Service
	Payments     *paymentservice.Service
	JWTService   pkgauth.JWTServiceInterface
}

func New(repo *repo.Repositories, cfg *config.Config, processor paymentservice.Processor) *Services {
	creditService := creditservice.New(repo.LedgerRepo)
	jobService := jobservice.New(repo.JobRepo, creditService)
	paymentService := paymentservice.New(repo.PaymentRepo, creditService, processor, cfg.PaymentExpiry)
	jwtService := pkgauth.NewJWTService(cfg.JWTSecret)
	authService := authservice.New(repo.UserRepo, creditService, &pkgauth.HashService{}, jwtService)

	return &Services{
		AuthService:    authService,
		CreditService:  creditService,
		JobService:     jobService,
		PaymentService: paymentService,
		CreditLedger:   creditService,
		Payments:       paymentService,
		JWTService:     jwtService,
	}
}
