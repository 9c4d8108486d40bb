package handlers

import (
	"net/http"
	"path/filepath"

	_ "github.com/docforge/docforge/docs"
	"github.com/docforge/docforge/internal/config"
	authhandlers "github.com/docforge/docforge/internal/handlers/auth"
	creditshandlers "github.com/docforge/docforge/internal/handlers/credits"
	generatehandlers "github.com/docforge/docforge/internal/handlers/generate"
	paymenthandlers "github.com/docforge/docforge/internal/handlers/payment"
	"github.com/docforge/docforge/internal/service"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type CreditsHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Deduct(w http.ResponseWriter, r *http.Request)
	GetHistory(w http.ResponseWriter, r *http.Request)
}

type GenerateHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
}

type PaymentHandler interface {
	Packages(w http.ResponseWriter, r *http.Request)
	Initiate(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Webhook(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler     AuthHandler
	CreditsHandler  CreditsHandler
	GenerateHandler GenerateHandler
	PaymentHandler  PaymentHandler

	jwtService auth.JWTServiceInterface
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		AuthHandler:     authhandlers.New(s.AuthService),
		CreditsHandler:  creditshandlers.New(s.CreditService),
		GenerateHandler: generatehandlers.New(s.JobService, filepath.Join(cfg.ArtifactDir, "uploads")),
		PaymentHandler:  paymenthandlers.New(s.PaymentService),
		jwtService:      s.JWTService,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.AuthHandler.Register)
			r.Post("/login", h.AuthHandler.Login)
		})

		// The processor pushes confirmations here, it holds no user token.
		r.Post("/payment/bitcoin/webhook", h.PaymentHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.jwtService))
			r.Get("/user/balance", h.CreditsHandler.GetBalance)
			r.Get("/user/credits/history", h.CreditsHandler.GetHistory)
			r.Post("/credits/deduct", h.CreditsHandler.Deduct)
			r.Route("/generate", func(r chi.Router) {
				r.Post("/document", h.GenerateHandler.Generate)
				r.Get("/status/{jobID}", h.GenerateHandler.Status)
				r.Get("/download/{jobID}", h.GenerateHandler.Download)
				r.Get("/history", h.GenerateHandler.History)
			})
			r.Route("/payment", func(r chi.Router) {
				r.Get("/packages", h.PaymentHandler.Packages)
				r.Post("/bitcoin/initiate", h.PaymentHandler.Initiate)
				r.Post("/bitcoin/status", h.PaymentHandler.Status)
			})
		})
	})

	return r
}
