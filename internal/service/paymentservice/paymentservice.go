package paymentservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/domain"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
)

type IntentRepo interface {
	Save(ctx context.Context, intent *domain.PaymentIntent) error
	FindByID(ctx context.Context, intentID string) (*domain.PaymentIntent, error)
	FindPending(ctx context.Context, limit uint32) ([]domain.PaymentIntent, error)
	UpdateStatus(ctx context.Context, intentID, status, txHash string, confirmations int) error
}

type Ledger interface {
	Credit(ctx context.Context, userID int, amount int64, reason, refID string) (int64, error)
}

// Processor is the external Bitcoin payment service: it hands out deposit
// addresses and reports confirmation state for them.
type Processor interface {
	CreateAddress(ctx context.Context) (string, error)
	PaymentStatus(ctx context.Context, address string) (*ProcessorStatus, error)
}

type ProcessorStatus struct {
	Status        string
	TxHash        string
	Confirmations int
}

var (
	ErrUnknownPackage = errors.New("unknown credit package")
	ErrIntentNotFound = errors.New("payment intent not found")
)

type Package struct {
	ID        string
	Credits   int64
	AmountBTC float64
}

var packages = []Package{
	{ID: "starter", Credits: 100, AmountBTC: 0.0005},
	{ID: "medium", Credits: 500, AmountBTC: 0.002},
	{ID: "large", Credits: 1200, AmountBTC: 0.0042},
}

type Service struct {
	intentRepo IntentRepo
	ledger     Ledger
	processor  Processor
	expiry     time.Duration
}

func New(intentRepo IntentRepo, ledger Ledger, processor Processor, expiry time.Duration) *Service {
	return &Service{
		intentRepo: intentRepo,
		ledger:     ledger,
		processor:  processor,
		expiry:     expiry,
	}
}

func (s *Service) Packages() []Package {
	return packages
}

func (s *Service) Initiate(ctx context.Context, userID int, packageID string) (*domain.PaymentIntent, error) {
	var pkg *Package
	for i := range packages {
		if packages[i].ID == packageID {
			pkg = &packages[i]
			break
		}
	}
	if pkg == nil {
		return nil, ErrUnknownPackage
	}

	address, err := s.processor.CreateAddress(ctx)
	if err != nil {
		zap.L().Error("can't create payment address", zap.Error(err))
		return nil, err
	}

	intent := &domain.PaymentIntent{
		ID:        uuid.NewString(),
		UserID:    userID,
		PackageID: pkg.ID,
		Credits:   pkg.Credits,
		AmountBTC: pkg.AmountBTC,
		Address:   address,
		Status:    domain.PaymentStatusPending,
		ExpiresAt: time.Now().Add(s.expiry),
	}
	if err := s.intentRepo.Save(ctx, intent); err != nil {
		zap.L().Error("can't save payment intent", zap.Error(err))
		return nil, err
	}

	zap.L().Info("payment intent created",
		zap.String("intentID", intent.ID),
		zap.String("package", pkg.ID),
		zap.Float64("amountBTC", pkg.AmountBTC),
	)
	return intent, nil
}

// CheckStatus refreshes a pending intent against the processor before
// answering, so the client sees confirmations as they arrive.
func (s *Service) CheckStatus(ctx context.Context, intentID string, userID int) (*domain.PaymentIntent, error) {
	intent, err := s.intentRepo.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent == nil || intent.UserID != userID {
		return nil, ErrIntentNotFound
	}
	if intent.Status != domain.PaymentStatusPending {
		return intent, nil
	}

	if err := s.refresh(ctx, intent); err != nil {
		zap.L().Error("can't refresh payment intent", zap.String("intentID", intentID), zap.Error(err))
		return nil, err
	}
	return s.intentRepo.FindByID(ctx, intentID)
}

// Confirm credits the package amount exactly once. The ledger's duplicate
// guard on (payment_topup, intentID) makes repeated confirmations no-ops, so
// the credit is applied before the status flip: if the flip fails, the next
// delivery retries both and the guard absorbs the second credit.
func (s *Service) Confirm(ctx context.Context, intent *domain.PaymentIntent, txHash string, confirmations int) error {
	_, err := s.ledger.Credit(ctx, intent.UserID, intent.Credits, domain.ReasonPaymentTopup, intent.ID)
	if err != nil && !errors.Is(err, creditservice.ErrAlreadyCredited) {
		return err
	}
	if err := s.intentRepo.UpdateStatus(ctx, intent.ID, domain.PaymentStatusConfirmed, txHash, confirmations); err != nil {
		return err
	}
	zap.L().Info("payment confirmed",
		zap.String("intentID", intent.ID),
		zap.Int64("credits", intent.Credits),
		zap.String("txHash", txHash),
	)
	return nil
}

// HandleWebhook drives a confirmation pushed by the processor. Duplicate
// deliveries for an already confirmed intent succeed without effect.
func (s *Service) HandleWebhook(ctx context.Context, intentID, txHash string, confirmations int) error {
	intent, err := s.intentRepo.FindByID(ctx, intentID)
	if err != nil {
		return err
	}
	if intent == nil {
		return ErrIntentNotFound
	}
	if intent.Status != domain.PaymentStatusPending {
		zap.L().Info("webhook for settled intent ignored", zap.String("intentID", intentID), zap.String("status", intent.Status))
		return nil
	}
	return s.Confirm(ctx, intent, txHash, confirmations)
}

// ProcessPending is the poll path used by the background watcher.
func (s *Service) ProcessPending(ctx context.Context, limit uint32) {
	intents, err := s.intentRepo.FindPending(ctx, limit)
	if err != nil {
		zap.L().Error("can't fetch pending payment intents", zap.Error(err))
		return
	}
	for i := range intents {
		if err := s.refresh(ctx, &intents[i]); err != nil {
			zap.L().Error("can't refresh payment intent", zap.String("intentID", intents[i].ID), zap.Error(err))
		}
	}
}

func (s *Service) refresh(ctx context.Context, intent *domain.PaymentIntent) error {
	if time.Now().After(intent.ExpiresAt) {
		zap.L().Info("payment intent expired", zap.String("intentID", intent.ID))
		return s.intentRepo.UpdateStatus(ctx, intent.ID, domain.PaymentStatusExpired, intent.TxHash, intent.Confirmations)
	}

	status, err := s.processor.PaymentStatus(ctx, intent.Address)
	if err != nil {
		return err
	}
	switch status.Status {
	case domain.PaymentStatusConfirmed:
		return s.Confirm(ctx, intent, status.TxHash, status.Confirmations)
	case domain.PaymentStatusFailed:
		return s.intentRepo.UpdateStatus(ctx, intent.ID, domain.PaymentStatusFailed, status.TxHash, status.Confirmations)
	default:
		return nil
	}
}
