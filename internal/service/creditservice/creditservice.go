package creditservice

import (
	"context"
	"errors"

	"github.com/docforge/docforge/internal/domain"
	"go.uber.org/zap"
)

type LedgerRepo interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	CreateBalance(ctx context.Context, userID int) (*domain.Balance, error)
	Deduct(ctx context.Context, userID int, amount int64, refID string) (int64, error)
	Credit(ctx context.Context, userID int, amount int64, reason, refID string) (int64, error)
	Refund(ctx context.Context, refID string) (int64, error)
	ListTransactions(ctx context.Context, userID int) ([]domain.CreditTransaction, error)
}

var (
	ErrInsufficientCredit  = errors.New("insufficient credit")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUnknownDocumentType = errors.New("unknown document type")
	// ErrAlreadyRefunded and ErrAlreadyCredited are idempotency signals, not
	// failures: callers treat the second delivery of the same event as done.
	ErrAlreadyRefunded = errors.New("charge already refunded")
	ErrAlreadyCredited = errors.New("transaction already credited")
	ErrChargeNotFound  = errors.New("generation charge not found")
)

// Fixed generation cost per document type, in credits.
var documentCosts = map[string]int64{
	domain.DocumentTypeFormal:      34,
	domain.DocumentTypeInfographic: 50,
	domain.DocumentTypeInvoice:     20,
}

func CostFor(documentType string) (int64, bool) {
	cost, ok := documentCosts[documentType]
	return cost, ok
}

type Service struct {
	ledgerRepo LedgerRepo
}

func New(ledgerRepo LedgerRepo) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.ledgerRepo.GetBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	if balance == nil {
		return nil, ErrAccountNotFound
	}
	return balance, nil
}

func (s *Service) CreateBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.ledgerRepo.CreateBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return balance, nil
}

// DeductForDocument charges the fixed cost of the document type against the
// account. refID correlates the charge row with the job it pays for.
func (s *Service) DeductForDocument(ctx context.Context, userID int, documentType, refID string) (int64, int64, error) {
	cost, ok := CostFor(documentType)
	if !ok {
		return 0, 0, ErrUnknownDocumentType
	}
	newBalance, err := s.ledgerRepo.Deduct(ctx, userID, cost, refID)
	if err != nil {
		if !errors.Is(err, ErrInsufficientCredit) {
			zap.L().Error("failed to deduct credits", zap.Error(err))
		}
		return 0, 0, err
	}
	return cost, newBalance, nil
}

func (s *Service) Credit(ctx context.Context, userID int, amount int64, reason, refID string) (int64, error) {
	newBalance, err := s.ledgerRepo.Credit(ctx, userID, amount, reason, refID)
	if err != nil {
		if errors.Is(err, ErrAlreadyCredited) {
			zap.L().Info("duplicate credit skipped", zap.String("reason", reason), zap.String("refID", refID))
		} else {
			zap.L().Error("failed to credit balance", zap.Error(err))
		}
		return 0, err
	}
	return newBalance, nil
}

// Refund compensates the generation charge for jobID. A second call for the
// same job is a no-op and is not reported as a failure.
func (s *Service) Refund(ctx context.Context, jobID string) error {
	refunded, err := s.ledgerRepo.Refund(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrAlreadyRefunded) {
			zap.L().Info("job already refunded", zap.String("jobID", jobID))
			return nil
		}
		zap.L().Error("failed to refund job", zap.String("jobID", jobID), zap.Error(err))
		return err
	}
	zap.L().Info("job refunded", zap.String("jobID", jobID), zap.Int64("credits", refunded))
	return nil
}

func (s *Service) GetHistory(ctx context.Context, userID int) ([]domain.CreditTransaction, error) {
	transactions, err := s.ledgerRepo.ListTransactions(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	return transactions, nil
}
