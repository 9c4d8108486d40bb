package jobservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/domain"
)

type JobRepo interface {
	Save(ctx context.Context, job *domain.GenerationJob) error
	FindByID(ctx context.Context, jobID string) (*domain.GenerationJob, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.GenerationJob, error)
	FindForProcessing(ctx context.Context, limit uint32, staleAfter time.Duration) ([]domain.GenerationJob, error)
	ClaimForProcessing(ctx context.Context, jobID string, staleAfter time.Duration) (bool, error)
	UpdateProgress(ctx context.Context, jobID, step string, progress int) error
	MarkCompleted(ctx context.Context, jobID, artifactPath string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) (bool, error)
}

type Ledger interface {
	DeductForDocument(ctx context.Context, userID int, documentType, refID string) (int64, int64, error)
	Refund(ctx context.Context, jobID string) error
}

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job artifact is not ready")
	ErrValidation  = errors.New("invalid generation request")
)

type SubmitParams struct {
	DocumentType string `validate:"required,oneof=formal infographic invoice"`
	Description  string `validate:"required,min=10,max=4000"`
	Length       int
	Statistics   string `validate:"max=8000"`
	DesignSpec   string `validate:"max=2000"`
	LogoPath     string
}

type SubmitResult struct {
	Job             *domain.GenerationJob
	CreditsDeducted int64
	NewBalance      int64
}

type Service struct {
	jobRepo  JobRepo
	ledger   Ledger
	validate *validator.Validate
}

func New(jobRepo JobRepo, ledger Ledger) *Service {
	return &Service{
		jobRepo:  jobRepo,
		ledger:   ledger,
		validate: validator.New(),
	}
}

// Submit validates the request, charges the account and creates the job in
// submitted state. The charge happens first: when it fails no job row exists
// at all, so a rejected request leaves no partial state behind.
func (s *Service) Submit(ctx context.Context, userID int, params SubmitParams) (*SubmitResult, error) {
	if err := s.validateParams(&params); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	deducted, newBalance, err := s.ledger.DeductForDocument(ctx, userID, params.DocumentType, jobID)
	if err != nil {
		return nil, err
	}

	job := &domain.GenerationJob{
		ID:           jobID,
		UserID:       userID,
		DocumentType: params.DocumentType,
		Description:  params.Description,
		Length:       params.Length,
		Statistics:   params.Statistics,
		DesignSpec:   params.DesignSpec,
		LogoPath:     params.LogoPath,
		Status:       domain.JobStatusSubmitted,
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		zap.L().Error("can't save job, refunding charge", zap.String("jobID", jobID), zap.Error(err))
		if refundErr := s.ledger.Refund(ctx, jobID); refundErr != nil {
			zap.L().Error("refund after failed save also failed", zap.String("jobID", jobID), zap.Error(refundErr))
		}
		return nil, err
	}

	zap.L().Info("job submitted",
		zap.String("jobID", jobID),
		zap.String("documentType", params.DocumentType),
		zap.Int64("creditsDeducted", deducted),
	)
	return &SubmitResult{Job: job, CreditsDeducted: deducted, NewBalance: newBalance}, nil
}

// GetStatus hides jobs owned by other accounts behind the same not-found
// answer as jobs that do not exist.
func (s *Service) GetStatus(ctx context.Context, jobID string, userID int) (*domain.GenerationJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		zap.L().Error("can't find job", zap.String("jobID", jobID), zap.Error(err))
		return nil, err
	}
	if job == nil || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *Service) GetArtifact(ctx context.Context, jobID string, userID int) (string, error) {
	job, err := s.GetStatus(ctx, jobID, userID)
	if err != nil {
		return "", err
	}
	if job.Status != domain.JobStatusCompleted || job.ArtifactPath == "" {
		return "", ErrJobNotReady
	}
	return job.ArtifactPath, nil
}

func (s *Service) GetHistory(ctx context.Context, userID int) ([]domain.GenerationJob, error) {
	jobs, err := s.jobRepo.FindByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get jobs", zap.Error(err))
		return nil, err
	}
	return jobs, nil
}

func (s *Service) validateParams(params *SubmitParams) error {
	// Invoices have a fixed layout, the requested length is meaningless there.
	if params.DocumentType == domain.DocumentTypeInvoice {
		params.Length = 0
	} else if params.Length < 1 || params.Length > 50 {
		return fmt.Errorf("%w: length must be between 1 and 50", ErrValidation)
	}

	if err := s.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
