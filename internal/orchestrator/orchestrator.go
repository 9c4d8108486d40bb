package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docforge/docforge/internal/clients"
	"github.com/docforge/docforge/internal/config"
	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/pg"
)

var processingJobs sync.Map

type JobRepo interface {
	FindForProcessing(ctx context.Context, limit uint32, staleAfter time.Duration) ([]domain.GenerationJob, error)
	ClaimForProcessing(ctx context.Context, jobID string, staleAfter time.Duration) (bool, error)
	UpdateProgress(ctx context.Context, jobID, step string, progress int) error
	MarkCompleted(ctx context.Context, jobID, artifactPath string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) (bool, error)
}

type Ledger interface {
	Refund(ctx context.Context, jobID string) error
}

type TextGenerator interface {
	GenerateText(ctx context.Context, req clients.TextRequest) (string, error)
}

type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, count int) ([]string, error)
}

type ChartRenderer interface {
	RenderCharts(ctx context.Context, statistics string) ([]string, error)
}

type PDFAssembler interface {
	AssemblePDF(ctx context.Context, req clients.AssembleRequest) ([]byte, error)
}

// Progress checkpoints reached after each stage completes. Infographics carry
// more stages, so their text checkpoint sits lower.
var textCheckpoints = map[string]int{
	domain.DocumentTypeFormal:      45,
	domain.DocumentTypeInfographic: 30,
	domain.DocumentTypeInvoice:     45,
}

const (
	imagesCheckpoint   = 50
	chartsCheckpoint   = 70
	assemblyCheckpoint = 90

	imagesPerInfographic = 3
)

type Service struct {
	jobRepo      JobRepo
	ledger       Ledger
	txManager    pg.TXManager
	textGen      TextGenerator
	imageGen     ImageGenerator
	chartRender  ChartRenderer
	pdfAssembler PDFAssembler

	artifactDir    string
	limit          uint32
	workerPool     WorkerPoolI
	updateInterval time.Duration
	stageTimeout   time.Duration
	staleAfter     time.Duration
}

func New(cfg *config.Config, txManager pg.TXManager, jobRepo JobRepo, ledger Ledger,
	textGen TextGenerator, imageGen ImageGenerator, chartRender ChartRenderer, pdfAssembler PDFAssembler,
) *Service {
	return &Service{
		jobRepo:        jobRepo,
		ledger:         ledger,
		txManager:      txManager,
		textGen:        textGen,
		imageGen:       imageGen,
		chartRender:    chartRender,
		pdfAssembler:   pdfAssembler,
		artifactDir:    cfg.ArtifactDir,
		limit:          1000,
		workerPool:     NewWorkerPool(10),
		updateInterval: cfg.PollInterval,
		stageTimeout:   cfg.StageTimeout,
		// A live worker refreshes updated_at at every stage boundary and no
		// stage outlives stageTimeout, so twice that means the worker is gone.
		staleAfter: 2 * cfg.StageTimeout,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Generation orchestrator started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping orchestrator")
			s.workerPool.Close()
			return
		case <-ticker.C:
			s.processJobs(ctx)
		}
	}
}

func (s *Service) processJobs(ctx context.Context) {
	jobs, err := s.jobRepo.FindForProcessing(ctx, atomic.LoadUint32(&s.limit), s.staleAfter)
	if err != nil {
		zap.L().Error("Failed to fetch jobs for processing", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, job := range jobs {
		job := job

		if _, loaded := processingJobs.LoadOrStore(job.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer processingJobs.Delete(job.ID)
				return s.handleJob(ctx, job)
			})
			if err != nil {
				processingJobs.Delete(job.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error processing jobs", zap.Error(err))
	}
}

// handleJob drives one job through its stages. The claim is the only entry
// into processing: fresh submissions and stale orphans alike, so a job that
// loses the claim race here is simply someone else's to finish. Stage
// failures never bubble out as request errors: they are absorbed into the
// failed state plus a refund.
func (s *Service) handleJob(ctx context.Context, job domain.GenerationJob) error {
	claimed, err := s.jobRepo.ClaimForProcessing(ctx, job.ID, s.staleAfter)
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	if !claimed {
		return nil
	}

	text, err := s.generateText(ctx, &job)
	if err != nil {
		s.failJob(ctx, job.ID, fmt.Sprintf("text generation failed: %v", err))
		return nil
	}

	var images, charts []string
	if job.DocumentType == domain.DocumentTypeInfographic {
		images = s.generateImages(ctx, &job)
		charts = s.renderCharts(ctx, &job)
	}

	artifact, err := s.assemblePDF(ctx, &job, text, images, charts)
	if err != nil {
		s.failJob(ctx, job.ID, fmt.Sprintf("pdf assembly failed: %v", err))
		return nil
	}

	artifactPath, err := s.storeArtifact(job.ID, artifact)
	if err != nil {
		s.failJob(ctx, job.ID, fmt.Sprintf("artifact storage failed: %v", err))
		return nil
	}

	if err := s.jobRepo.MarkCompleted(ctx, job.ID, artifactPath); err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", job.ID, err)
	}
	zap.L().Info("Job completed", zap.String("jobID", job.ID), zap.String("artifact", artifactPath))
	return nil
}

func (s *Service) generateText(ctx context.Context, job *domain.GenerationJob) (string, error) {
	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingText, 5); err != nil {
		return "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	text, err := s.textGen.GenerateText(stageCtx, clients.TextRequest{
		Description:  job.Description,
		DocumentType: job.DocumentType,
		Length:       job.Length,
	})
	if err != nil {
		return "", err
	}

	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingText, textCheckpoints[job.DocumentType]); err != nil {
		return "", err
	}
	return text, nil
}

// generateImages is a non-essential stage: an infographic without AI images
// is still a deliverable, so failures degrade to an empty set.
func (s *Service) generateImages(ctx context.Context, job *domain.GenerationJob) []string {
	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingImgs, textCheckpoints[job.DocumentType]); err != nil {
		return nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	images, err := s.imageGen.GenerateImages(stageCtx, job.Description, imagesPerInfographic)
	if err != nil {
		zap.L().Warn("Image generation failed, continuing without images",
			zap.String("jobID", job.ID), zap.Error(err))
		return nil
	}

	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingImgs, imagesCheckpoint); err != nil {
		return images
	}
	return images
}

// renderCharts is non-essential as well, and skipped outright when the
// request carries no statistics.
func (s *Service) renderCharts(ctx context.Context, job *domain.GenerationJob) []string {
	if job.Statistics == "" {
		return nil
	}
	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingViz, imagesCheckpoint); err != nil {
		return nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	charts, err := s.chartRender.RenderCharts(stageCtx, job.Statistics)
	if err != nil {
		zap.L().Warn("Chart rendering failed, continuing without charts",
			zap.String("jobID", job.ID), zap.Error(err))
		return nil
	}

	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepGeneratingViz, chartsCheckpoint); err != nil {
		return charts
	}
	return charts
}

func (s *Service) assemblePDF(ctx context.Context, job *domain.GenerationJob, text string, images, charts []string) ([]byte, error) {
	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepAssemblingPDF, chartsCheckpoint); err != nil {
		return nil, err
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	artifact, err := s.pdfAssembler.AssemblePDF(stageCtx, clients.AssembleRequest{
		DocumentType: job.DocumentType,
		Text:         text,
		Images:       images,
		Charts:       charts,
		DesignSpec:   job.DesignSpec,
		LogoPath:     job.LogoPath,
	})
	if err != nil {
		return nil, err
	}

	if err := s.jobRepo.UpdateProgress(ctx, job.ID, domain.StepAssemblingPDF, assemblyCheckpoint); err != nil {
		return artifact, nil
	}
	return artifact, nil
}

func (s *Service) storeArtifact(jobID string, artifact []byte) (string, error) {
	if err := os.MkdirAll(s.artifactDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.artifactDir, jobID+".pdf")
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// failJob is the single failed-entry path: mark the job and compensate the
// charge, in one transaction so the account is never left net-debited without
// a refund row. When the transaction fails the job stays processing and the
// stale-job re-claim retries the whole settlement later.
func (s *Service) failJob(ctx context.Context, jobID, message string) {
	zap.L().Error("Job failed", zap.String("jobID", jobID), zap.String("reason", message))
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		transitioned, err := s.jobRepo.MarkFailed(ctx, jobID, message)
		if err != nil {
			return err
		}
		if !transitioned {
			// Already settled by another worker, its outcome stands.
			return nil
		}
		return s.ledger.Refund(ctx, jobID)
	})
	if err != nil {
		zap.L().Error("Failed to settle failed job, leaving it for the stale-job sweep",
			zap.String("jobID", jobID), zap.Error(err))
	}
}
