package jobrepo

import (
	"context"
	"errors"
	"time"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const jobColumns = `id, user_id, document_type, description, length, statistics, design_spec, logo_path,
		status, progress, current_step, error_message, artifact_path, created_at, updated_at`

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

func (r *Repository) Save(ctx context.Context, job *domain.GenerationJob) error {
	query := `
        INSERT INTO generation_jobs
			(id, user_id, document_type, description, length, statistics, design_spec, logo_path, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query,
			job.ID, job.UserID, job.DocumentType, job.Description, job.Length,
			job.Statistics, job.DesignSpec, job.LogoPath, job.Status)
		if err != nil {
			zap.L().Error("can't save job", zap.Error(err))
			return err
		}
		return nil
	})
	return err
}

func (r *Repository) FindByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	query := `
        SELECT ` + jobColumns + `
        FROM generation_jobs
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find job", zap.Error(err))
		return nil, err
	}
	return job, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int) ([]domain.GenerationJob, error) {
	query := `
        SELECT ` + jobColumns + `
        FROM generation_jobs
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get jobs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			zap.L().Error("can't scan job row", zap.Error(err))
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// FindForProcessing returns jobs waiting for a worker: fresh submissions plus
// processing rows whose updated_at went quiet for longer than staleAfter. The
// latter are jobs whose worker died mid-flight; re-polling them is the only
// way they ever leave processing.
func (r *Repository) FindForProcessing(ctx context.Context, limit uint32, staleAfter time.Duration) ([]domain.GenerationJob, error) {
	query := `
        SELECT ` + jobColumns + `
        FROM generation_jobs
		WHERE status = 'submitted'
		   OR (status = 'processing' AND updated_at < NOW() - $1::interval)
        ORDER BY created_at ASC
		LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, staleAfter, int(limit))
	if err != nil {
		zap.L().Error("can't get jobs for processing", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			zap.L().Error("can't scan job row for processing", zap.Error(err))
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// ClaimForProcessing is the single atomic entry into processing. It takes
// submitted jobs, and re-takes processing jobs that went stale, so a worker
// lost to a crash never strands its job. A false return means another worker
// owns the job right now.
func (r *Repository) ClaimForProcessing(ctx context.Context, jobID string, staleAfter time.Duration) (bool, error) {
	query := `
        UPDATE generation_jobs
        SET status = 'processing', current_step = 'initializing', updated_at = NOW()
        WHERE id = $1 AND (status = 'submitted'
           OR (status = 'processing' AND updated_at < NOW() - $2::interval))
    `
	tag, err := r.db.Exec(ctx, query, jobID, staleAfter)
	if err != nil {
		zap.L().Error("can't claim job", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateProgress bumps the step label and progress. The GREATEST guard keeps
// progress monotone no matter what the caller passes in.
func (r *Repository) UpdateProgress(ctx context.Context, jobID, step string, progress int) error {
	query := `
        UPDATE generation_jobs
        SET current_step = $1, progress = GREATEST(progress, $2), updated_at = NOW()
        WHERE id = $3 AND status = 'processing'
    `
	_, err := r.db.Exec(ctx, query, step, progress, jobID)
	if err != nil {
		zap.L().Error("can't update job progress", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) MarkCompleted(ctx context.Context, jobID, artifactPath string) error {
	query := `
        UPDATE generation_jobs
        SET status = 'completed', progress = 100, artifact_path = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'processing'
    `
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, artifactPath, jobID)
		if err != nil {
			zap.L().Error("can't mark job completed", zap.Error(err))
			return err
		}
		return nil
	})
	return err
}

// MarkFailed flips a processing job to failed. The returned bool reports
// whether this call made the transition: callers must refund only then, a job
// already settled elsewhere keeps its outcome.
func (r *Repository) MarkFailed(ctx context.Context, jobID, errorMessage string) (bool, error) {
	query := `
        UPDATE generation_jobs
        SET status = 'failed', error_message = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'processing'
    `
	var transitioned bool
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, query, errorMessage, jobID)
		if err != nil {
			zap.L().Error("can't mark job failed", zap.Error(err))
			return err
		}
		transitioned = tag.RowsAffected() == 1
		return nil
	})
	return transitioned, err
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	err := row.Scan(
		&job.ID, &job.UserID, &job.DocumentType, &job.Description, &job.Length,
		&job.Statistics, &job.DesignSpec, &job.LogoPath, &job.Status, &job.Progress,
		&job.CurrentStep, &job.ErrorMessage, &job.ArtifactPath, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
