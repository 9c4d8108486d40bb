package jobrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/pg"
)

var jobRowColumns = []string{
	"id", "user_id", "document_type", "description", "length", "statistics", "design_spec", "logo_path",
	"status", "progress", "current_step", "error_message", "artifact_path", "created_at", "updated_at",
}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB, mockTxManager)
	defer mockDB.Close()
	defer ctrl.Finish()

	return repo, mockDB, mockTxManager
}

func sampleJobRow(now time.Time) []any {
	return []any{
		"job-1", 1, domain.DocumentTypeFormal, "Quarterly report", 5, "", "", "",
		domain.JobStatusSubmitted, 0, "", "", "", now, now,
	}
}

func TestRepository_Save(t *testing.T) {
	repo, mock, tx := NewMock(t)

	job := &domain.GenerationJob{
		ID:           "job-1",
		UserID:       1,
		DocumentType: domain.DocumentTypeFormal,
		Description:  "Quarterly report",
		Length:       5,
		Status:       domain.JobStatusSubmitted,
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Successfully saves job",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					mock.ExpectExec(regexp.QuoteMeta(`
        INSERT INTO generation_jobs
			(id, user_id, document_type, description, length, statistics, design_spec, logo_path, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)).
						WithArgs("job-1", 1, domain.DocumentTypeFormal, "Quarterly report", 5, "", "", "", domain.JobStatusSubmitted).
						WillReturnResult(pgxmock.NewResult("INSERT", 1))
					return fn(ctx)
				})
			},
			expectErr: false,
		},
		{
			name: "Database error",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					mock.ExpectExec(regexp.QuoteMeta(`
        INSERT INTO generation_jobs
			(id, user_id, document_type, description, length, statistics, design_spec, logo_path, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)).
						WithArgs("job-1", 1, domain.DocumentTypeFormal, "Quarterly report", 5, "", "", "", domain.JobStatusSubmitted).
						WillReturnError(errors.New("database error"))
					return fn(ctx)
				})
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			err := repo.Save(context.Background(), job)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		jobID     string
		mockSetup func()
		expectErr bool
		found     bool
	}{
		{
			name:  "Existing job returned",
			jobID: "job-1",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM generation_jobs\s+WHERE id = \$1`).
					WithArgs("job-1").
					WillReturnRows(pgxmock.NewRows(jobRowColumns).AddRow(sampleJobRow(now)...))
			},
			found: true,
		},
		{
			name:  "Unknown job returns nil",
			jobID: "missing",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM generation_jobs\s+WHERE id = \$1`).
					WithArgs("missing").
					WillReturnError(pgx.ErrNoRows)
			},
			found: false,
		},
		{
			name:  "Database error",
			jobID: "job-1",
			mockSetup: func() {
				mock.ExpectQuery(`SELECT .+ FROM generation_jobs\s+WHERE id = \$1`).
					WithArgs("job-1").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			job, err := repo.FindByID(context.Background(), tt.jobID)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.found {
				assert.NotNil(t, job)
				assert.Equal(t, "job-1", job.ID)
				assert.Equal(t, domain.JobStatusSubmitted, job.Status)
			} else {
				assert.Nil(t, job)
			}
		})
	}
}

func TestRepository_FindByUserID(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM generation_jobs\s+WHERE user_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows(jobRowColumns).AddRow(sampleJobRow(now)...))

	jobs, err := repo.FindByUserID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
}

func TestRepository_FindForProcessing(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()
	staleAfter := 6 * time.Minute

	findQuery := `SELECT .+ FROM generation_jobs\s+WHERE status = 'submitted'\s+OR \(status = 'processing' AND updated_at < NOW\(\) - \$1::interval\)`

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		expectLen int
	}{
		{
			name: "Returns submitted jobs oldest first",
			mockSetup: func() {
				mock.ExpectQuery(findQuery).
					WithArgs(staleAfter, 100).
					WillReturnRows(pgxmock.NewRows(jobRowColumns).AddRow(sampleJobRow(now)...))
			},
			expectLen: 1,
		},
		{
			name: "Stale processing job surfaces again",
			mockSetup: func() {
				staleRow := []any{
					"job-9", 1, domain.DocumentTypeFormal, "Quarterly report", 5, "", "", "",
					domain.JobStatusProcessing, 45, domain.StepGeneratingText, "", "",
					now.Add(-time.Hour), now.Add(-time.Hour),
				}
				mock.ExpectQuery(findQuery).
					WithArgs(staleAfter, 100).
					WillReturnRows(pgxmock.NewRows(jobRowColumns).AddRow(staleRow...))
			},
			expectLen: 1,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(findQuery).
					WithArgs(staleAfter, 100).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			jobs, err := repo.FindForProcessing(context.Background(), 100, staleAfter)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, jobs, tt.expectLen)
			}
		})
	}
}

func TestRepository_ClaimForProcessing(t *testing.T) {
	repo, mock, _ := NewMock(t)

	staleAfter := 6 * time.Minute
	claimQuery := regexp.QuoteMeta(`
        UPDATE generation_jobs
        SET status = 'processing', current_step = 'initializing', updated_at = NOW()
        WHERE id = $1 AND (status = 'submitted'
           OR (status = 'processing' AND updated_at < NOW() - $2::interval))`)

	tests := []struct {
		name      string
		mockSetup func()
		claimed   bool
		expectErr bool
	}{
		{
			name: "Claim wins the race",
			mockSetup: func() {
				mock.ExpectExec(claimQuery).
					WithArgs("job-1", staleAfter).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			claimed: true,
		},
		{
			name: "Stale processing job is re-claimed",
			mockSetup: func() {
				mock.ExpectExec(claimQuery).
					WithArgs("job-1", staleAfter).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			claimed: true,
		},
		{
			name: "Job actively owned elsewhere",
			mockSetup: func() {
				mock.ExpectExec(claimQuery).
					WithArgs("job-1", staleAfter).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			claimed: false,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(claimQuery).
					WithArgs("job-1", staleAfter).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			claimed, err := repo.ClaimForProcessing(context.Background(), "job-1", staleAfter)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.claimed, claimed)
			}
		})
	}
}

func TestRepository_UpdateProgress(t *testing.T) {
	repo, mock, _ := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`
        UPDATE generation_jobs
        SET current_step = $1, progress = GREATEST(progress, $2), updated_at = NOW()
        WHERE id = $3 AND status = 'processing'`)).
		WithArgs(domain.StepGeneratingText, 45, "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateProgress(context.Background(), "job-1", domain.StepGeneratingText, 45)
	assert.NoError(t, err)
}

func TestRepository_MarkCompleted(t *testing.T) {
	repo, mock, tx := NewMock(t)

	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		mock.ExpectExec(regexp.QuoteMeta(`
        UPDATE generation_jobs
        SET status = 'completed', progress = 100, artifact_path = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'processing'`)).
			WithArgs("/data/artifacts/job-1.pdf", "job-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		return fn(ctx)
	})

	err := repo.MarkCompleted(context.Background(), "job-1", "/data/artifacts/job-1.pdf")
	assert.NoError(t, err)
}

func TestRepository_MarkFailed(t *testing.T) {
	repo, mock, tx := NewMock(t)

	failQuery := regexp.QuoteMeta(`
        UPDATE generation_jobs
        SET status = 'failed', error_message = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'processing'`)

	tests := []struct {
		name         string
		mockSetup    func()
		transitioned bool
	}{
		{
			name: "Processing job transitions to failed",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					mock.ExpectExec(failQuery).
						WithArgs("text generation failed", "job-1").
						WillReturnResult(pgxmock.NewResult("UPDATE", 1))
					return fn(ctx)
				})
			},
			transitioned: true,
		},
		{
			name: "Already settled job is left alone",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					mock.ExpectExec(failQuery).
						WithArgs("text generation failed", "job-1").
						WillReturnResult(pgxmock.NewResult("UPDATE", 0))
					return fn(ctx)
				})
			},
			transitioned: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			transitioned, err := repo.MarkFailed(context.Background(), "job-1", "text generation failed")
			assert.NoError(t, err)
			assert.Equal(t, tt.transitioned, transitioned)
		})
	}
}
