package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/dto"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
	jobservice "github.com/docforge/docforge/internal/service/jobservice"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/docforge/docforge/pkg/utils"
)

const maxUploadSize = 10 << 20

type Service interface {
	Submit(ctx context.Context, userID int, params jobservice.SubmitParams) (*jobservice.SubmitResult, error)
	GetStatus(ctx context.Context, jobID string, userID int) (*domain.GenerationJob, error)
	GetArtifact(ctx context.Context, jobID string, userID int) (string, error)
	GetHistory(ctx context.Context, userID int) ([]domain.GenerationJob, error)
}

type GenerateHandler struct {
	jobService Service
	uploadDir  string
}

func New(jobService Service, uploadDir string) *GenerateHandler {
	return &GenerateHandler{
		jobService: jobService,
		uploadDir:  uploadDir,
	}
}

// Generate godoc
//
//	@Summary		Submit a document generation job
//	@Description	Charge the account and queue an asynchronous generation job. The client polls the status endpoint with the returned job id.
//	@Tags			Generation
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			description		formData	string	true	"Document description / prompt"
//	@Param			document_type	formData	string	true	"Document type (formal, infographic, invoice)"
//	@Param			length			formData	int		false	"Requested length in pages (ignored for invoices)"
//	@Param			statistics		formData	[]string	false	"Statistics series for visualizations"
//	@Param			design_spec		formData	string	false	"Styling options"
//	@Param			logo			formData	file	false	"Logo image"
//	@Success		202				{object}	dto.GenerateResponseDTO
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		402				{object}	utils.Response	"Insufficient credit"
//	@Failure		422				{object}	utils.Response	"Invalid request parameters"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/generate/document [post]
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	length, _ := strconv.Atoi(r.FormValue("length"))
	params := jobservice.SubmitParams{
		DocumentType: r.FormValue("document_type"),
		Description:  r.FormValue("description"),
		Length:       length,
		DesignSpec:   r.FormValue("design_spec"),
	}

	if stats := r.MultipartForm.Value["statistics"]; len(stats) > 0 {
		encoded, err := json.Marshal(stats)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid statistics values")
			return
		}
		params.Statistics = string(encoded)
	}

	logoPath, err := h.saveLogo(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Can't store uploaded logo")
		return
	}
	params.LogoPath = logoPath

	result, err := h.jobService.Submit(r.Context(), userID, params)
	if err != nil {
		switch {
		case errors.Is(err, jobservice.ErrValidation),
			errors.Is(err, creditservice.ErrUnknownDocumentType):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, creditservice.ErrInsufficientCredit):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, creditservice.ErrAccountNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusAccepted, dto.GenerateResponseDTO{
		JobID:  result.Job.ID,
		Status: result.Job.Status,
	})
}

// Status godoc
//
//	@Summary		Get generation job status
//	@Description	Poll the lifecycle state and progress of a generation job owned by the authenticated user.
//	@Tags			Generation
//	@Security		BearerAuth
//	@Produce		json
//	@Param			jobID	path		string	true	"Job identifier"
//	@Success		200		{object}	dto.JobStatusResponseDTO
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Job not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/generate/status/{jobID} [get]
func (h *GenerateHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobService.GetStatus(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, jobservice.ErrJobNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := dto.JobStatusResponseDTO{
		Status:       job.Status,
		Progress:     job.Progress,
		CurrentStep:  job.CurrentStep,
		ErrorMessage: job.ErrorMessage,
	}
	if job.Status == domain.JobStatusCompleted {
		resp.DownloadURL = "/api/generate/download/" + job.ID
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Download godoc
//
//	@Summary		Download the generated document
//	@Description	Stream the assembled PDF artifact of a completed job.
//	@Tags			Generation
//	@Security		BearerAuth
//	@Produce		application/pdf
//	@Param			jobID	path	string	true	"Job identifier"
//	@Success		200		{file}	binary
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Job not found"
//	@Failure		409		{object}	utils.Response	"Job is not completed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/generate/download/{jobID} [get]
func (h *GenerateHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)
	jobID := chi.URLParam(r, "jobID")

	artifactPath, err := h.jobService.GetArtifact(r.Context(), jobID, userID)
	if err != nil {
		switch {
		case errors.Is(err, jobservice.ErrJobNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, jobservice.ErrJobNotReady):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`.pdf"`)
	http.ServeFile(w, r, artifactPath)
}

// History godoc
//
//	@Summary		List generation jobs
//	@Description	List the authenticated user's generation jobs, newest first.
//	@Tags			Generation
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.JobHistoryResponseDTO
//	@Success		204	{object}	utils.Response	"No jobs"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/generate/history [get]
func (h *GenerateHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	jobs, err := h.jobService.GetHistory(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if len(jobs) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "No jobs available")
		return
	}

	response := make([]dto.JobHistoryResponseDTO, len(jobs))
	for i, job := range jobs {
		response[i] = dto.JobHistoryResponseDTO{
			JobID:        job.ID,
			DocumentType: job.DocumentType,
			Status:       job.Status,
			Progress:     job.Progress,
			CreatedAt:    job.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func (h *GenerateHandler) saveLogo(r *http.Request) (string, error) {
	file, header, err := r.FormFile("logo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return path, nil
}
