package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/dto"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
	jobservice "github.com/docforge/docforge/internal/service/jobservice"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/docforge/docforge/pkg/utils"
)

func NewMock(t *testing.T) (*GenerateHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service, t.TempDir())
	defer ctrl.Finish()
	return handler, service
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func authedContext(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, 1))
}

func routeContext(req *http.Request, jobID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", jobID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGenerateHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		fields        map[string]string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Job accepted",
			fields: map[string]string{
				"description":   "Quarterly business report for the board",
				"document_type": "formal",
				"length":        "5",
			},
			prepareMock: func() {
				service.EXPECT().Submit(gomock.Any(), 1, jobservice.SubmitParams{
					DocumentType: "formal",
					Description:  "Quarterly business report for the board",
					Length:       5,
				}).Return(&jobservice.SubmitResult{
					Job: &domain.GenerationJob{
						ID:     "job-1",
						Status: domain.JobStatusSubmitted,
					},
					CreditsDeducted: 34,
					NewBalance:      16,
				}, nil)
			},
			expectedCode: http.StatusAccepted,
		},
		{
			name: "Validation failure",
			fields: map[string]string{
				"description":   "short",
				"document_type": "formal",
			},
			prepareMock: func() {
				service.EXPECT().Submit(gomock.Any(), 1, gomock.Any()).
					Return(nil, jobservice.ErrValidation)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Insufficient credit",
			fields: map[string]string{
				"description":   "Quarterly business report for the board",
				"document_type": "infographic",
			},
			prepareMock: func() {
				service.EXPECT().Submit(gomock.Any(), 1, gomock.Any()).
					Return(nil, creditservice.ErrInsufficientCredit)
			},
			expectedCode: http.StatusPaymentRequired,
		},
		{
			name: "Internal error",
			fields: map[string]string{
				"description":   "Quarterly business report for the board",
				"document_type": "formal",
			},
			prepareMock: func() {
				service.EXPECT().Submit(gomock.Any(), 1, gomock.Any()).
					Return(nil, errors.New("db error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			body, contentType := multipartBody(t, tt.fields)
			req := httptest.NewRequest("POST", "/api/generate/document", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()

			handler.Generate(rr, authedContext(req))

			assert.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusAccepted {
				var resp dto.GenerateResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "job-1", resp.JobID)
				assert.Equal(t, domain.JobStatusSubmitted, resp.Status)
			}
			if tt.expectedError != "" {
				var resp utils.Response
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Message)
			}
		})
	}
}

func TestGenerateHandlerStatisticsForwarded(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().Submit(gomock.Any(), 1, jobservice.SubmitParams{
		DocumentType: "infographic",
		Description:  "Sales overview for the quarter",
		Length:       3,
		Statistics:   `["10","20","30"]`,
	}).Return(&jobservice.SubmitResult{
		Job: &domain.GenerationJob{ID: "job-2", Status: domain.JobStatusSubmitted},
	}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	assert.NoError(t, writer.WriteField("description", "Sales overview for the quarter"))
	assert.NoError(t, writer.WriteField("document_type", "infographic"))
	assert.NoError(t, writer.WriteField("length", "3"))
	for _, v := range []string{"10", "20", "30"} {
		assert.NoError(t, writer.WriteField("statistics", v))
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/generate/document", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()

	handler.Generate(rr, authedContext(req))

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestGenerateHandlerInvalidForm(t *testing.T) {
	handler, _ := NewMock(t)

	req := httptest.NewRequest("POST", "/api/generate/document", bytes.NewReader([]byte("not a form")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=broken")
	rr := httptest.NewRecorder()

	handler.Generate(rr, authedContext(req))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		jobID        string
		prepareMock  func()
		expectedCode int
		expectedBody *dto.JobStatusResponseDTO
	}{
		{
			name:  "Processing job",
			jobID: "job-1",
			prepareMock: func() {
				service.EXPECT().GetStatus(gomock.Any(), "job-1", 1).Return(&domain.GenerationJob{
					ID:          "job-1",
					Status:      domain.JobStatusProcessing,
					Progress:    45,
					CurrentStep: domain.StepGeneratingText,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.JobStatusResponseDTO{
				Status:      domain.JobStatusProcessing,
				Progress:    45,
				CurrentStep: domain.StepGeneratingText,
			},
		},
		{
			name:  "Completed job carries download URL",
			jobID: "job-1",
			prepareMock: func() {
				service.EXPECT().GetStatus(gomock.Any(), "job-1", 1).Return(&domain.GenerationJob{
					ID:          "job-1",
					Status:      domain.JobStatusCompleted,
					Progress:    100,
					CurrentStep: domain.StepAssemblingPDF,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.JobStatusResponseDTO{
				Status:      domain.JobStatusCompleted,
				Progress:    100,
				CurrentStep: domain.StepAssemblingPDF,
				DownloadURL: "/api/generate/download/job-1",
			},
		},
		{
			name:  "Job not found",
			jobID: "unknown",
			prepareMock: func() {
				service.EXPECT().GetStatus(gomock.Any(), "unknown", 1).
					Return(nil, jobservice.ErrJobNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:  "Internal error",
			jobID: "job-1",
			prepareMock: func() {
				service.EXPECT().GetStatus(gomock.Any(), "job-1", 1).
					Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("GET", "/api/generate/status/"+tt.jobID, nil)
			req = routeContext(authedContext(req), tt.jobID)
			rr := httptest.NewRecorder()

			handler.Status(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedBody != nil {
				var resp dto.JobStatusResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, *tt.expectedBody, resp)
			}
		})
	}
}

func TestDownloadHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		jobID        string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Job not found",
			jobID: "unknown",
			prepareMock: func() {
				service.EXPECT().GetArtifact(gomock.Any(), "unknown", 1).
					Return("", jobservice.ErrJobNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:  "Job still processing",
			jobID: "job-1",
			prepareMock: func() {
				service.EXPECT().GetArtifact(gomock.Any(), "job-1", 1).
					Return("", jobservice.ErrJobNotReady)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:  "Internal error",
			jobID: "job-1",
			prepareMock: func() {
				service.EXPECT().GetArtifact(gomock.Any(), "job-1", 1).
					Return("", errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("GET", "/api/generate/download/"+tt.jobID, nil)
			req = routeContext(authedContext(req), tt.jobID)
			rr := httptest.NewRecorder()

			handler.Download(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
		})
	}
}

func TestHistoryHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedLen  int
	}{
		{
			name: "Returns jobs",
			prepareMock: func() {
				service.EXPECT().GetHistory(gomock.Any(), 1).Return([]domain.GenerationJob{
					{ID: "job-2", DocumentType: domain.DocumentTypeInvoice, Status: domain.JobStatusProcessing, Progress: 50},
					{ID: "job-1", DocumentType: domain.DocumentTypeFormal, Status: domain.JobStatusCompleted, Progress: 100},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name: "No jobs",
			prepareMock: func() {
				service.EXPECT().GetHistory(gomock.Any(), 1).Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "Internal error",
			prepareMock: func() {
				service.EXPECT().GetHistory(gomock.Any(), 1).Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("GET", "/api/generate/history", nil)
			rr := httptest.NewRecorder()

			handler.History(rr, authedContext(req))

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedLen > 0 {
				var resp []dto.JobHistoryResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Len(t, resp, tt.expectedLen)
				assert.Equal(t, "job-2", resp[0].JobID)
			}
		})
	}
}
