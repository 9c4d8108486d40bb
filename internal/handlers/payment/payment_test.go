package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/dto"
	paymentservice "github.com/docforge/docforge/internal/service/paymentservice"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/docforge/docforge/pkg/utils"
)

func NewMock(t *testing.T) (*PaymentHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	defer ctrl.Finish()
	return handler, service
}

func authedRequest(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.UserIDKey, 1)
	return req.WithContext(ctx)
}

func TestPackagesHandler(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().Packages().Return([]paymentservice.Package{
		{ID: "starter", Credits: 100, AmountBTC: 0.0005},
		{ID: "medium", Credits: 500, AmountBTC: 0.002},
		{ID: "large", Credits: 1200, AmountBTC: 0.0042},
	})

	rr := httptest.NewRecorder()
	handler.Packages(rr, authedRequest("GET", "/api/payment/packages", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []dto.PackageResponseDTO
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp, 3)
	assert.Equal(t, dto.PackageResponseDTO{ID: "starter", Credits: 100, AmountBTC: 0.0005}, resp[0])
}

func TestInitiateHandler(t *testing.T) {
	handler, service := NewMock(t)
	expiresAt := time.Now().Add(30 * time.Minute).Truncate(time.Second).UTC()

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Intent created",
			body: `{"package":"medium"}`,
			prepareMock: func() {
				service.EXPECT().Initiate(gomock.Any(), 1, "medium").Return(&domain.PaymentIntent{
					ID:        "intent-1",
					UserID:    1,
					PackageID: "medium",
					Credits:   500,
					AmountBTC: 0.002,
					Address:   "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
					Status:    domain.PaymentStatusPending,
					ExpiresAt: expiresAt,
				}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Unknown package",
			body: `{"package":"gigantic"}`,
			prepareMock: func() {
				service.EXPECT().Initiate(gomock.Any(), 1, "gigantic").
					Return(nil, paymentservice.ErrUnknownPackage)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Invalid request body",
			body: `{invalid json`,
			prepareMock: func() {
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Internal error",
			body: `{"package":"medium"}`,
			prepareMock: func() {
				service.EXPECT().Initiate(gomock.Any(), 1, "medium").
					Return(nil, errors.New("processor down"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			rr := httptest.NewRecorder()
			handler.Initiate(rr, authedRequest("POST", "/api/payment/bitcoin/initiate", []byte(tt.body)))

			assert.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusOK {
				var resp dto.InitiatePaymentResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "intent-1", resp.PaymentID)
				assert.Equal(t, "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh", resp.PaymentAddress)
				assert.Equal(t, 0.002, resp.AmountBTC)
				assert.True(t, resp.ExpiresAt.Equal(expiresAt))
			}
			if tt.expectedError != "" {
				var resp utils.Response
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Message)
			}
		})
	}
}

func TestStatusHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
		expectedBody *dto.PaymentStatusResponseDTO
	}{
		{
			name: "Confirmed intent",
			body: `{"payment_id":"intent-1"}`,
			prepareMock: func() {
				service.EXPECT().CheckStatus(gomock.Any(), "intent-1", 1).Return(&domain.PaymentIntent{
					ID:            "intent-1",
					Status:        domain.PaymentStatusConfirmed,
					TxHash:        "abc123",
					Confirmations: 3,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.PaymentStatusResponseDTO{
				PaymentID:     "intent-1",
				Status:        domain.PaymentStatusConfirmed,
				TxHash:        "abc123",
				Confirmations: 3,
			},
		},
		{
			name: "Intent not found",
			body: `{"payment_id":"unknown"}`,
			prepareMock: func() {
				service.EXPECT().CheckStatus(gomock.Any(), "unknown", 1).
					Return(nil, paymentservice.ErrIntentNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Invalid request body",
			body: `{invalid json`,
			prepareMock: func() {
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Internal error",
			body: `{"payment_id":"intent-1"}`,
			prepareMock: func() {
				service.EXPECT().CheckStatus(gomock.Any(), "intent-1", 1).
					Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			rr := httptest.NewRecorder()
			handler.Status(rr, authedRequest("POST", "/api/payment/bitcoin/status", []byte(tt.body)))

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedBody != nil {
				var resp dto.PaymentStatusResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, *tt.expectedBody, resp)
			}
		})
	}
}

func TestWebhookHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Confirmation accepted",
			body: `{"payment_id":"intent-1","tx_hash":"abc123","confirmations":3}`,
			prepareMock: func() {
				service.EXPECT().HandleWebhook(gomock.Any(), "intent-1", "abc123", 3).Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Intent not found",
			body: `{"payment_id":"unknown","tx_hash":"abc123","confirmations":3}`,
			prepareMock: func() {
				service.EXPECT().HandleWebhook(gomock.Any(), "unknown", "abc123", 3).
					Return(paymentservice.ErrIntentNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Invalid request body",
			body: `{invalid json`,
			prepareMock: func() {
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Internal error",
			body: `{"payment_id":"intent-1","tx_hash":"abc123","confirmations":3}`,
			prepareMock: func() {
				service.EXPECT().HandleWebhook(gomock.Any(), "intent-1", "abc123", 3).
					Return(errors.New("db error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("POST", "/api/payment/bitcoin/webhook", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.Webhook(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusOK {
				var resp utils.Response
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "confirmation accepted", resp.Message)
			}
			if tt.expectedError != "" {
				var resp utils.Response
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Message)
			}
		})
	}
}
