package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/dto"
	paymentservice "github.com/docforge/docforge/internal/service/paymentservice"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/docforge/docforge/pkg/utils"
)

type Service interface {
	Packages() []paymentservice.Package
	Initiate(ctx context.Context, userID int, packageID string) (*domain.PaymentIntent, error)
	CheckStatus(ctx context.Context, intentID string, userID int) (*domain.PaymentIntent, error)
	HandleWebhook(ctx context.Context, intentID, txHash string, confirmations int) error
}

type PaymentHandler struct {
	paymentService Service
}

func New(paymentService Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Packages godoc
//
//	@Summary		List credit packages
//	@Description	List the purchasable credit packages with their Bitcoin prices.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}	dto.PackageResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Router			/api/payment/packages [get]
func (h *PaymentHandler) Packages(w http.ResponseWriter, r *http.Request) {
	packages := h.paymentService.Packages()
	response := make([]dto.PackageResponseDTO, len(packages))
	for i, pkg := range packages {
		response[i] = dto.PackageResponseDTO{
			ID:        pkg.ID,
			Credits:   pkg.Credits,
			AmountBTC: pkg.AmountBTC,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Initiate godoc
//
//	@Summary		Initiate a Bitcoin payment
//	@Description	Create a payment intent for the selected package and return the deposit address.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.InitiatePaymentRequestDTO	true	"Payment initiation payload"
//	@Success		200		{object}	dto.InitiatePaymentResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		422		{object}	utils.Response	"Unknown package"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/bitcoin/initiate [post]
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.InitiatePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := h.paymentService.Initiate(r.Context(), userID, req.Package)
	if err != nil {
		if errors.Is(err, paymentservice.ErrUnknownPackage) {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.InitiatePaymentResponseDTO{
		PaymentID:      intent.ID,
		PaymentAddress: intent.Address,
		AmountBTC:      intent.AmountBTC,
		ExpiresAt:      intent.ExpiresAt,
	})
}

// Status godoc
//
//	@Summary		Check payment status
//	@Description	Refresh and report the confirmation state of a payment intent.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PaymentStatusRequestDTO	true	"Payment status payload"
//	@Success		200		{object}	dto.PaymentStatusResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Payment intent not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/bitcoin/status [post]
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.PaymentStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := h.paymentService.CheckStatus(r.Context(), req.PaymentID, userID)
	if err != nil {
		if errors.Is(err, paymentservice.ErrIntentNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.PaymentStatusResponseDTO{
		PaymentID:     intent.ID,
		Status:        intent.Status,
		TxHash:        intent.TxHash,
		Confirmations: intent.Confirmations,
	})
}

// Webhook godoc
//
//	@Summary		Payment confirmation webhook
//	@Description	Accept a confirmation event pushed by the Bitcoin processor. Duplicate deliveries are no-ops.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PaymentWebhookRequestDTO	true	"Confirmation event"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"Payment intent not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/bitcoin/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentWebhookRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.paymentService.HandleWebhook(r.Context(), req.PaymentID, req.TxHash, req.Confirmations)
	if err != nil {
		if errors.Is(err, paymentservice.ErrIntentNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "confirmation accepted"})
}
