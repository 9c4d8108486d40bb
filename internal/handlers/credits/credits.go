package credits

import (
	"context"
	"errors"
	"net/http"

	"github.com/docforge/docforge/internal/domain"
	"github.com/docforge/docforge/internal/dto"
	creditservice "github.com/docforge/docforge/internal/service/creditservice"
	"github.com/docforge/docforge/pkg/auth"
	"github.com/docforge/docforge/pkg/utils"
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	GetHistory(ctx context.Context, userID int) ([]domain.CreditTransaction, error)
	DeductForDocument(ctx context.Context, userID int, documentType, refID string) (int64, int64, error)
}

type CreditsHandler struct {
	creditService Service
}

func New(creditService Service) *CreditsHandler {
	return &CreditsHandler{
		creditService: creditService,
	}
}

// GetBalance godoc
//
//	@Summary		Get current credit balance
//	@Description	Retrieve the current prepaid credit balance for the authenticated user.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current credit balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		404	{object}	utils.Response			"Account not found"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	balance, err := h.creditService.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, creditservice.ErrAccountNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Balance: balance.Balance,
	})
}

// Deduct godoc
//
//	@Summary		Deduct credits for a document type
//	@Description	Charge the fixed generation cost of the given document type against the account.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Produce		json
//	@Param			document_type	query		string	true	"Document type (formal, infographic, invoice)"
//	@Success		200				{object}	dto.DeductResponseDTO
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		402				{object}	utils.Response	"Insufficient credit"
//	@Failure		404				{object}	utils.Response	"Account not found"
//	@Failure		422				{object}	utils.Response	"Unknown document type"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/credits/deduct [post]
func (h *CreditsHandler) Deduct(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	documentType := r.URL.Query().Get("document_type")
	deducted, newBalance, err := h.creditService.DeductForDocument(r.Context(), userID, documentType, "")
	if err != nil {
		switch {
		case errors.Is(err, creditservice.ErrUnknownDocumentType):
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
	utils.RespondWithJSON(w, http.StatusOK, dto.DeductResponseDTO{
		CreditsDeducted: deducted,
		NewBalance:      newBalance,
	})
}

// GetHistory godoc
//
//	@Summary		Get credit transaction history
//	@Description	List the account's ledger transactions, newest first.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TransactionResponseDTO	"Transaction history"
//	@Success		204	{object}	utils.Response				"No transactions"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/user/credits/history [get]
func (h *CreditsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	transactions, err := h.creditService.GetHistory(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	if len(transactions) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Transactions not found")
		return
	}

	response := make([]dto.TransactionResponseDTO, len(transactions))
	for i, tx := range transactions {
		response[i] = dto.TransactionResponseDTO{
			Delta:     tx.Delta,
			Reason:    tx.Reason,
			RefID:     tx.RefID,
			CreatedAt: tx.CreatedAt,
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}
