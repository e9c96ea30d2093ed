package handler

import (
	"encoding/json"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/service"
	"net/http"
	"strconv"
)

// LedgerHandler holds dependencies for the ledger engine's HTTP surface.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler with its dependencies.
func NewLedgerHandler(s *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: s}
}

// FundResponse pairs the recorded transaction with the balance computed right
// after it was appended.
type FundResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Balance     float64            `json:"balance"`
}

// BalanceResponse reports the balance derived from the transaction log.
type BalanceResponse struct {
	AccountID int     `json:"account_id"`
	Balance   float64 `json:"balance"`
}

// FundAccount godoc
// @Summary      Deposit funds into an account
// @Description  Validates the amount and funding source, appends a completed deposit to the ledger and returns the new balance. Retries carrying the same idempotency key return the original transaction without a second deposit.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Param        deposit body model.FundRequest true "Deposit details"
// @Success      201  {object}  FundResponse
// @Failure      400  {object}  common.AppError "Invalid amount or funding source"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError "Account not found or not owned by the user"
// @Failure      409  {object}  common.AppError "Account is not active"
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/deposits [post]
func (h *LedgerHandler) FundAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	var req model.FundRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	transaction, balance, err := h.service.FundAccount(r.Context(), userID, accountID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidFundingSource):
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrAccountNotFound):
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, service.ErrAccountNotActive):
			return common.NewAppError(http.StatusConflict, err.Error(), nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not process deposit", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(FundResponse{Transaction: transaction, Balance: balance})
	return nil
}

// GetBalance godoc
// @Summary      Get the computed balance for an account
// @Description  Returns the balance derived from the completed transactions in the ledger, not the cached column.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Success      200  {object}  BalanceResponse
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	balance, err := h.service.GetBalance(r.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not compute balance", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(BalanceResponse{AccountID: accountID, Balance: balance})
	return nil
}

// Reconcile godoc
// @Summary      Reconcile the cached balance against the ledger
// @Description  Recomputes the balance from completed transactions and compares it to the cached value; a drifted cache is corrected in place.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Success      200  {object}  service.ReconciliationResult
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/reconcile [post]
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	result, err := h.service.ReconcileForUser(r.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not reconcile account", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Description  Retrieves the transaction history for a specific account owned by the authenticated user, newest first.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Success      200  {array}   model.Transaction
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/transactions [get]
func (h *LedgerHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactionsForAccount(r.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transactions", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
	return nil
}

func accountIDFromPath(r *http.Request) (int, *common.AppError) {
	accountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return 0, common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}
	return accountID, nil
}
