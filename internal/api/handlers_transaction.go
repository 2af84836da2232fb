package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

// handleCreateTransaction handles POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	// Action and instrument type arrive as numeric wire codes
	var req struct {
		UserID         int64           `json:"userId"`
		Symbol         string          `json:"symbol"`
		Price          decimal.Decimal `json:"price"`
		Quantity       int64           `json:"quantity"`
		Action         int             `json:"action"`
		InstrumentType int             `json:"instrumentType"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	action, err := types.ActionFromCode(req.Action)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	instrumentType, err := types.InstrumentFromCode(req.InstrumentType)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	tx := &models.Transaction{
		UserID:         req.UserID,
		Symbol:         req.Symbol,
		Price:          req.Price,
		Quantity:       req.Quantity,
		Action:         action,
		InstrumentType: instrumentType,
	}

	created, err := s.accountService.CreateTransaction(r.Context(), tx)
	if err != nil {
		statusCode, code, message, details := mapServiceError(err)
		respondError(w, statusCode, code, message, details)
		return
	}

	// Only the generated id goes back to the caller
	respondJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}

// handleListTransactions handles GET /api/users/{id}/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	transactions, err := s.accountService.ListTransactions(r.Context(), userID)
	if err != nil {
		statusCode, code, message, details := mapServiceError(err)
		respondError(w, statusCode, code, message, details)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":       userID,
		"transactions": transactions,
	})
}

// parseUserID extracts the numeric user id from the URL, responding with a
// 400 on malformed input
func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "User ID must be a positive integer", nil)
		return 0, false
	}
	return userID, true
}
