package api

import (
	"net/http"
	"time"
)

// handleGetValuation handles GET /api/users/{id}/valuation
func (s *Server) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	valuation, err := s.valuationService.Valuation(r.Context(), userID)
	if err != nil {
		statusCode, code, message, details := mapServiceError(err)
		respondError(w, statusCode, code, message, details)
		return
	}

	respondJSON(w, http.StatusOK, valuation)
}

// handleGetBreakdown handles GET /api/users/{id}/breakdown
func (s *Server) handleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	breakdown, err := s.valuationService.Breakdown(r.Context(), userID)
	if err != nil {
		statusCode, code, message, details := mapServiceError(err)
		respondError(w, statusCode, code, message, details)
		return
	}

	respondJSON(w, http.StatusOK, breakdown)
}

// handleListSnapshots handles GET /api/users/{id}/snapshots?from=...&to=...
// Dates are YYYY-MM-DD; the range defaults to the trailing 30 days.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "from must be a YYYY-MM-DD date", nil)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "to must be a YYYY-MM-DD date", nil)
			return
		}
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "to must not be before from", nil)
		return
	}

	snapshots, err := s.snapshotService.ListSnapshots(r.Context(), userID, from, to)
	if err != nil {
		statusCode, code, message, details := mapServiceError(err)
		respondError(w, statusCode, code, message, details)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":    userID,
		"snapshots": snapshots,
	})
}
