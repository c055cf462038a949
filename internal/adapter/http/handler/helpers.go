package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/gobid/internal/adapter/http/dto"
	"github.com/iho/gobid/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Bid rejections
// and phase violations are conflicts: the request was well-formed but the
// auction state does not admit it.
func mapDomainError(err error) int {
	var (
		rejected     *domain.BidRejectedError
		missing      *domain.MissingFundsError
		unauthorized *domain.UnauthorizedError
	)

	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &rejected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBidClosed), errors.Is(err, domain.ErrBidOpen):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOwnerCannotBid):
		return http.StatusForbidden
	case errors.As(err, &missing):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidDenom),
		errors.Is(err, domain.ErrInvalidCommissionRate),
		errors.Is(err, domain.ErrInvalidCommissionMinimum):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return i
}
