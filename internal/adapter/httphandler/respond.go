package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

const maxBodySize = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	const op = "respondJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.With("op", op).Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps the error taxonomy to a status code.
func respondDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	var ue *domain.UpstreamError
	switch {
	case service.IsInputError(err):
		log.Info("invalid input", "err", err)
		respondError(w, http.StatusBadRequest, "invalid_input", inputMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "not found")
	case errors.As(err, &ue):
		log.Warn("upstream rejected request", "err", err)
		respondError(w, http.StatusUnprocessableEntity, "upstream_error", ue.UserMessage())
	case errors.Is(err, domain.ErrUpstream):
		log.Warn("upstream rejected request", "err", err)
		respondError(w, http.StatusUnprocessableEntity, "upstream_error", "request rejected")
	case errors.Is(err, domain.ErrContractViolation):
		log.Error("upstream broke response contract", "err", err)
		respondError(w, http.StatusBadGateway, "bad_gateway", "invalid upstream response")
	case errors.Is(err, domain.ErrTransport):
		log.Warn("upstream unavailable", "err", err)
		respondError(w, http.StatusBadGateway, "bad_gateway", "upstream unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", "err", err)
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Error("request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func inputMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return domain.ErrInvalidQuantity.Error()
	case errors.Is(err, domain.ErrEmptyLineKey):
		return domain.ErrEmptyLineKey.Error()
	default:
		return "invalid product or variation ID"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}
