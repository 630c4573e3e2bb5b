package answer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"docqa/internal/middleware"
)

const maxRequestBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(ctx, w, CodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(ctx, w, CodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	slog.InfoContext(ctx, "answering questions", "document", req.Documents, "questions", len(req.Questions), "correlationId", correlationID)

	resp, err := h.service.Run(ctx, req)
	if err != nil {
		code, status := ErrorCode(err)
		h.writeError(ctx, w, code, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// validate only checks the document reference. Empty or blank questions are
// answered like any other question that matches nothing.
func validate(req Request) error {
	if strings.TrimSpace(req.Documents) == "" {
		return errors.New("documents is required")
	}
	return nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
