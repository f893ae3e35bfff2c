package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/core"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

// ChatService answers one conversation turn.
type ChatService interface {
	Handle(ctx context.Context, messages []llm.Message) (*core.CompletionResponse, *core.Outcome, error)
}

// CostReporter aggregates the cost ledger.
type CostReporter interface {
	CostSummary(ctx context.Context) (*store.CostSummary, error)
}

type APIHandler struct {
	chat  ChatService
	costs CostReporter
}

func NewAPIHandler(chat ChatService, costs CostReporter) *APIHandler {
	return &APIHandler{chat: chat, costs: costs}
}

type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	resp, _, err := h.chat.Handle(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("error generating chat response")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to generate a response"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) CostsHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.costs.CostSummary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("error computing cost summary")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to compute costs"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
