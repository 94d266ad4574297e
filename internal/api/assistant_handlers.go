package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ipetrenko/enerdex/internal/assistant"
	"github.com/ipetrenko/enerdex/internal/responder"
	"github.com/ipetrenko/enerdex/internal/storage"
)

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	InteractionID string `json:"interaction_id"`
	Kind          string `json:"kind"` // "grounded" or "fallback"
	Text          string `json:"text"`
	SearchQuery   string `json:"search_query,omitempty"`
	SearchURL     string `json:"search_url,omitempty"`
}

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	InteractionID string     `json:"interaction_id"`
	SQL           string     `json:"sql"`
	Columns       []string   `json:"columns"`
	Rows          [][]string `json:"rows"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		res, err := runUnit(r.Context(), deps.Coordinator, func(ctx context.Context) (any, error) {
			return deps.Assistant.Chat(ctx, req.Question)
		})
		if err != nil {
			// Caller went away; the unit finishes on its own.
			return
		}

		interaction := storage.Interaction{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC(),
			Kind:      "chat",
			Question:  req.Question,
		}

		if res.Err != nil {
			interaction.Outcome = "error"
			interaction.ErrorText = res.Err.Error()
			recordInteraction(r.Context(), deps.Store, interaction)
			writeAssistantError(w, res.Err)
			return
		}

		chat := res.Value.(assistant.ChatResult)
		resp := ChatResponse{
			InteractionID: interaction.ID,
			Kind:          "grounded",
			Text:          chat.Reply.Text,
		}
		interaction.Outcome = "grounded"
		interaction.ReplyText = chat.Reply.Text

		if chat.Reply.Kind == responder.FallbackSuggested {
			resp.Kind = "fallback"
			resp.SearchQuery = chat.Reply.SearchQuery
			resp.SearchURL = chat.SearchURL
			interaction.Outcome = "fallback"
			interaction.SearchQuery = chat.Reply.SearchQuery
		}

		recordInteraction(r.Context(), deps.Store, interaction)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleQuery(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		res, err := runUnit(r.Context(), deps.Coordinator, func(ctx context.Context) (any, error) {
			return deps.Assistant.Query(ctx, req.Question)
		})
		if err != nil {
			return
		}

		interaction := storage.Interaction{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC(),
			Kind:      "query",
			Question:  req.Question,
		}

		if res.Err != nil {
			var rejected *assistant.TranslationRejectedError
			if errors.As(res.Err, &rejected) {
				interaction.Outcome = "rejected"
			} else {
				interaction.Outcome = "error"
			}
			interaction.ErrorText = res.Err.Error()
			recordInteraction(r.Context(), deps.Store, interaction)
			writeAssistantError(w, res.Err)
			return
		}

		result := res.Value.(assistant.QueryResult)
		interaction.Outcome = "rows"
		interaction.SQL = result.Candidate.SQL
		recordInteraction(r.Context(), deps.Store, interaction)

		writeJSON(w, http.StatusOK, QueryResponse{
			InteractionID: interaction.ID,
			SQL:           result.Candidate.SQL,
			Columns:       result.Columns,
			Rows:          result.Rows,
		})
	}
}

// writeAssistantError maps the assistant error taxonomy onto HTTP statuses.
// Every failure is a readable message on the same channel as success.
func writeAssistantError(w http.ResponseWriter, err error) {
	var rejected *assistant.TranslationRejectedError
	var execErr *assistant.StoreExecutionError

	switch {
	case errors.Is(err, assistant.ErrModelUnavailable):
		httpError(w, http.StatusServiceUnavailable, "model_unavailable", "%v", err)
	case errors.Is(err, assistant.ErrTimedOut):
		httpError(w, http.StatusGatewayTimeout, "timed_out", "%v", err)
	case errors.As(err, &rejected):
		httpError(w, http.StatusUnprocessableEntity, "translation_rejected", "%v", err)
	case errors.As(err, &execErr):
		httpError(w, http.StatusBadRequest, "store_execution_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func recordInteraction(ctx context.Context, store *storage.Store, i storage.Interaction) {
	if err := store.SaveInteraction(ctx, i); err != nil {
		slog.Warn("recording interaction failed", "interaction_id", i.ID, "error", err)
	}
}
