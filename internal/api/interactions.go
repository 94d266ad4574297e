package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ipetrenko/enerdex/internal/storage"
)

const (
	defaultInteractionLimit = 50
	maxInteractionLimit     = 500
)

type InteractionResponse struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"created_at"`
	Kind        string `json:"kind"`
	Question    string `json:"question"`
	Outcome     string `json:"outcome"`
	ReplyText   string `json:"reply_text,omitempty"`
	SearchQuery string `json:"search_query,omitempty"`
	SQL         string `json:"sql,omitempty"`
	ErrorText   string `json:"error_text,omitempty"`
}

func interactionResponse(i storage.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:          i.ID,
		CreatedAt:   i.CreatedAt.UTC().Format(time.RFC3339),
		Kind:        i.Kind,
		Question:    i.Question,
		Outcome:     i.Outcome,
		ReplyText:   i.ReplyText,
		SearchQuery: i.SearchQuery,
		SQL:         i.SQL,
		ErrorText:   i.ErrorText,
	}
}

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultInteractionLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit")
				return
			}
			if n > maxInteractionLimit {
				n = maxInteractionLimit
			}
			limit = n
		}

		interactions, err := deps.Store.GetRecentInteractions(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing interactions: %v", err)
			return
		}

		out := make([]InteractionResponse, 0, len(interactions))
		for _, i := range interactions {
			out = append(out, interactionResponse(i))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		i, err := deps.Store.GetInteraction(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "interaction %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading interaction: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, interactionResponse(i))
	}
}

func handleDeleteInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Store.DeleteInteraction(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "interaction %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting interaction: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
