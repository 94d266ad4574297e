package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ipetrenko/enerdex/internal/assistant"
	"github.com/ipetrenko/enerdex/internal/storage"
)

type SuggestRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type SuggestResponse struct {
	Category string `json:"category"`
	Products string `json:"products"`
}

type ReviewResponse struct {
	Assessment string `json:"assessment"`
}

// handleSuggestProducer infers category and products for a record from its
// name, contact and address. Callers apply the suggestion to whichever
// fields they left blank; the endpoint never touches the store.
func handleSuggestProducer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SuggestRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		res, err := runUnit(r.Context(), deps.Coordinator, func(ctx context.Context) (any, error) {
			return deps.Assistant.SuggestFields(ctx, storage.Producer{
				Name:    req.Name,
				Contact: req.Contact,
				Address: req.Address,
			})
		})
		if err != nil {
			return
		}
		if res.Err != nil {
			writeAssistantError(w, res.Err)
			return
		}

		s := res.Value.(assistant.FieldSuggestion)
		writeJSON(w, http.StatusOK, SuggestResponse{
			Category: s.Category,
			Products: s.Products,
		})
	}
}

// handleReviewProducer asks the model to assess a stored record. An empty
// assessment means the model found nothing to flag.
func handleReviewProducer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := producerID(w, r)
		if !ok {
			return
		}
		p, err := deps.Store.GetProducer(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "producer %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading producer: %v", err)
			return
		}

		res, err := runUnit(r.Context(), deps.Coordinator, func(ctx context.Context) (any, error) {
			return deps.Assistant.ReviewProducer(ctx, p)
		})
		if err != nil {
			return
		}
		if res.Err != nil {
			writeAssistantError(w, res.Err)
			return
		}

		writeJSON(w, http.StatusOK, ReviewResponse{Assessment: res.Value.(string)})
	}
}
