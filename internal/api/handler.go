package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ipetrenko/enerdex/internal/assistant"
	"github.com/ipetrenko/enerdex/internal/dispatch"
	"github.com/ipetrenko/enerdex/internal/storage"
)

const maxBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Store       *storage.Store
	Assistant   *assistant.Assistant
	Coordinator *dispatch.Coordinator
	Token       string
}

// NewHandler builds the full router: an unauthenticated health endpoint plus
// bearer-protected assistant, producer, and interaction routes.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/chat", handleChat(deps))
		r.Post("/query", handleQuery(deps))

		r.Post("/producers", handleCreateProducer(deps))
		r.Post("/producers/suggest", handleSuggestProducer(deps))
		r.Post("/producers/{id}/review", handleReviewProducer(deps))
		r.Get("/producers", handleListProducers(deps))
		r.Get("/producers/{id}", handleGetProducer(deps))
		r.Put("/producers/{id}", handleUpdateProducer(deps))
		r.Delete("/producers/{id}", handleDeleteProducer(deps))

		r.Get("/interactions", handleListInteractions(deps))
		r.Get("/interactions/{id}", handleGetInteraction(deps))
		r.Delete("/interactions/{id}", handleDeleteInteraction(deps))
	})

	return r
}

// runUnit schedules fn as a work unit and waits for its completion callback.
// The unit itself is never cancelled once started; if ctx ends first the late
// result is simply dropped (the buffered channel keeps the consumer loop
// from stalling on it).
func runUnit(ctx context.Context, coord *dispatch.Coordinator, fn func(context.Context) (any, error)) (dispatch.Result, error) {
	done := make(chan dispatch.Result, 1)
	coord.Submit(context.Background(), fn, func(res dispatch.Result) {
		done <- res
	})

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return dispatch.Result{}, ctx.Err()
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
