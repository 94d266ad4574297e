package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ipetrenko/enerdex/internal/storage"
)

type ProducerPayload struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Products string `json:"products"`
	Category string `json:"category"`
}

type ProducerResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Products string `json:"products"`
	Category string `json:"category"`
}

func producerResponse(p storage.Producer) ProducerResponse {
	return ProducerResponse{
		ID:       p.ID,
		Name:     p.Name,
		Contact:  p.Contact,
		Address:  p.Address,
		Products: p.Products,
		Category: p.Category,
	}
}

func handleCreateProducer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProducerPayload
		if !decodeBody(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		exists, err := deps.Store.ProducerExists(r.Context(), req.Name)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "checking producer: %v", err)
			return
		}
		if exists {
			httpError(w, http.StatusConflict, "invalid_request_error", "a producer named %q already exists", req.Name)
			return
		}

		id, err := deps.Store.CreateProducer(r.Context(), storage.Producer{
			Name:     req.Name,
			Contact:  req.Contact,
			Address:  req.Address,
			Products: req.Products,
			Category: req.Category,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating producer: %v", err)
			return
		}

		p, err := deps.Store.GetProducer(r.Context(), id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading producer: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, producerResponse(p))
	}
}

func handleListProducers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		searchBy := r.URL.Query().Get("by")

		producers, err := deps.Store.ListProducers(r.Context(), search, searchBy)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "listing producers: %v", err)
			return
		}

		out := make([]ProducerResponse, 0, len(producers))
		for _, p := range producers {
			out = append(out, producerResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func producerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid producer id")
		return 0, false
	}
	return id, true
}

func handleGetProducer(deps Deps) http.HandlerFunc {
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
		writeJSON(w, http.StatusOK, producerResponse(p))
	}
}

func handleUpdateProducer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := producerID(w, r)
		if !ok {
			return
		}
		var req ProducerPayload
		if !decodeBody(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		// Renaming onto an existing producer is a conflict.
		current, err := deps.Store.GetProducer(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "producer %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading producer: %v", err)
			return
		}
		if req.Name != current.Name {
			exists, err := deps.Store.ProducerExists(r.Context(), req.Name)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "checking producer: %v", err)
				return
			}
			if exists {
				httpError(w, http.StatusConflict, "invalid_request_error", "a producer named %q already exists", req.Name)
				return
			}
		}

		err = deps.Store.UpdateProducer(r.Context(), storage.Producer{
			ID:       id,
			Name:     req.Name,
			Contact:  req.Contact,
			Address:  req.Address,
			Products: req.Products,
			Category: req.Category,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "updating producer: %v", err)
			return
		}

		p, err := deps.Store.GetProducer(r.Context(), id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading producer: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, producerResponse(p))
	}
}

func handleDeleteProducer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := producerID(w, r)
		if !ok {
			return
		}
		err := deps.Store.DeleteProducer(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "producer %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting producer: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
