package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ipetrenko/enerdex/internal/assistant"
	"github.com/ipetrenko/enerdex/internal/dispatch"
	"github.com/ipetrenko/enerdex/internal/llm"
	"github.com/ipetrenko/enerdex/internal/storage"
)

const testToken = "test-token"

// newTestHandler wires a real store and coordinator behind the router, with
// the model stubbed out by gen (nil means unconfigured).
func newTestHandler(t *testing.T, gen llm.Generator) (http.Handler, *storage.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	openRead := func() (*storage.ReadHandle, error) {
		return storage.OpenReadOnly(dir)
	}
	asst := assistant.New(gen, assistant.ProducersSchema(), openRead, 0, 5)

	coord := dispatch.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.Run(ctx)

	return NewHandler(Deps{
		Store:       store,
		Assistant:   asst,
		Coordinator: coord,
		Token:       testToken,
	}), store
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func seedProducer(t *testing.T, store *storage.Store) int64 {
	t.Helper()
	id, err := store.CreateProducer(context.Background(), storage.Producer{
		Name:     "Acme Wind",
		Products: "turbines",
		Category: "Wind",
	})
	if err != nil {
		t.Fatalf("seeding producer: %v", err)
	}
	return id
}

func TestHealth_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer nope"},
		{"wrong scheme", "Basic " + testToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/producers", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestChat_Grounded(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "Acme Wind sells turbines.", nil
	})
	h, store := newTestHandler(t, gen)
	seedProducer(t, store)

	rec := doRequest(t, h, "POST", "/chat", ChatRequest{Question: "who sells turbines?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp ChatResponse
	decodeResponse(t, rec, &resp)
	if resp.Kind != "grounded" {
		t.Errorf("kind = %q, want grounded", resp.Kind)
	}
	if resp.Text != "Acme Wind sells turbines." {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.SearchURL != "" {
		t.Errorf("search_url = %q, want empty", resp.SearchURL)
	}

	ix, err := store.GetInteraction(context.Background(), resp.InteractionID)
	if err != nil {
		t.Fatalf("interaction not logged: %v", err)
	}
	if ix.Kind != "chat" || ix.Outcome != "grounded" {
		t.Errorf("logged interaction = %+v", ix)
	}
}

func TestChat_Fallback(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I don't have that. [WEB_SEARCH_SUGGESTION: tidal producers]", nil
	})
	h, store := newTestHandler(t, gen)

	rec := doRequest(t, h, "POST", "/chat", ChatRequest{Question: "tidal producers?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp ChatResponse
	decodeResponse(t, rec, &resp)
	if resp.Kind != "fallback" {
		t.Errorf("kind = %q, want fallback", resp.Kind)
	}
	if resp.SearchQuery != "tidal producers" {
		t.Errorf("search_query = %q", resp.SearchQuery)
	}
	if resp.SearchURL == "" {
		t.Error("search_url empty, want derived URL")
	}

	ix, err := store.GetInteraction(context.Background(), resp.InteractionID)
	if err != nil {
		t.Fatalf("interaction not logged: %v", err)
	}
	if ix.Outcome != "fallback" || ix.SearchQuery != "tidal producers" {
		t.Errorf("logged interaction = %+v", ix)
	}
}

func TestChat_ModelUnavailable(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := doRequest(t, h, "POST", "/chat", ChatRequest{Question: "anything"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503; body %s", rec.Code, rec.Body)
	}
}

func TestChat_MissingQuestion(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := doRequest(t, h, "POST", "/chat", ChatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQuery_Rows(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "SELECT name FROM producers ORDER BY name", nil
	})
	h, store := newTestHandler(t, gen)
	seedProducer(t, store)

	rec := doRequest(t, h, "POST", "/query", QueryRequest{Question: "list producer names"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp QueryResponse
	decodeResponse(t, rec, &resp)
	if resp.SQL != "SELECT name FROM producers ORDER BY name" {
		t.Errorf("sql = %q", resp.SQL)
	}
	if len(resp.Rows) != 1 || resp.Rows[0][0] != "Acme Wind" {
		t.Errorf("rows = %v", resp.Rows)
	}

	ix, err := store.GetInteraction(context.Background(), resp.InteractionID)
	if err != nil {
		t.Fatalf("interaction not logged: %v", err)
	}
	if ix.Kind != "query" || ix.Outcome != "rows" || ix.SQL == "" {
		t.Errorf("logged interaction = %+v", ix)
	}
}

func TestQuery_Rejected(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "DROP TABLE producers", nil
	})
	h, store := newTestHandler(t, gen)
	seedProducer(t, store)

	rec := doRequest(t, h, "POST", "/query", QueryRequest{Question: "destroy it"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body %s", rec.Code, rec.Body)
	}

	// The allow-list refused the statement before it touched the store.
	producers, err := store.ListProducers(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ListProducers() error = %v", err)
	}
	if len(producers) != 1 {
		t.Errorf("producer rows = %d after rejected query, want 1", len(producers))
	}

	recent, err := store.GetRecentInteractions(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentInteractions() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Outcome != "rejected" {
		t.Errorf("logged interactions = %+v", recent)
	}
}

func TestQuery_ExecutionError(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "SELECT nope FROM producers", nil
	})
	h, store := newTestHandler(t, gen)
	seedProducer(t, store)

	rec := doRequest(t, h, "POST", "/query", QueryRequest{Question: "bad column"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body %s", rec.Code, rec.Body)
	}
}

func TestProducers_CRUD(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := doRequest(t, h, "POST", "/producers", ProducerPayload{
		Name:     "Helio Corp",
		Products: "solar panels",
		Category: "Solar",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created ProducerResponse
	decodeResponse(t, rec, &created)
	if created.ID <= 0 || created.Name != "Helio Corp" {
		t.Fatalf("created = %+v", created)
	}

	// Duplicate name conflicts.
	rec = doRequest(t, h, "POST", "/producers", ProducerPayload{Name: "Helio Corp"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, h, "GET", fmt.Sprintf("/producers/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, h, "PUT", fmt.Sprintf("/producers/%d", created.ID), ProducerPayload{
		Name:     "Helio Corp",
		Products: "solar panels, inverters",
		Category: "Solar",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	var updated ProducerResponse
	decodeResponse(t, rec, &updated)
	if updated.Products != "solar panels, inverters" {
		t.Errorf("updated products = %q", updated.Products)
	}

	rec = doRequest(t, h, "DELETE", fmt.Sprintf("/producers/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, h, "GET", fmt.Sprintf("/producers/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestProducers_ListFilter(t *testing.T) {
	h, store := newTestHandler(t, nil)
	seedProducer(t, store)
	if _, err := store.CreateProducer(context.Background(), storage.Producer{
		Name: "Helio Corp", Category: "Solar",
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	rec := doRequest(t, h, "GET", "/producers?search=wind&by=category", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []ProducerResponse
	decodeResponse(t, rec, &list)
	if len(list) != 1 || list[0].Name != "Acme Wind" {
		t.Errorf("filtered list = %+v", list)
	}
}

func TestProducers_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := doRequest(t, h, "GET", "/producers/not-a-number", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestInteractions_ListAndDelete(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "Answer.", nil
	})
	h, _ := newTestHandler(t, gen)

	rec := doRequest(t, h, "POST", "/chat", ChatRequest{Question: "solar producers"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}
	var chat ChatResponse
	decodeResponse(t, rec, &chat)

	rec = doRequest(t, h, "GET", "/interactions?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []InteractionResponse
	decodeResponse(t, rec, &list)
	if len(list) != 1 || list[0].ID != chat.InteractionID {
		t.Fatalf("interactions = %+v", list)
	}

	rec = doRequest(t, h, "GET", "/interactions/"+chat.InteractionID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = doRequest(t, h, "DELETE", "/interactions/"+chat.InteractionID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, h, "GET", "/interactions/"+chat.InteractionID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestInteractions_InvalidLimit(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := doRequest(t, h, "GET", "/interactions?limit=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestInteractions_LimitIsCapped(t *testing.T) {
	h, store := newTestHandler(t, nil)

	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < maxInteractionLimit+10; i++ {
		err := store.SaveInteraction(ctx, storage.Interaction{
			ID:        uuid.New().String(),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Kind:      "chat",
			Question:  fmt.Sprintf("question %d", i),
			Outcome:   "grounded",
		})
		if err != nil {
			t.Fatalf("seeding interaction %d: %v", i, err)
		}
	}

	rec := doRequest(t, h, "GET", "/interactions?limit=1000000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []InteractionResponse
	decodeResponse(t, rec, &list)
	if len(list) != maxInteractionLimit {
		t.Errorf("len(list) = %d, want %d", len(list), maxInteractionLimit)
	}
}
