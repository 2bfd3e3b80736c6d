package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

var errTransport = errors.New("connection refused")

func setupHandlers(t *testing.T, opts ...Option) (*Client, *mux.Router) {
	t.Helper()
	client := newTestClient(t, Config{APIVersion: "v1", Secret: "s"}, opts...)
	router := mux.NewRouter()
	NewHandlers(client).RegisterRoutes(router)
	return client, router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_AddAndListHooks(t *testing.T) {
	client, router := setupHandlers(t)

	rec := doJSON(t, router, http.MethodPost, "/hooks", Subscription{
		URL:    "https://example.com/hook",
		Events: []EventType{"created"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	subs := client.Subscriptions()
	if len(subs) != 1 || subs[0].URL != "https://example.com/hook" {
		t.Fatalf("Expected the hook to be registered, got %+v", subs)
	}

	rec = doJSON(t, router, http.MethodGet, "/hooks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var listed []Subscription
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("Failed to decode hook list: %v", err)
	}
	if len(listed) != 1 || len(listed[0].Events) != 1 || listed[0].Events[0] != "created" {
		t.Errorf("Unexpected hook list: %+v", listed)
	}
}

func TestHandlers_AddHookValidation(t *testing.T) {
	_, router := setupHandlers(t)

	rec := doJSON(t, router, http.MethodPost, "/hooks", Subscription{Events: []EventType{"created"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing url, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/hooks", bytes.NewReader([]byte("not json")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestHandlers_TriggerEvent(t *testing.T) {
	sender := &stubSender{}
	client, router := setupHandlers(t, WithSender(sender))
	client.Add("https://example.com/hook")
	client.Add("https://example.com/other", "created")

	rec := doJSON(t, router, http.MethodPost, "/events", TriggerRequest{
		Type: "created",
		Data: map[string]interface{}{"key": "value"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result TriggerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode trigger response: %v", err)
	}
	if result.Delivered != 2 {
		t.Errorf("Expected 2 deliveries, got %d", result.Delivered)
	}
	if len(result.Statuses) != 2 || result.Statuses[0] != http.StatusOK {
		t.Errorf("Unexpected statuses: %v", result.Statuses)
	}
}

func TestHandlers_TriggerEventValidation(t *testing.T) {
	_, router := setupHandlers(t, WithSender(&stubSender{}))

	rec := doJSON(t, router, http.MethodPost, "/events", TriggerRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing type, got %d", rec.Code)
	}
}

func TestHandlers_TriggerEventFailure(t *testing.T) {
	sender := &stubSender{fail: map[string]error{
		"https://down.example.com": errTransport,
	}}
	client, router := setupHandlers(t, WithSender(sender))
	client.Add("https://up.example.com")
	client.Add("https://down.example.com")

	rec := doJSON(t, router, http.MethodPost, "/events", TriggerRequest{Type: "created"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 when a delivery fails, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	details, _ := body["details"].(map[string]interface{})
	if details["delivered"] != "1" {
		t.Errorf("Expected the partial delivery count in the error details, got %v", body)
	}
}

func TestHandlers_Deliveries(t *testing.T) {
	sender := &stubSender{}
	client, router := setupHandlers(t, WithSender(sender))
	client.Add("https://a.example.com")
	client.Add("https://b.example.com")

	doJSON(t, router, http.MethodPost, "/events", TriggerRequest{Type: "created"})

	rec := doJSON(t, router, http.MethodGet, "/deliveries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var deliveries []*Delivery
	if err := json.Unmarshal(rec.Body.Bytes(), &deliveries); err != nil {
		t.Fatalf("Failed to decode deliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("Expected 2 delivery records, got %d", len(deliveries))
	}

	rec = doJSON(t, router, http.MethodGet, "/deliveries?url=https://a.example.com", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &deliveries); err != nil {
		t.Fatalf("Failed to decode deliveries: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].URL != "https://a.example.com" {
		t.Errorf("Unexpected per-url deliveries: %+v", deliveries)
	}

	rec = doJSON(t, router, http.MethodGet, "/deliveries/stats", nil)
	var stats DeliveryStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Succeeded != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestHandlers_TriggerAsync(t *testing.T) {
	sender := &stubSender{}
	client, router := setupHandlers(t, WithSender(sender))
	client.Add("https://example.com/hook")

	rec := doJSON(t, router, http.MethodPost, "/events", TriggerRequest{Type: "created", Async: true})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for async trigger, got %d", rec.Code)
	}

	// The fan-out is detached; give it a moment to land.
	deadline := time.After(2 * time.Second)
	for sender.len() == 0 {
		select {
		case <-deadline:
			t.Fatal("Async delivery never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
