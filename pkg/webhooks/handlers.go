package webhooks

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/hub/pkg/async"
	"github.com/platinummonkey/hub/pkg/httputil"
)

// Handlers exposes webhook management and event triggering over HTTP.
type Handlers struct {
	client *Client
}

// NewHandlers creates HTTP handlers backed by the given client.
func NewHandlers(client *Client) *Handlers {
	return &Handlers{client: client}
}

// RegisterRoutes registers the management routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/hooks", h.addHook).Methods("POST")
	router.HandleFunc("/hooks", h.listHooks).Methods("GET")
	router.HandleFunc("/events", h.triggerEvent).Methods("POST")
	router.HandleFunc("/deliveries", h.listDeliveries).Methods("GET")
	router.HandleFunc("/deliveries/stats", h.deliveryStats).Methods("GET")
}

// addHook handles POST /hooks
func (h *Handlers) addHook(w http.ResponseWriter, r *http.Request) {
	var sub Subscription
	if !httputil.ParseJSONOrError(w, r, &sub) {
		return
	}
	if sub.URL == "" {
		httputil.WriteBadRequest(w, "url is required")
		return
	}

	h.client.Add(sub.URL, sub.Events...)
	httputil.WriteCreated(w, sub)
}

// listHooks handles GET /hooks
func (h *Handlers) listHooks(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.client.Subscriptions())
}

// TriggerRequest is the body for POST /events.
type TriggerRequest struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
	// Async detaches delivery from the request: the API answers 202 and the
	// fan-out continues in the background.
	Async bool `json:"async,omitempty"`
}

// TriggerResponse summarizes a synchronous fan-out.
type TriggerResponse struct {
	Delivered int   `json:"delivered"`
	Statuses  []int `json:"statuses"`
}

const asyncDispatchTimeout = 5 * time.Minute

// triggerEvent handles POST /events
func (h *Handlers) triggerEvent(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Type == "" {
		httputil.WriteBadRequest(w, "type is required")
		return
	}

	if req.Async {
		async.SafeGo(context.Background(), asyncDispatchTimeout, "webhook dispatch", func(ctx context.Context) error {
			responses, err := h.client.Trigger(ctx, req.Type, req.Data)
			drainResponses(responses)
			return err
		})
		httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	responses, err := h.client.Trigger(r.Context(), req.Type, req.Data)
	result := TriggerResponse{Statuses: make([]int, 0, len(responses))}
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		result.Statuses = append(result.Statuses, resp.StatusCode)
		result.Delivered++
		resp.Body.Close()
	}

	if err != nil {
		httputil.WriteDetailedError(w, http.StatusBadGateway, err, map[string]string{
			"delivered": strconv.Itoa(result.Delivered),
		})
		return
	}
	httputil.WriteSuccess(w, result)
}

// listDeliveries handles GET /deliveries
func (h *Handlers) listDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := httputil.ParseQueryInt(r, "limit", 50)

	if url := r.URL.Query().Get("url"); url != "" {
		httputil.WriteSuccess(w, h.client.Deliveries().ByURL(url, limit))
		return
	}
	httputil.WriteSuccess(w, h.client.Deliveries().Recent(limit))
}

// deliveryStats handles GET /deliveries/stats
func (h *Handlers) deliveryStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.client.Deliveries().Stats(r.URL.Query().Get("url")))
}

func drainResponses(responses []*http.Response) {
	for _, resp := range responses {
		if resp != nil {
			resp.Body.Close()
		}
	}
}
