package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Mode tags every delivery with the environment it originated from via the
// X-Environment header.
type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

// Subscription is a registered subscriber endpoint. An empty Events filter
// means the subscriber receives every event type. Duplicate URLs are legal
// and each is delivered to independently.
type Subscription struct {
	URL    string      `json:"url"`
	Events []EventType `json:"events,omitempty"`
}

// matches reports whether the subscription wants the given event type.
func (s Subscription) matches(eventType EventType) bool {
	if len(s.Events) == 0 {
		return true
	}
	for _, e := range s.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Observer is invoked once per delivered subscriber after the transport call
// resolves, never before. A non-nil error fails that delivery's completion.
type Observer func(ctx context.Context, url string, envelope *Envelope, resp *http.Response) error

// Sender issues the outbound POST for one delivery. *http.Client satisfies it,
// and tests can substitute a stub to capture requests without a network.
type Sender interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives measurements from the dispatch pipeline.
// observability.Metrics satisfies it.
type Recorder interface {
	ObserveEvent(eventType EventType)
	ObserveDelivery(eventType EventType, status string, duration time.Duration)
	ObserveRateLimited(url string)
	SetSubscriptions(count int)
}

// Config holds Client construction options. APIVersion and Secret are
// required; everything else has a working default.
type Config struct {
	// APIVersion is stamped into every envelope.
	APIVersion string `json:"api_version" yaml:"api_version"`
	// Secret keys the HMAC-SHA256 signature on every delivery.
	Secret string `json:"secret" yaml:"secret"`
	// Hooks seeds the subscription registry.
	Hooks []Subscription `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	// Mode defaults to ModeSandbox.
	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Name, when set, renames the signature header from X-Signature to
	// X-<Name>-Signature.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

func (c Config) validate() error {
	if c.APIVersion == "" {
		return fmt.Errorf("webhooks: api version is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("webhooks: secret is required")
	}
	switch c.Mode {
	case "", ModeSandbox, ModeProduction:
	default:
		return fmt.Errorf("webhooks: invalid mode %q (must be %q or %q)", c.Mode, ModeSandbox, ModeProduction)
	}
	return nil
}

// Client fans out signed event notifications to subscribed URLs. One Client
// per logical webhook configuration; independent Clients share no state.
type Client struct {
	apiVersion string
	secret     string
	mode       Mode
	name       string

	mu        sync.Mutex
	subs      []Subscription
	observers []Observer

	sender     Sender
	deliveries *DeliveryLog
	limiter    Limiter
	recorder   Recorder
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithSender replaces the HTTP transport used for deliveries.
func WithSender(s Sender) Option {
	return func(c *Client) { c.sender = s }
}

// WithLimiter gates deliveries through a per-URL rate limiter.
func WithLimiter(l Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRecorder wires delivery measurements into a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithDeliveryLog replaces the default delivery log, e.g. to change capacity.
func WithDeliveryLog(log *DeliveryLog) Option {
	return func(c *Client) { c.deliveries = log }
}

// New validates cfg and builds a Client. The default transport is a plain
// http.Client with no timeout: delivery deadlines are the caller's via ctx.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeSandbox
	}

	c := &Client{
		apiVersion: cfg.APIVersion,
		secret:     cfg.Secret,
		mode:       mode,
		name:       cfg.Name,
		subs:       append([]Subscription(nil), cfg.Hooks...),
		sender:     &http.Client{},
		deliveries: NewDeliveryLog(0),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.recorder != nil {
		c.recorder.SetSubscriptions(len(c.subs))
	}
	return c, nil
}

// Add registers a subscriber URL with an optional event filter and never
// fails. No URL validation and no deduplication are performed.
func (c *Client) Add(url string, events ...EventType) {
	c.mu.Lock()
	c.subs = append(c.subs, Subscription{URL: url, Events: events})
	count := len(c.subs)
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.SetSubscriptions(count)
	}
}

// Subscribe registers a completion observer. Observers run sequentially per
// delivery, in registration order, and cannot be removed.
func (c *Client) Subscribe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Subscriptions returns a snapshot of the registry in registration order.
func (c *Client) Subscriptions() []Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Subscription(nil), c.subs...)
}

// Deliveries returns the client's delivery log.
func (c *Client) Deliveries() *DeliveryLog {
	return c.deliveries
}

// Trigger delivers eventType with an optional payload to every matching
// subscriber concurrently and returns the transport responses in match order.
//
// All deliveries run to completion even when one fails; the first failure is
// returned once every delivery has settled, with the response slice populated
// for the deliveries that did succeed. Zero matching subscribers is a silent
// no-op resolving to an empty slice. Response bodies are left open for the
// caller to inspect and close.
func (c *Client) Trigger(ctx context.Context, eventType EventType, data interface{}) ([]*http.Response, error) {
	c.mu.Lock()
	subs := append([]Subscription(nil), c.subs...)
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.ObserveEvent(eventType)
	}

	var matched []Subscription
	for _, s := range subs {
		if s.matches(eventType) {
			matched = append(matched, s)
		}
	}

	responses := make([]*http.Response, len(matched))
	if len(matched) == 0 {
		return responses, nil
	}

	// One idempotency key per fan-out batch, shared by every subscriber's
	// envelope for this trigger.
	idempotencyKey := uuid.NewString()

	// A plain errgroup (no shared context) so one failed delivery neither
	// cancels nor blocks its siblings; Wait still surfaces the first error
	// after all deliveries have settled.
	var eg errgroup.Group
	for i, sub := range matched {
		i, sub := i, sub
		eg.Go(func() error {
			resp, err := c.deliver(ctx, sub.URL, eventType, data, idempotencyKey, observers)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return responses, err
	}
	return responses, nil
}

// deliver performs the three-step protocol for a single subscriber: build the
// envelope, serialize-and-sign, send. Observers run after the response
// arrives.
func (c *Client) deliver(ctx context.Context, url string, eventType EventType, data interface{}, idempotencyKey string, observers []Observer) (*http.Response, error) {
	start := time.Now()

	if c.limiter != nil {
		allowed, err := c.limiter.Allow(ctx, url)
		if err == nil && !allowed {
			limitErr := fmt.Errorf("webhooks: rate limit exceeded for %s", url)
			if c.recorder != nil {
				c.recorder.ObserveRateLimited(url)
			}
			c.record(url, eventType, "", idempotencyKey, 0, limitErr, start)
			return nil, limitErr
		}
		// Limiter errors fail open so a limiter outage cannot take down
		// deliveries.
	}

	envelope := newEnvelope(c.apiVersion, eventType, data, idempotencyKey)

	// Serialize exactly once: the signature is computed over literally the
	// bytes placed in the request body.
	body, err := json.Marshal(envelope)
	if err != nil {
		c.record(url, eventType, envelope.ID, idempotencyKey, 0, err, start)
		return nil, fmt.Errorf("webhooks: marshal envelope: %w", err)
	}
	signature := Sign(c.secret, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.record(url, eventType, envelope.ID, idempotencyKey, 0, err, start)
		return nil, fmt.Errorf("webhooks: build request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Environment", string(c.mode))
	// Written into the header map directly so the configured instance name
	// keeps its exact casing instead of being MIME-canonicalized.
	req.Header[c.signatureHeader()] = []string{signature}

	resp, err := c.sender.Do(req)
	if err != nil {
		c.record(url, eventType, envelope.ID, idempotencyKey, 0, err, start)
		return nil, fmt.Errorf("webhooks: post %s: %w", url, err)
	}

	// Non-2xx is not an error at this layer; the response is handed to
	// observers and the caller unconditionally.
	for _, fn := range observers {
		if err := fn(ctx, url, envelope, resp); err != nil {
			obsErr := fmt.Errorf("webhooks: observer for %s: %w", url, err)
			c.record(url, eventType, envelope.ID, idempotencyKey, resp.StatusCode, obsErr, start)
			return nil, obsErr
		}
	}

	c.record(url, eventType, envelope.ID, idempotencyKey, resp.StatusCode, nil, start)
	return resp, nil
}

// signatureHeader returns X-Signature, or X-<Name>-Signature when an instance
// name is configured.
func (c *Client) signatureHeader() string {
	if c.name == "" {
		return "X-Signature"
	}
	return "X-" + c.name + "-Signature"
}

// record books a completed delivery attempt into the delivery log and the
// optional metrics recorder.
func (c *Client) record(url string, eventType EventType, eventID, idempotencyKey string, statusCode int, deliverErr error, start time.Time) {
	duration := time.Since(start)

	delivery := &Delivery{
		ID:             uuid.NewString(),
		URL:            url,
		EventType:      eventType,
		EventID:        eventID,
		IdempotencyKey: idempotencyKey,
		StatusCode:     statusCode,
		Status:         DeliveryStatusSucceeded,
		Duration:       duration,
		CreatedAt:      start,
	}
	if deliverErr != nil {
		delivery.Status = DeliveryStatusFailed
		delivery.Error = deliverErr.Error()
	}
	c.deliveries.Add(delivery)

	if c.recorder != nil {
		c.recorder.ObserveDelivery(eventType, string(delivery.Status), duration)
	}
}
