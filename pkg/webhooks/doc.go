// Package webhooks delivers signed HTTP notifications for internal events to
// registered subscriber URLs.
//
// # Overview
//
// A Client holds an append-only subscription registry, a shared signing
// secret, and a list of completion observers. Triggering an event filters the
// registry by event interest, builds a signed envelope per subscriber, POSTs
// all matching deliveries concurrently, and invokes every observer once each
// response arrives.
//
// # Usage Example
//
// Construct a client and register a subscriber:
//
//	client, err := webhooks.New(webhooks.Config{
//		APIVersion: "2024-01-01",
//		Secret:     webhooks.GenerateSecret(0),
//	})
//	client.Add("https://api.example.com/hooks", "order.created")
//
// Observe completions and trigger an event:
//
//	client.Subscribe(func(ctx context.Context, url string, env *webhooks.Envelope, resp *http.Response) error {
//		log.Printf("delivered %s to %s: %d", env.Type, url, resp.StatusCode)
//		return nil
//	})
//	responses, err := client.Trigger(ctx, "order.created", order)
//
// Callers own the returned responses and must close their bodies.
//
// # Wire Format
//
// Each delivery is a POST whose JSON body is the envelope
// {id, created, idempotency_key, api_version, type, data} with headers
// Content-Type: application/json, X-Environment: sandbox|production, and
// X-Signature (or X-<Name>-Signature when a client name is configured)
// carrying hex(HMAC-SHA256(secret, body)). The signature is computed over
// exactly the bytes sent.
//
// # Receiver Verification
//
// Receivers recompute the HMAC over the raw request body before any JSON
// parsing:
//
//	sig := r.Header.Get("X-Signature")
//	if !webhooks.Verify(secret, sig, rawBody) {
//		return errors.New("invalid signature")
//	}
//
// # Delivery Semantics
//
// Deliveries carry no retries and no delivery-side timeout; deadlines belong
// to the caller's context. One failed delivery neither cancels nor blocks the
// others, and the first failure surfaces from Trigger only after every
// delivery has settled. Signing authenticates the payload, it does not
// encrypt it.
//
// # Related Packages
//
//   - pkg/observability: delivery metrics via the Recorder hook
//   - pkg/async: background dispatch from the management API
package webhooks
