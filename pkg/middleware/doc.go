// Package middleware provides HTTP middleware for the management API.
//
// # Overview
//
// Two middlewares are provided:
//
//   - RequestID: tags every request with a UUID, exposed via the
//     X-Request-ID response header and the request context, so management
//     calls can be correlated with the deliveries they triggered.
//   - RateLimit: per-client token bucket limiting for the management API
//     itself, keyed by client IP. This is separate from the per-subscriber
//     delivery rate limiting in pkg/webhooks.
//
// # Usage
//
//	router.Use(middleware.RequestID)
//	router.Use(middleware.NewRateLimit(nil).Handler)
//
// # Related Packages
//
//   - pkg/observability: context keys and logger annotation
//   - pkg/webhooks: outbound delivery rate limiting
package middleware
