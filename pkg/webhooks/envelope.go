package webhooks

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a class of internal event (e.g. "order.created").
type EventType string

// Envelope is the wire payload delivered to a subscriber. It is fully
// determined before signing; signing never mutates it.
type Envelope struct {
	ID             string      `json:"id"`
	Created        int64       `json:"created"`
	IdempotencyKey string      `json:"idempotency_key"`
	APIVersion     string      `json:"api_version"`
	Type           EventType   `json:"type"`
	Data           interface{} `json:"data,omitempty"`
}

// newEnvelope builds an envelope for one subscriber. ID and Created are fresh
// per subscriber; the idempotency key is shared across the whole fan-out batch
// so receivers can deduplicate redeliveries of the same logical event.
func newEnvelope(apiVersion string, eventType EventType, data interface{}, idempotencyKey string) *Envelope {
	return &Envelope{
		ID:             uuid.NewString(),
		Created:        time.Now().UnixMilli(),
		IdempotencyKey: idempotencyKey,
		APIVersion:     apiVersion,
		Type:           eventType,
		Data:           data,
	}
}
