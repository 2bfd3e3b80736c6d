package webhooks

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DeliveryStatus is the terminal outcome of one delivery attempt. There is no
// pending state: attempts are recorded only once they have settled.
type DeliveryStatus string

const (
	DeliveryStatusSucceeded DeliveryStatus = "succeeded"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Delivery records one settled delivery attempt to a single subscriber.
type Delivery struct {
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	EventType      EventType      `json:"event_type"`
	EventID        string         `json:"event_id,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	Status         DeliveryStatus `json:"status"`
	StatusCode     int            `json:"status_code,omitempty"`
	Error          string         `json:"error,omitempty"`
	Duration       time.Duration  `json:"duration"`
	CreatedAt      time.Time      `json:"created_at"`
}

// DeliveryLog keeps a bounded in-memory history of delivery attempts. Oldest
// entries are evicted once capacity is reached; nothing is persisted across
// process restarts.
type DeliveryLog struct {
	entries *lru.LRU[string, *Delivery]
}

const defaultDeliveryLogCapacity = 1000

// NewDeliveryLog creates a delivery log holding up to capacity entries.
// Capacities <= 0 fall back to 1000.
func NewDeliveryLog(capacity int) *DeliveryLog {
	if capacity <= 0 {
		capacity = defaultDeliveryLogCapacity
	}
	return &DeliveryLog{
		entries: lru.NewLRU[string, *Delivery](capacity, nil, 0),
	}
}

// Add records a settled delivery attempt.
func (l *DeliveryLog) Add(d *Delivery) {
	l.entries.Add(d.ID, d)
}

// Get retrieves a delivery by ID.
func (l *DeliveryLog) Get(id string) (*Delivery, bool) {
	return l.entries.Get(id)
}

// Recent returns up to limit deliveries, newest first. A limit <= 0 returns
// everything currently retained.
func (l *DeliveryLog) Recent(limit int) []*Delivery {
	values := l.entries.Values() // oldest to newest
	result := make([]*Delivery, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		result = append(result, values[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// ByURL returns up to limit deliveries for one subscriber URL, newest first.
func (l *DeliveryLog) ByURL(url string, limit int) []*Delivery {
	values := l.entries.Values()
	var result []*Delivery
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].URL != url {
			continue
		}
		result = append(result, values[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Len returns the number of retained entries.
func (l *DeliveryLog) Len() int {
	return l.entries.Len()
}

// DeliveryStats aggregates outcomes for one subscriber URL, or for all
// deliveries when URL is empty.
type DeliveryStats struct {
	URL             string        `json:"url,omitempty"`
	Total           int           `json:"total"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Stats computes aggregate delivery statistics over the retained history.
func (l *DeliveryLog) Stats(url string) DeliveryStats {
	stats := DeliveryStats{URL: url}

	var totalDuration time.Duration
	for _, d := range l.entries.Values() {
		if url != "" && d.URL != url {
			continue
		}
		stats.Total++
		switch d.Status {
		case DeliveryStatusSucceeded:
			stats.Succeeded++
		case DeliveryStatusFailed:
			stats.Failed++
		}
		totalDuration += d.Duration
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
		stats.AverageDuration = totalDuration / time.Duration(stats.Total)
	}
	return stats
}
