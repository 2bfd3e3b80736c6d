package webhooks

import (
	"fmt"
	"testing"
	"time"
)

func newDelivery(id, url string, status DeliveryStatus, duration time.Duration) *Delivery {
	return &Delivery{
		ID:             id,
		URL:            url,
		EventType:      "created",
		IdempotencyKey: "batch-1",
		Status:         status,
		Duration:       duration,
		CreatedAt:      time.Now(),
	}
}

func TestDeliveryLog_AddGet(t *testing.T) {
	log := NewDeliveryLog(10)

	log.Add(newDelivery("d1", "https://a.example.com", DeliveryStatusSucceeded, time.Millisecond))

	got, ok := log.Get("d1")
	if !ok {
		t.Fatal("Expected to find delivery d1")
	}
	if got.URL != "https://a.example.com" || got.Status != DeliveryStatusSucceeded {
		t.Errorf("Unexpected delivery: %+v", got)
	}

	if _, ok := log.Get("missing"); ok {
		t.Error("Expected miss for unknown id")
	}
}

func TestDeliveryLog_Recent(t *testing.T) {
	log := NewDeliveryLog(10)
	for i := 0; i < 5; i++ {
		log.Add(newDelivery(fmt.Sprintf("d%d", i), "https://a.example.com", DeliveryStatusSucceeded, time.Millisecond))
	}

	recent := log.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(recent))
	}
	// Newest first.
	for i, want := range []string{"d4", "d3", "d2"} {
		if recent[i].ID != want {
			t.Errorf("Entry %d: expected %s, got %s", i, want, recent[i].ID)
		}
	}

	if got := len(log.Recent(0)); got != 5 {
		t.Errorf("Expected limit 0 to return everything, got %d", got)
	}
}

func TestDeliveryLog_ByURL(t *testing.T) {
	log := NewDeliveryLog(10)
	log.Add(newDelivery("d1", "https://a.example.com", DeliveryStatusSucceeded, time.Millisecond))
	log.Add(newDelivery("d2", "https://b.example.com", DeliveryStatusFailed, time.Millisecond))
	log.Add(newDelivery("d3", "https://a.example.com", DeliveryStatusFailed, time.Millisecond))

	got := log.ByURL("https://a.example.com", 0)
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries for url, got %d", len(got))
	}
	if got[0].ID != "d3" || got[1].ID != "d1" {
		t.Errorf("Expected newest first, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestDeliveryLog_Eviction(t *testing.T) {
	log := NewDeliveryLog(3)
	for i := 0; i < 5; i++ {
		log.Add(newDelivery(fmt.Sprintf("d%d", i), "https://a.example.com", DeliveryStatusSucceeded, time.Millisecond))
	}

	if log.Len() != 3 {
		t.Errorf("Expected capacity 3 to be enforced, got %d entries", log.Len())
	}
	if _, ok := log.Get("d0"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if _, ok := log.Get("d4"); !ok {
		t.Error("Expected newest entry to be retained")
	}
}

func TestDeliveryLog_Stats(t *testing.T) {
	log := NewDeliveryLog(10)
	log.Add(newDelivery("d1", "https://a.example.com", DeliveryStatusSucceeded, 100*time.Millisecond))
	log.Add(newDelivery("d2", "https://a.example.com", DeliveryStatusFailed, 300*time.Millisecond))
	log.Add(newDelivery("d3", "https://b.example.com", DeliveryStatusSucceeded, 50*time.Millisecond))

	stats := log.Stats("https://a.example.com")
	if stats.Total != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("Unexpected per-url stats: %+v", stats)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("Expected success rate 0.5, got %f", stats.SuccessRate)
	}
	if stats.AverageDuration != 200*time.Millisecond {
		t.Errorf("Expected average duration 200ms, got %s", stats.AverageDuration)
	}

	all := log.Stats("")
	if all.Total != 3 || all.Succeeded != 2 {
		t.Errorf("Unexpected global stats: %+v", all)
	}

	empty := NewDeliveryLog(10).Stats("")
	if empty.Total != 0 || empty.SuccessRate != 0 {
		t.Errorf("Expected zero stats for empty log, got %+v", empty)
	}
}
