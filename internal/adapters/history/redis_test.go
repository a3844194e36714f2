package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/poyrazK/dnsq/internal/core/domain"
)

func TestRedisHistory(t *testing.T) {
	// 1. Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to run miniredis: %v", err)
	}
	defer mr.Close()

	// 2. Initialize RedisHistory with a small cap
	hist := NewRedisHistory(mr.Addr(), "", 0).WithLimit(2)
	defer hist.Close()
	ctx := context.Background()

	// 3. Record three lookups
	for _, name := range []string{"a.example.com", "b.example.com", "c.example.com"} {
		res := &domain.LookupResult{
			ID:       name + "-id",
			Name:     name,
			Server:   "192.0.2.1",
			Answers:  []domain.Answer{{Type: domain.TypeA, Value: "192.0.2.10", TTL: 300}},
			Attempts: 1,
			Duration: 3 * time.Millisecond,
		}
		if err := hist.Record(ctx, res); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	// 4. Only the newest two survive, newest first
	got, err := hist.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Name != "c.example.com" || got[1].Name != "b.example.com" {
		t.Errorf("Unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].Answers[0].Value != "192.0.2.10" || got[0].Duration != 3*time.Millisecond {
		t.Errorf("Entry did not round trip: %+v", got[0])
	}

	// 5. Recent honours n
	one, _ := hist.Recent(ctx, 1)
	if len(one) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(one))
	}
	none, _ := hist.Recent(ctx, 0)
	if len(none) != 0 {
		t.Errorf("Expected no entries for n=0")
	}
}

func TestRedisHistory_CorruptEntry(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	_, _ = mr.Lpush(HistoryKey, "not json")

	hist := NewRedisHistory(mr.Addr(), "", 0)
	if _, err := hist.Recent(context.Background(), 5); err == nil {
		t.Error("Expected error for corrupt entry")
	}
}

func TestRedisHistory_Ping(t *testing.T) {
	mr, _ := miniredis.Run()
	hist := NewRedisHistory(mr.Addr(), "", 0)
	if err := hist.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	mr.Close()
	if err := hist.Record(context.Background(), &domain.LookupResult{Name: "x"}); err == nil {
		t.Error("Expected error once redis is gone")
	}
}
