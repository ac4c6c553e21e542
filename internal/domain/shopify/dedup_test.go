package shopify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDedupKey(t *testing.T) {
	cases := []struct {
		name string
		ev   RawEvent
		want string
	}{
		{
			name: "creation uses bare id",
			ev:   RawEvent{ID: "42", CreatedAt: "2024-05-15T10:00:00Z", UpdatedAt: "2024-05-15T10:00:00Z"},
			want: "42",
		},
		{
			name: "update appends updated_at",
			ev:   RawEvent{ID: "42", CreatedAt: "2024-05-15T10:00:00Z", UpdatedAt: "2024-05-15T14:00:00Z"},
			want: "42-2024-05-15T14:00:00Z",
		},
		{
			name: "missing timestamps treated as creation",
			ev:   RawEvent{ID: "42"},
			want: "42",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DedupKey(&tc.ev); got != tc.want {
				t.Errorf("DedupKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBlobKeyRoundTrip(t *testing.T) {
	arrival := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	cases := []string{
		"42",
		"42-2024-05-15T14:00:00Z",
		"abc-def-ghi",
	}
	for _, dedupKey := range cases {
		key := BlobKey(arrival, dedupKey)
		got, ok := DedupKeyFromBlobKey(key)
		if !ok {
			t.Fatalf("DedupKeyFromBlobKey(%q) not ok", key)
		}
		if got != dedupKey {
			t.Errorf("round trip of %q through %q = %q", dedupKey, key, got)
		}
	}
}

func TestDedupKeyFromBlobKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{"", "backup-123-42.json", "webhook-123-42", "webhook-.json"} {
		if got, ok := DedupKeyFromBlobKey(key); ok {
			t.Errorf("DedupKeyFromBlobKey(%q) = %q, want rejection", key, got)
		}
	}
}

func TestGateAdmitOnce(t *testing.T) {
	g := NewGate()
	if !g.Admit("k1") {
		t.Fatal("first admit should succeed")
	}
	if g.Admit("k1") {
		t.Fatal("second admit of same key should fail")
	}
	if !g.Admit("k2") {
		t.Fatal("distinct key should be admitted")
	}
}

func TestGateAdmitConcurrent(t *testing.T) {
	g := NewGate()
	const workers = 64

	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.Admit("same-key") {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if admitted.Load() != 1 {
		t.Fatalf("admitted %d times, want exactly 1", admitted.Load())
	}
}

func TestGateRelease(t *testing.T) {
	g := NewGate()
	g.Admit("k1")
	g.Release("k1")
	if !g.Admit("k1") {
		t.Fatal("released key should be admittable again")
	}
}

func TestGateSeed(t *testing.T) {
	g := NewGate()
	g.Seed([]string{"a", "b", "a"})
	if g.Len() != 2 {
		t.Fatalf("len = %d, want 2", g.Len())
	}
	if g.Admit("a") {
		t.Fatal("seeded key should be treated as already recorded")
	}
}
