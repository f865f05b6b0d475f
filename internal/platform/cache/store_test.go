package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errUnexpectedValue = errors.New("unexpected value")

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2025, 10, 5, 17, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Set(ctx, "projection:p1", 18.4)

	if v, ok := store.Get(ctx, "projection:p1"); !ok || v.(float64) != 18.4 {
		t.Fatalf("expected cached value inside TTL, got %v ok=%v", v, ok)
	}

	now = now.Add(61 * time.Second)
	if _, ok := store.Get(ctx, "projection:p1"); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestStore_Flush_DropsEverythingAtOnce(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Hour)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		store.Set(ctx, key, key)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Len())
	}

	store.Flush(ctx)

	if store.Len() != 0 {
		t.Fatalf("expected empty store after flush, got %d entries", store.Len())
	}
	if _, ok := store.Get(ctx, "a"); ok {
		t.Fatal("expected flushed key to be gone")
	}
}

// Readers racing a flush must observe either the old or the new generation,
// never an error or a torn map.
func TestStore_Flush_SafeUnderConcurrentReads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Hour)
	ctx := context.Background()
	for i := 0; i < 64; i++ {
		store.Set(ctx, string(rune('a'+i%26))+"x", i)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					store.Get(ctx, "ax")
					store.Set(ctx, "ax", 1)
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		store.Flush(ctx)
	}
	close(done)
	wg.Wait()
}
