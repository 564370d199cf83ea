package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreGetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	if _, ok := store.Get(ctx, "contest:1001"); ok {
		t.Fatalf("expected miss before Set")
	}

	store.Set(ctx, "contest:1001", "snapshot")
	value, ok := store.Get(ctx, "contest:1001")
	if !ok {
		t.Fatalf("expected hit after Set")
	}
	if value != "snapshot" {
		t.Fatalf("unexpected value: %v", value)
	}

	store.Delete(ctx, "contest:1001")
	if _, ok := store.Get(ctx, "contest:1001"); ok {
		t.Fatalf("expected miss after Delete")
	}
}

func TestStoreExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Set(ctx, "contest:1001", "snapshot")
	current = current.Add(2 * time.Minute)

	if _, ok := store.Get(ctx, "contest:1001"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	store.Set(ctx, "contest:1001", 1)
	store.Set(ctx, "contest:1002", 2)
	store.Set(ctx, "report:aa", 3)

	store.DeletePrefix(ctx, "contest:")

	if _, ok := store.Get(ctx, "contest:1001"); ok {
		t.Fatalf("expected contest:1001 removed")
	}
	if _, ok := store.Get(ctx, "contest:1002"); ok {
		t.Fatalf("expected contest:1002 removed")
	}
	if _, ok := store.Get(ctx, "report:aa"); !ok {
		t.Fatalf("expected report:aa kept")
	}
}

func TestStoreGetOrLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	var calls atomic.Int64
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "snapshot", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := store.GetOrLoad(ctx, "contest:1001", loader)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
				return
			}
			if value != "snapshot" {
				t.Errorf("unexpected value: %v", value)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected loader called once, got %d", got)
	}

	if _, ok := store.Get(ctx, "contest:1001"); !ok {
		t.Fatalf("expected loaded value cached")
	}
}

func TestStoreGetOrLoadError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	wantErr := errors.New("upstream down")
	if _, err := store.GetOrLoad(ctx, "contest:1001", func(context.Context) (any, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}

	if _, ok := store.Get(ctx, "contest:1001"); ok {
		t.Fatalf("failed load must not cache")
	}
}
