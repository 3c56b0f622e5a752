package treecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (f *countingFetcher) fetch(ctx context.Context) (int, error) {
	n := f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return 0, f.err
	}
	return int(n), nil
}

func newTestCache(f *countingFetcher, opts ...Option) *Cache[int] {
	return New(map[string]Fetcher[int]{KeyEmployeeTree: f.fetch}, opts...)
}

func TestCache_GetFetchesOnceUntilInvalidated(t *testing.T) {
	f := &countingFetcher{}
	c := newTestCache(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := c.Get(ctx, KeyEmployeeTree)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if v != 1 {
			t.Fatalf("expected cached value 1, got %d", v)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}

	c.Invalidate(KeyEmployeeTree)
	if _, fresh := c.Peek(KeyEmployeeTree); fresh {
		t.Fatalf("entry should be stale after invalidate")
	}
	v, err := c.Get(ctx, KeyEmployeeTree)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if v != 2 || f.calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidate, got value=%d calls=%d", v, f.calls.Load())
	}
}

func TestCache_FetchErrorIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	f := &countingFetcher{err: boom}
	c := newTestCache(f)

	if _, err := c.Get(context.Background(), KeyEmployeeTree); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, fresh := c.Peek(KeyEmployeeTree); fresh {
		t.Fatalf("failed fetch must not produce a fresh entry")
	}

	f.err = nil
	v, err := c.Get(context.Background(), KeyEmployeeTree)
	if err != nil {
		t.Fatalf("get after recovery: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected second fetch value, got %d", v)
	}
}

func TestCache_ConcurrentGetsShareOneFetch(t *testing.T) {
	f := &countingFetcher{gate: make(chan struct{})}
	c := newTestCache(f)

	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), KeyEmployeeTree)
		}(i)
	}

	// Late callers either join the flight or hit the fresh entry; both avoid a
	// second fetch.
	time.Sleep(50 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil || results[i] != 1 {
			t.Fatalf("caller %d: value=%d err=%v", i, results[i], errs[i])
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected a single shared fetch, got %d", got)
	}
}

func TestCache_InvalidateDuringFetchForcesAnotherFetch(t *testing.T) {
	f := &countingFetcher{gate: make(chan struct{})}
	c := newTestCache(f)

	done := make(chan int, 1)
	go func() {
		v, _ := c.Get(context.Background(), KeyEmployeeTree)
		done <- v
	}()
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	c.Invalidate(KeyEmployeeTree)
	f.gate <- struct{}{}
	if v := <-done; v != 1 {
		t.Fatalf("in-flight caller should get its own fetch result, got %d", v)
	}
	if _, fresh := c.Peek(KeyEmployeeTree); fresh {
		t.Fatalf("a fetch started before invalidation must not be stored as fresh")
	}

	close(f.gate)
	v, err := c.Get(context.Background(), KeyEmployeeTree)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected refetch, got %d", v)
	}
}

func TestCache_MaxAgeExpiresEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := &countingFetcher{}
	c := newTestCache(f, WithMaxAge(time.Minute), WithClock(func() time.Time { return now }))

	if _, err := c.Get(context.Background(), KeyEmployeeTree); err != nil {
		t.Fatalf("get: %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, fresh := c.Peek(KeyEmployeeTree); !fresh {
		t.Fatalf("entry should still be fresh")
	}
	now = now.Add(time.Minute)
	v, err := c.Get(context.Background(), KeyEmployeeTree)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected refetch after max age, got %d", v)
	}
}

func TestCache_CanceledCallerReturnsContextError(t *testing.T) {
	f := &countingFetcher{gate: make(chan struct{})}
	c := newTestCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, KeyEmployeeTree)
		errCh <- err
	}()
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The shared fetch still completes and fills the entry.
	close(f.gate)
	v, err := c.Get(context.Background(), KeyEmployeeTree)
	if err != nil || v != 1 {
		t.Fatalf("expected completed fetch to be cached, got value=%d err=%v", v, err)
	}
}

func TestCache_UnknownKeyAndClose(t *testing.T) {
	c := newTestCache(&countingFetcher{})
	if _, err := c.Get(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := c.Get(context.Background(), KeyEmployeeTree); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	c.Invalidate(KeyEmployeeTree)
}
