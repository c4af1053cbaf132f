package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock はテスト用に手動で進める時計です。
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// TestMemo_Freshness はTTL境界での鮮度判定を検証します。
func TestMemo_Freshness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantHit bool
	}{
		{name: "success: just stored", elapsed: 0, wantHit: true},
		{name: "success: just before ttl", elapsed: time.Minute - time.Millisecond, wantHit: true},
		{name: "error: exactly ttl is stale", elapsed: time.Minute},
		{name: "error: long after ttl", elapsed: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := newFakeClock()
			m := NewMemo[string](time.Minute, clock.Now)
			m.Set("k", "v")
			clock.Advance(tt.elapsed)

			v, ok := m.Get("k")
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.Equal(t, "v", v)
			}

			// 期限切れでもエントリ自体は残る
			e, ok := m.Peek("k")
			require.True(t, ok)
			assert.Equal(t, "v", e.Value)
		})
	}
}

// TestMemo_GetOrFetch はTTL内はフェッチせず、期限切れで1回だけ再取得することを検証します。
func TestMemo_GetOrFetch(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := NewMemo[int](time.Minute, clock.Now)
	calls := 0
	fetch := func(ctx context.Context) (Entry[int], error) {
		calls++
		return Entry[int]{Value: calls}, nil
	}

	v, err := m.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(30 * time.Second)
	v, err = m.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	clock.Advance(31 * time.Second)
	v, err = m.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)

	e, _ := m.Peek("k")
	assert.Equal(t, clock.Now(), e.FetchedAt)
}

// TestMemo_GetOrFetch_ErrorKeepsPrevious は取得失敗時にキャッシュを変更しないことを検証します。
func TestMemo_GetOrFetch_ErrorKeepsPrevious(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := NewMemo[string](time.Minute, clock.Now)
	errFetch := errors.New("boom")

	_, err := m.GetOrFetch(context.Background(), "k", func(ctx context.Context) (Entry[string], error) {
		return Entry[string]{}, errFetch
	})
	assert.ErrorIs(t, err, errFetch)
	_, ok := m.Peek("k")
	assert.False(t, ok, "failure must not populate the cache")

	m.Set("k", "old")
	stored := clock.Now()
	clock.Advance(2 * time.Minute)

	v, err := m.GetOrFetch(context.Background(), "k", func(ctx context.Context) (Entry[string], error) {
		return Entry[string]{}, errFetch
	})
	assert.ErrorIs(t, err, errFetch)
	assert.Empty(t, v)

	e, ok := m.Peek("k")
	require.True(t, ok, "failure must not clear the previous entry")
	assert.Equal(t, "old", e.Value)
	assert.Equal(t, stored, e.FetchedAt)
}

// TestMemo_GetOrFetch_KeepsProvidedFetchedAt はフェッチ側が指定した取得時刻を保持することを検証します。
func TestMemo_GetOrFetch_KeepsProvidedFetchedAt(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := NewMemo[string](time.Minute, clock.Now)
	earlier := clock.Now().Add(-50 * time.Second)

	_, err := m.GetOrFetch(context.Background(), "k", func(ctx context.Context) (Entry[string], error) {
		return Entry[string]{Value: "shared", FetchedAt: earlier}, nil
	})
	require.NoError(t, err)

	clock.Advance(15 * time.Second)
	_, ok := m.Get("k")
	assert.False(t, ok, "freshness is measured from the provided FetchedAt")
}

// TestMemo_GetOrFetch_Coalesces は同一キーへの同時ミスが1回のフェッチにまとめられることを検証します。
func TestMemo_GetOrFetch_Coalesces(t *testing.T) {
	t.Parallel()

	m := NewMemo[string](time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	fetch := func(ctx context.Context) (Entry[string], error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return Entry[string]{Value: "v"}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = m.GetOrFetch(context.Background(), "k", fetch)
	}()
	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.GetOrFetch(context.Background(), "k", fetch)
		}(i)
	}
	// 後続のゴルーチンが singleflight に合流するまで待つ
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

// TestMemo_GetOrFetch_CallerCancelDoesNotFailOthers は先行呼び出し元のキャンセルが
// 合流した他の呼び出し元やフェッチ自体に波及しないことを検証します。
func TestMemo_GetOrFetch_CallerCancelDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	m := NewMemo[int](time.Minute, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var fetchErr atomic.Value

	fetch := func(ctx context.Context) (Entry[int], error) {
		calls.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			fetchErr.Store(err)
			return Entry[int]{}, err
		}
		return Entry[int]{Value: 42}, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := m.GetOrFetch(ctxA, "NVDA", fetch)
		errA <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := m.GetOrFetch(context.Background(), "NVDA", fetch)
		resB <- result{v, err}
	}()
	// B が singleflight に合流するまで待つ
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return early")
	}

	close(release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, 42, r.v)
	case <-time.After(time.Second):
		t.Fatal("live caller did not receive the shared result")
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Nil(t, fetchErr.Load(), "shared fetch must not see the first caller's cancellation")
	v, ok := m.Get("NVDA")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

// TestMemo_DeleteAndClear はエントリの削除を検証します。
func TestMemo_DeleteAndClear(t *testing.T) {
	t.Parallel()

	m := NewMemo[int](time.Minute, nil)
	m.Set("a", 1)
	m.Set("b", 2)

	m.Delete("a")
	_, ok := m.Get("a")
	assert.False(t, ok)
	_, ok = m.Get("b")
	assert.True(t, ok)

	m.Clear()
	_, ok = m.Peek("b")
	assert.False(t, ok)
}
