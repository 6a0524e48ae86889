package prefstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDriver overrides individual operations; everything else delegates to
// an in-memory driver.
type mockDriver struct {
	*Memory
	getFunc func(ctx context.Context, key string) ([]byte, error)
	putFunc func(ctx context.Context, key string, value []byte) error
}

func newMockDriver() *mockDriver {
	return &mockDriver{Memory: NewMemory()}
}

func (m *mockDriver) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return m.Memory.Get(ctx, key)
}

func (m *mockDriver) Put(ctx context.Context, key string, value []byte) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, key, value)
	}
	return m.Memory.Put(ctx, key, value)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("stream closed while waiting for an emission")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an emission")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected emission: %v", v)
		}
		t.Fatal("stream closed unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func expectClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("expected closed stream, got emission: %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close")
	}
}

func TestPref_GetDefault_OnReadError(t *testing.T) {
	ctx := context.Background()
	d := newMockDriver()
	d.getFunc = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("backend down")
	}

	s, err := Open(ctx, "settings", WithDriver(d))
	require.NoError(t, err)

	assert.Equal(t, "fallback", s.String("s", "fallback").Get(ctx))
}

func TestPref_GetDefault_OnUndecodableValue(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	require.NoError(t, s.Raw().Put(ctx, "n", []byte("not a number")))
	assert.Equal(t, 7, s.Int("n", 7).Get(ctx))
}

func TestPref_Set_PropagatesWriteError(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("disk full")
	d := newMockDriver()
	d.putFunc = func(context.Context, string, []byte) error { return wantErr }

	s, err := Open(ctx, "settings", WithDriver(d))
	require.NoError(t, err)

	assert.ErrorIs(t, s.String("s", "").Set(ctx, "v"), wantErr)
}

func TestPref_DeleteAndIsSet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.String("s", "def")

	ok, err := p.IsSet(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Set(ctx, "v"))
	ok, err = p.IsSet(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Delete(ctx))
	ok, err = p.IsSet(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "def", p.Get(ctx))
}

func TestPref_Watch_EmitsCurrentThenChanges(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.String("greeting", "hi")
	ch, err := p.Watch(ctx)
	require.NoError(t, err)

	assert.Equal(t, "hi", recv(t, ch), "current value arrives first")

	require.NoError(t, p.Set(ctx, "hello"))
	assert.Equal(t, "hello", recv(t, ch))

	require.NoError(t, p.Set(ctx, "hej"))
	assert.Equal(t, "hej", recv(t, ch))

	expectNone(t, ch)
}

func TestPref_Watch_EmitsDefaultOnDelete(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.Int("count", -1)
	require.NoError(t, p.Set(ctx, 10))

	ch, err := p.Watch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, recv(t, ch))

	require.NoError(t, p.Delete(ctx))
	assert.Equal(t, -1, recv(t, ch))
}

func TestPref_Watch_FiltersOtherKeys(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	a := s.String("a", "")
	b := s.String("b", "")

	chA, err := a.Watch(ctx)
	require.NoError(t, err)
	recv(t, chA) // initial

	require.NoError(t, b.Set(ctx, "for b only"))
	expectNone(t, chA)

	require.NoError(t, a.Set(ctx, "for a"))
	assert.Equal(t, "for a", recv(t, chA))
}

func TestPref_Watch_ClearEmitsDefaults(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.String("s", "def")
	require.NoError(t, p.Set(ctx, "v"))

	ch, err := p.Watch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v", recv(t, ch))

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, "def", recv(t, ch))
}

func TestPref_Watch_ContextCancelStopsEmissions(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.String("s", "")
	wctx, cancel := context.WithCancel(ctx)
	ch, err := p.Watch(wctx)
	require.NoError(t, err)
	recv(t, ch) // initial

	cancel()
	expectClosed(t, ch)

	// Changes after teardown must not reach the (closed) stream.
	require.NoError(t, p.Set(ctx, "after"))
	require.Eventually(t, func() bool { return !s.hub.active() },
		time.Second, 10*time.Millisecond, "listener should deregister with the last watch")
}

func TestPref_Close_DetachesAllWatches(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.String("s", "")
	ch1, err := p.Watch(ctx)
	require.NoError(t, err)
	ch2, err := p.Watch(ctx)
	require.NoError(t, err)
	recv(t, ch1)
	recv(t, ch2)

	p.Close()
	expectClosed(t, ch1)
	expectClosed(t, ch2)

	_, err = p.Watch(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	// Accessors survive teardown; only the streams detach.
	require.NoError(t, p.Set(ctx, "still writable"))
	assert.Equal(t, "still writable", p.Get(ctx))
}

func TestPref_Watch_IndependentStreamsPerWatch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings")
	require.NoError(t, err)

	p := s.Int("n", 0)
	ch1, err := p.Watch(ctx)
	require.NoError(t, err)
	ch2, err := p.Watch(ctx)
	require.NoError(t, err)
	recv(t, ch1)
	recv(t, ch2)

	require.NoError(t, p.Set(ctx, 5))
	assert.Equal(t, 5, recv(t, ch1))
	assert.Equal(t, 5, recv(t, ch2))
}

func TestPref_Watch_DropsWhenBufferFull(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "settings", WithWatchBuffer(1))
	require.NoError(t, err)

	p := s.Int("n", 0)
	ch, err := p.Watch(ctx)
	require.NoError(t, err)
	// Initial emission fills the single buffer slot; these two are dropped.
	require.NoError(t, p.Set(ctx, 1))
	require.NoError(t, p.Set(ctx, 2))

	assert.Equal(t, 0, recv(t, ch))
	expectNone(t, ch)

	// Once drained, the stream carries on.
	require.NoError(t, p.Set(ctx, 3))
	assert.Equal(t, 3, recv(t, ch))
}
