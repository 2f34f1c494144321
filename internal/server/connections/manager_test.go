package connections

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHandle(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// gatedDialer blocks every dial until release is closed and counts attempts.
type gatedDialer struct {
	attempts atomic.Int32
	release  chan struct{}
	results  []func() (*sql.DB, error)
}

func (d *gatedDialer) dial(ctx context.Context) (*sql.DB, error) {
	n := d.attempts.Add(1)
	<-d.release
	return d.results[n-1]()
}

func TestGet_ConcurrentColdStartSharesOneAttempt(t *testing.T) {
	handle, _ := newHandle(t)
	d := &gatedDialer{
		release: make(chan struct{}),
		results: []func() (*sql.DB, error){func() (*sql.DB, error) { return handle, nil }},
	}
	m := NewManager(d.dial, time.Second, logging.Nop{})

	const n = 50
	var wg sync.WaitGroup
	got := make([]*sql.DB, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = m.Get(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return m.State() == StateConnecting }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(d.release)
	wg.Wait()

	assert.Equal(t, int32(1), d.attempts.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, handle, got[i])
	}
	assert.Equal(t, StateLive, m.State())
}

func TestGet_LiveHandleIsReused(t *testing.T) {
	handle, _ := newHandle(t)
	var attempts atomic.Int32
	m := NewManager(func(ctx context.Context) (*sql.DB, error) {
		attempts.Add(1)
		return handle, nil
	}, 0, logging.Nop{})

	for i := 0; i < 3; i++ {
		db, err := m.Get(context.Background())
		require.NoError(t, err)
		assert.Same(t, handle, db)
	}
	assert.Equal(t, int32(1), attempts.Load())
}

func TestGet_FailureIsSharedAndNotCached(t *testing.T) {
	handle, _ := newHandle(t)
	boom := errors.New("connection refused")
	d := &gatedDialer{
		release: make(chan struct{}),
		results: []func() (*sql.DB, error){
			func() (*sql.DB, error) { return nil, boom },
			func() (*sql.DB, error) { return handle, nil },
		},
	}
	m := NewManager(d.dial, time.Second, logging.Nop{})

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Get(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return m.State() == StateConnecting }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	// the second dial must not block: release serves both generations
	close(d.release)
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
			assert.ErrorIs(t, err, boom)
			failures++
		}
	}
	assert.Positive(t, failures, "waiters of the failed attempt see the failure")

	db, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, handle, db)
	assert.Equal(t, int32(2), d.attempts.Load(), "failure is retried, not replayed")
	assert.Equal(t, StateLive, m.State())
}

func TestGet_CancelledWaiterDoesNotAbortAttempt(t *testing.T) {
	handle, _ := newHandle(t)
	d := &gatedDialer{
		release: make(chan struct{}),
		results: []func() (*sql.DB, error){func() (*sql.DB, error) { return handle, nil }},
	}
	m := NewManager(d.dial, 0, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Get(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return m.State() == StateConnecting }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(d.release)
	db, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, handle, db)
	assert.Equal(t, int32(1), d.attempts.Load())
}

func TestGet_DialTimeout(t *testing.T) {
	m := NewManager(func(ctx context.Context) (*sql.DB, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 10*time.Millisecond, logging.Nop{})

	_, err := m.Get(context.Background())
	require.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateCold, m.State())
}

func TestObserve_ReceivesTransitions(t *testing.T) {
	handle, mock := newHandle(t)
	mock.ExpectClose()

	m := NewManager(func(ctx context.Context) (*sql.DB, error) { return handle, nil }, 0, logging.Nop{})

	var mu sync.Mutex
	var seen []State
	m.Observe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	_, err := m.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateConnecting, StateLive, StateCold}, seen)
}

func TestClose_ColdIsNoop(t *testing.T) {
	m := NewManager(func(ctx context.Context) (*sql.DB, error) { return nil, errors.New("unused") }, 0, logging.Nop{})
	require.NoError(t, m.Close())
	assert.Equal(t, StateCold, m.State())
}

func TestClose_DiscardsInFlightDial(t *testing.T) {
	stale, staleMock := newHandle(t)
	staleMock.ExpectClose()
	fresh, _ := newHandle(t)

	d := &gatedDialer{
		release: make(chan struct{}),
		results: []func() (*sql.DB, error){
			func() (*sql.DB, error) { return stale, nil },
			func() (*sql.DB, error) { return fresh, nil },
		},
	}
	m := NewManager(d.dial, 0, logging.Nop{})

	var mu sync.Mutex
	var seen []State
	m.Observe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	done := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return m.State() == StateConnecting }, time.Second, time.Millisecond)

	require.NoError(t, m.Close())
	assert.Equal(t, StateCold, m.State())

	close(d.release)
	select {
	case err := <-done:
		require.ErrorIs(t, err, common.ErrorStoreUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight Get did not return")
	}

	assert.Equal(t, StateCold, m.State())
	require.NoError(t, staleMock.ExpectationsWereMet(), "discarded pool must be closed")

	mu.Lock()
	assert.Equal(t, []State{StateConnecting, StateCold}, seen)
	mu.Unlock()

	db, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, db)
	assert.Equal(t, StateLive, m.State())
}
