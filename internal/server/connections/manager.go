// Package connections supplies the process-wide handle to the credential
// store. Concurrent callers share a single live pool, or a single in-flight
// connection attempt while the pool is being established.
package connections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// State is the lifecycle stage of the managed connection.
type State string

const (
	StateCold       State = "cold"
	StateConnecting State = "connecting"
	StateLive       State = "live"
)

// Dialer opens and verifies a new database handle. It must release whatever
// it opened before returning an error.
type Dialer func(ctx context.Context) (*sql.DB, error)

// Observer is told about every state transition. It runs outside the
// manager's lock and must not block.
type Observer func(State)

const connectKey = "connect"

// Manager owns the cold -> connecting -> live state machine.
//
// A generation starts with the first Get on a cold manager and ends when its
// dial resolves. Every Get in that window waits on the same dial. A failed
// dial is not cached: the manager returns to cold and the next Get retries.
type Manager struct {
	dial    Dialer
	timeout time.Duration
	logger  logging.Logger

	group singleflight.Group

	mu        sync.Mutex
	state     State
	db        *sql.DB
	gen       uint64 // bumped by Close; a dial from an older generation is discarded
	observers []Observer
}

// NewManager creates a cold manager. timeout bounds each dial (0 = no bound).
func NewManager(dial Dialer, timeout time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		dial:    dial,
		timeout: timeout,
		logger:  logger.With("module", "connections"),
		state:   StateCold,
	}
}

// Observe registers o for future state transitions.
func (m *Manager) Observe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// State reports the current lifecycle stage.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Get returns the live handle, joining or starting a connection attempt if
// there is none yet. Dial failures wrap common.ErrorStoreUnavailable.
//
// Cancelling ctx abandons the wait but not the attempt, which other callers
// may still be sharing.
func (m *Manager) Get(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	db := m.db
	m.mu.Unlock()
	if db != nil {
		return db, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(connectKey, func() (any, error) {
		return m.connect(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) connect(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	if m.db != nil {
		// the previous generation resolved between Get's check and DoChan
		db := m.db
		m.mu.Unlock()
		return db, nil
	}
	gen := m.gen
	notify := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	notify()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	started := time.Now()
	db, err := m.dial(ctx)

	m.mu.Lock()
	if err != nil {
		notify = m.setStateLocked(StateCold)
		m.mu.Unlock()
		notify()
		m.logger.Error(ctx, "store connection failed", "error", err, "elapsed", time.Since(started))
		return nil, fmt.Errorf("%w: %w", common.ErrorStoreUnavailable, err)
	}
	if m.gen != gen {
		// Close ran while dialling: the manager stays cold and the new pool is dropped
		m.mu.Unlock()
		_ = db.Close()
		m.logger.Warn(ctx, "store connected after close, discarding", "elapsed", time.Since(started))
		return nil, fmt.Errorf("%w: manager closed during connect", common.ErrorStoreUnavailable)
	}
	m.db = db
	notify = m.setStateLocked(StateLive)
	m.mu.Unlock()
	notify()

	m.logger.Info(ctx, "store connected", "elapsed", time.Since(started))
	return db, nil
}

// setStateLocked must be called with m.mu held. The returned func delivers
// the transition to observers and must be called after unlocking.
func (m *Manager) setStateLocked(s State) func() {
	if m.state == s {
		return func() {}
	}
	m.state = s
	observers := append([]Observer(nil), m.observers...)
	return func() {
		for _, o := range observers {
			o(s)
		}
	}
}

// Close drops the live handle and returns the manager to cold. A dial still
// in flight is discarded when it resolves. A later Get reconnects.
func (m *Manager) Close() error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.gen++
	notify := m.setStateLocked(StateCold)
	m.mu.Unlock()
	notify()

	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
