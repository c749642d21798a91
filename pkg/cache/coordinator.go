package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// call tracks one in-flight physical read. Concurrent requests for the
// same key share the call and wait on its done channel; buf and err are
// written exactly once, before done closes. cancelled is guarded by the
// manager's mutex.
type call struct {
	key       int
	label     string
	done      chan struct{}
	buf       []byte
	err       error
	cancel    context.CancelFunc
	cancelled bool
}

// Request returns the buffer for key, loading it through src when absent.
// A stored buffer is returned immediately and counted as a hit. When a
// read for the key is already in flight the caller joins it — borrowed
// work counts neither a hit nor a miss. Otherwise a miss is counted and a
// new physical read starts. ctx governs only this caller's wait: an
// in-flight read is shared property and is aborted through Cancel,
// CancelAll or Close, never by one waiter walking away.
func (m *Manager) Request(ctx context.Context, key int, src Source) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: item %d has no source", ErrNotFound, key)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := m.entries[key]; ok {
		e.touch(time.Now())
		m.counters.hits.Add(1)
		buf := e.bytes
		m.mu.Unlock()
		m.log.Debug("hit", "key", key)
		return buf, nil
	}
	if c, ok := m.pending[key]; ok {
		m.mu.Unlock()
		m.log.Debug("joined in-flight load", "key", key)
		return m.wait(ctx, c)
	}
	m.counters.misses.Add(1)
	c := m.startLoadLocked(key, src)
	m.mu.Unlock()
	m.log.Debug("miss, load started", "key", key, "label", c.label)
	return m.wait(ctx, c)
}

// wait blocks until the shared call completes or the caller's own context
// is done. Abandoning a wait never disturbs the read or its other waiters.
func (m *Manager) wait(ctx context.Context, c *call) ([]byte, error) {
	select {
	case <-c.done:
		return c.buf, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startLoadLocked registers the pending record and launches the read
// goroutine. Caller holds m.mu.
func (m *Manager) startLoadLocked(key int, src Source) *call {
	readCtx, cancel := context.WithCancel(context.Background())
	c := &call{
		key:    key,
		label:  src.Label(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	m.pending[key] = c
	// Start and progress callbacks are snapshotted here; completion
	// callbacks are re-read at completion so nothing fires after Close.
	onStart := m.callbacks.OnLoadStart
	onProgress := m.callbacks.OnLoadProgress
	go m.runLoad(readCtx, c, src, onStart, onProgress)
	return c
}

// runLoad performs the physical read for a call.
func (m *Manager) runLoad(ctx context.Context, c *call, src Source, onStart func(int, string), onProgress func(int, int64, int64)) {
	if onStart != nil {
		onStart(c.key, c.label)
	}
	var progress ProgressFunc
	if onProgress != nil {
		key := c.key
		progress = func(read, total int64) {
			onProgress(key, read, total)
		}
	}
	if m.sem != nil {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			m.finishLoad(c, nil, err)
			return
		}
		defer m.sem.Release(1)
	}
	buf, err := src.Read(ctx, progress)
	m.finishLoad(c, buf, err)
}

// finishLoad is the single terminal transition for a pending load. It
// frees the pending slot, classifies the outcome, stores the buffer on
// success and wakes every waiter.
func (m *Manager) finishLoad(c *call, buf []byte, err error) {
	m.mu.Lock()
	// The slot may already belong to a newer call when this one was
	// cancelled and a fresh request has started since.
	if m.pending[c.key] == c {
		delete(m.pending, c.key)
	}
	switch {
	case c.cancelled:
		// A read that finishes after cancellation has its effect
		// suppressed, even if it succeeded.
		c.err = ErrCancelled
	case err != nil:
		if errors.Is(err, context.Canceled) {
			c.err = ErrCancelled
		} else {
			c.err = fmt.Errorf("%w: %w", ErrReadFailure, err)
		}
	default:
		c.buf = buf
		m.insertLocked(c.key, buf, c.label)
	}
	onComplete := m.callbacks.OnLoadComplete
	onError := m.callbacks.OnLoadError
	m.mu.Unlock()
	close(c.done)

	switch {
	case c.err == nil:
		m.log.Debug("load complete", "key", c.key, "bytes", len(buf))
		if onComplete != nil {
			onComplete(c.key, int64(len(buf)))
		}
	case errors.Is(c.err, ErrCancelled):
		m.log.Debug("load cancelled", "key", c.key)
	default:
		m.log.Warn("load failed", "key", c.key, "err", c.err)
		if onError != nil {
			onError(c.key, c.err)
		}
	}
}

// Cancel aborts the pending load for key, if any. Its waiters resolve with
// ErrCancelled and the pending slot frees immediately, so a later Request
// for the key starts a fresh physical read. Cancelling a key with no
// pending load is a no-op.
func (m *Manager) Cancel(key int) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	c, ok := m.pending[key]
	if ok {
		c.cancelled = true
		delete(m.pending, key)
	}
	m.mu.Unlock()
	if ok {
		c.cancel()
		m.log.Debug("cancelled load", "key", key)
	}
	return nil
}

// CancelAll aborts every pending load.
func (m *Manager) CancelAll() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	calls := make([]*call, 0, len(m.pending))
	for _, c := range m.pending {
		c.cancelled = true
		calls = append(calls, c)
	}
	m.pending = make(map[int]*call)
	m.mu.Unlock()
	for _, c := range calls {
		c.cancel()
	}
	if len(calls) > 0 {
		m.log.Debug("cancelled all pending loads", "count", len(calls))
	}
	return nil
}
