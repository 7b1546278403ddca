// ABOUTME: Buffer manager combining the LRU memory cache with a persistent store
// ABOUTME: Reads promote store hits to memory; writes persist in the background
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/444radio/dawcore/pkg/audio"
)

// LoadFunc decodes the source at url on a cache miss
type LoadFunc func(url string) (*audio.Buffer, error)

// Manager caches decoded buffers in memory and in an optional Store
type Manager struct {
	memory *LRU[*audio.Buffer]
	store  Store
	now    func() time.Time
	loads  singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup

	// seq and gen are guarded by mu; a write persists only while both
	// still match the values captured by its Set
	seq map[string]uint64
	gen uint64

	// persistMu serialises store writes so check-then-store is atomic
	persistMu sync.Mutex
}

// NewManager creates a manager with a memory budget of maxBytes.
// store may be nil for a memory-only cache.
func NewManager(maxBytes int64, store Store) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		memory: NewLRU[*audio.Buffer](maxBytes),
		store:  store,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		seq:    make(map[string]uint64),
	}
}

// Get returns the buffer for url from memory or the store.
// The bool is false on a miss; err is set only when the store fails.
func (m *Manager) Get(ctx context.Context, url string) (*audio.Buffer, bool, error) {
	if buf, ok := m.memory.Get(url); ok {
		return buf, true, nil
	}
	if m.store == nil {
		return nil, false, nil
	}

	rec, err := m.store.Retrieve(ctx, url)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s from store: %w", url, err)
	}

	buf := rec.Buffer()
	log.Printf("Buffer from store: %s (%s)", url, humanize.IBytes(uint64(buf.SizeBytes())))
	m.memory.Set(url, buf, buf.SizeBytes())
	return buf, true, nil
}

// Set caches buf in memory now and persists it without waiting.
// A persistence failure is logged; memory stays authoritative.
// A write superseded by a later Set, Delete or Clear is dropped.
func (m *Manager) Set(url string, buf *audio.Buffer) {
	m.memory.Set(url, buf, buf.SizeBytes())

	if m.store == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.seq[url]++
	seq, gen := m.seq[url], m.gen

	rec := NewRecord(url, buf, m.now())
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()

		m.persistMu.Lock()
		defer m.persistMu.Unlock()
		if !m.current(url, seq, gen) {
			return
		}
		if err := m.store.Store(m.ctx, rec); err != nil {
			log.Printf("Failed to persist buffer %s: %v", url, err)
		}
	}()
}

// current reports whether no later write has superseded (url, seq, gen)
func (m *Manager) current(url string, seq, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq[url] == seq && m.gen == gen
}

// GetOrLoad returns the cached buffer for url, calling load on a miss.
// Concurrent loads of the same url share one call.
func (m *Manager) GetOrLoad(ctx context.Context, url string, load LoadFunc) (*audio.Buffer, error) {
	buf, ok, err := m.Get(ctx, url)
	if err != nil {
		log.Printf("Cache lookup failed, decoding %s: %v", url, err)
	} else if ok {
		return buf, nil
	}

	v, err, _ := m.loads.Do(url, func() (interface{}, error) {
		buf, err := load(url)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", url, err)
		}
		m.Set(url, buf)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*audio.Buffer), nil
}

// Delete removes url from memory and the store
func (m *Manager) Delete(ctx context.Context, url string) error {
	m.memory.Delete(url)
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	m.seq[url]++
	m.mu.Unlock()

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	if err := m.store.Delete(ctx, url); err != nil {
		return fmt.Errorf("failed to delete %s: %w", url, err)
	}
	return nil
}

// Clear empties memory and the store
func (m *Manager) Clear(ctx context.Context) error {
	m.memory.Clear()
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	m.gen++
	m.mu.Unlock()

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Keys lists persisted URLs, or cached URLs when there is no store
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return m.memory.Keys(), nil
	}
	return m.store.Keys(ctx)
}

// Stats returns memory cache occupancy
func (m *Manager) Stats() LRUStats {
	return m.memory.Stats()
}

// Wait blocks until background writes have finished
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Close waits for background writes and closes the store
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.pending.Wait()
	m.cancel()

	if m.store == nil {
		return nil
	}
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
