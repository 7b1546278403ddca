// ABOUTME: Persistent buffer store interface and record encoding
// ABOUTME: Records hold raw samples plus channel count, sample rate and timestamp
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/444radio/dawcore/pkg/audio"
)

var (
	// ErrNotFound is returned when a store has no record for a URL
	ErrNotFound = errors.New("record not found")

	// ErrCorruptRecord is returned when stored bytes cannot be decoded
	ErrCorruptRecord = errors.New("corrupt cache record")
)

// recordHeaderSize is channels(4) + sample rate(4) + timestamp millis(8)
const recordHeaderSize = 16

// Record is one persisted decoded buffer, keyed by its source URL
type Record struct {
	URL        string
	Samples    []float32
	Channels   int
	SampleRate int
	Timestamp  time.Time
}

// NewRecord captures buf for url at time ts
func NewRecord(url string, buf *audio.Buffer, ts time.Time) Record {
	return Record{
		URL:        url,
		Samples:    buf.Samples,
		Channels:   buf.Format.Channels,
		SampleRate: buf.Format.SampleRate,
		Timestamp:  ts,
	}
}

// Buffer returns the record's samples as an audio buffer
func (r Record) Buffer() *audio.Buffer {
	return &audio.Buffer{
		Samples: r.Samples,
		Format:  audio.Format{SampleRate: r.SampleRate, Channels: r.Channels},
	}
}

// MarshalBinary encodes the record value; the URL is the store key
func (r Record) MarshalBinary() ([]byte, error) {
	if r.Channels <= 0 || r.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %dHz %dch", audio.ErrInvalidFormat, r.SampleRate, r.Channels)
	}

	data := make([]byte, recordHeaderSize+len(r.Samples)*4)
	binary.LittleEndian.PutUint32(data[0:4], uint32(r.Channels))
	binary.LittleEndian.PutUint32(data[4:8], uint32(r.SampleRate))
	binary.LittleEndian.PutUint64(data[8:16], uint64(r.Timestamp.UnixMilli()))

	for i, s := range r.Samples {
		binary.LittleEndian.PutUint32(data[recordHeaderSize+i*4:], math.Float32bits(s))
	}
	return data, nil
}

// UnmarshalRecord decodes a value written by MarshalBinary. The samples are
// copied, so data may be reused afterwards.
func UnmarshalRecord(url string, data []byte) (Record, error) {
	if len(data) < recordHeaderSize || (len(data)-recordHeaderSize)%4 != 0 {
		return Record{}, fmt.Errorf("%w: %d bytes for %s", ErrCorruptRecord, len(data), url)
	}

	rec := Record{
		URL:        url,
		Channels:   int(binary.LittleEndian.Uint32(data[0:4])),
		SampleRate: int(binary.LittleEndian.Uint32(data[4:8])),
		Timestamp:  time.UnixMilli(int64(binary.LittleEndian.Uint64(data[8:16]))),
	}
	if rec.Channels <= 0 || rec.SampleRate <= 0 {
		return Record{}, fmt.Errorf("%w: bad format for %s", ErrCorruptRecord, url)
	}

	payload := data[recordHeaderSize:]
	rec.Samples = make([]float32, len(payload)/4)
	for i := range rec.Samples {
		rec.Samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return rec, nil
}

// Store persists records across sessions
type Store interface {
	Store(ctx context.Context, rec Record) error
	Retrieve(ctx context.Context, url string) (Record, error)
	Delete(ctx context.Context, url string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore is a Store held in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Store saves an encoded copy of rec
func (m *MemoryStore) Store(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := rec.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", rec.URL, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.URL] = data
	return nil
}

// Retrieve decodes the record for url
func (m *MemoryStore) Retrieve(ctx context.Context, url string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.RLock()
	data, ok := m.records[url]
	m.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return UnmarshalRecord(url, data)
}

// Delete removes the record for url; missing records are not an error
func (m *MemoryStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, url)
	return nil
}

// Clear removes every record
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.records)
	return nil
}

// Keys returns the stored URLs in sorted order
func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
