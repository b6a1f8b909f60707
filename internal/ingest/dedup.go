package ingest

import (
	"context"
	"sync"
	"time"
)

// DedupEntry maps a content digest to the object already stored for it.
// Path is the object key, Reference the public URL returned by the store.
// Entries are created once and never mutated.
type DedupEntry struct {
	Digest      string    `json:"digest"`
	Path        string    `json:"path"`
	Reference   string    `json:"reference"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
}

// DedupIndex is the shared digest→object map consulted before every physical
// upload. Implementations must allow concurrent lookups and serialize writes:
// two batches can race on the same digest.
type DedupIndex interface {
	// Lookup returns the entry for a digest, or nil when unseen.
	Lookup(ctx context.Context, digest string) (*DedupEntry, error)
	// Record stores digest→object. When the digest is already present the
	// existing entry wins and is returned with created=false; a second Record
	// never produces a second entry.
	Record(ctx context.Context, digest, path, reference string) (entry *DedupEntry, created bool, err error)
}

// MemoryIndex is the in-process DedupIndex. Good for single-instance
// deployments and tests; clustered deployments use the database-backed index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*DedupEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]*DedupEntry)}
}

func (m *MemoryIndex) Lookup(_ context.Context, digest string) (*DedupEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.entries[digest]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, nil
}

func (m *MemoryIndex) Record(_ context.Context, digest, path, reference string) (*DedupEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[digest]; ok {
		copied := *existing
		return &copied, false, nil
	}
	entry := &DedupEntry{Digest: digest, Path: path, Reference: reference, FirstSeenAt: time.Now().UTC()}
	m.entries[digest] = entry
	copied := *entry
	return &copied, true, nil
}

// Len reports the number of unique digests recorded.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
