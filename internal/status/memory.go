package status

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mliu/reelgen/internal/domain"
)

// MemoryStore is an in-process Store and StockRegistry with real TTL
// semantics. It backs tests and dependency-free local runs; records expire
// exactly like the Redis-backed store, observed lazily on read.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	jobs  map[string]memoryEntry
	stock map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store with the given record TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		jobs:  make(map[string]memoryEntry),
		stock: make(map[string]memoryEntry),
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Create(ctx context.Context, rec *domain.JobRecord) error {
	return s.write(rec)
}

func (s *MemoryStore) Update(ctx context.Context, rec *domain.JobRecord) error {
	return s.write(rec)
}

func (s *MemoryStore) write(rec *domain.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[rec.JobID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.JobRecord, error) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	now := s.now()
	s.mu.RUnlock()

	if !ok || now.After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	var rec domain.JobRecord
	if err := json.Unmarshal(entry.data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &rec, nil
}

func (s *MemoryStore) RegisterStockMedia(ctx context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[id] = memoryEntry{data: []byte(url), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) LookupStockMedia(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	entry, ok := s.stock[id]
	now := s.now()
	s.mu.RUnlock()

	if !ok || now.After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return string(entry.data), nil
}
