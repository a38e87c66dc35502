package memory

import (
	"context"
	"sync"
	"time"

	"tinyhouse/internal/app/middleware"
)

// IdempotencyStore mirrors the Mongo store for in-memory mode: first outcome wins
// and records older than the TTL are treated as absent.
type IdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	records map[string]storedOutcome
}

type storedOutcome struct {
	record  middleware.IdempotencyRecord
	savedAt time.Time
}

// NewIdempotencyStore keeps records for ttl; zero keeps them for the process lifetime.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{TTL: ttl, records: map[string]storedOutcome{}}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if s.expired(stored) {
		delete(s.records, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return stored.record, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]storedOutcome{}
	}
	if stored, ok := s.records[rec.Key]; ok && !s.expired(stored) {
		return nil
	}
	s.records[rec.Key] = storedOutcome{record: rec, savedAt: s.clock()}
	return nil
}

func (s *IdempotencyStore) expired(stored storedOutcome) bool {
	return s.TTL > 0 && s.clock().Sub(stored.savedAt) >= s.TTL
}

func (s *IdempotencyStore) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
