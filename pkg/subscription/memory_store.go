package subscription

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty store. Users must be registered before
// their records can be read or written.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Register adds a user without a subscription. Existing users are kept as is.
func (s *MemoryStore) Register(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		s.records[userID] = EmptyRecord()
	}
}

// Put stores rec for userID, replacing any existing record.
func (s *MemoryStore) Put(userID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = rec.Clone()
}

func (s *MemoryStore) Read(ctx context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (s *MemoryStore) Write(ctx context.Context, userID string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return ErrRecordNotFound
	}
	s.records[userID] = patch.Apply(rec)
	return nil
}

func (s *MemoryStore) FindByExternalID(ctx context.Context, externalID string) (string, *Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if externalID == "" {
		return "", nil, ErrRecordNotFound
	}
	for id, rec := range s.records {
		if rec.ExternalID == externalID {
			out := rec.Clone()
			return id, &out, nil
		}
	}
	return "", nil, ErrRecordNotFound
}

func (s *MemoryStore) ListDueTrials(ctx context.Context, before time.Time, limit int) ([]DueTrial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var due []DueTrial
	for _, id := range ids {
		rec := s.records[id]
		if rec.Status != StatusTrial || rec.CheckoutPending || rec.TrialEndDate == nil || rec.TrialEndDate.After(before) {
			continue
		}
		due = append(due, DueTrial{UserID: id, Record: rec.Clone()})
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}
