package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// InMemoryRunStore implements RunStore for tests and for MCP sessions
// started without an archive.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]RunRecord
	now  func() time.Time
}

// NewInMemoryRunStore creates a new in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runs: make(map[string]RunRecord),
		now:  time.Now,
	}
}

// SaveRun stores a copy of rec.
func (s *InMemoryRunStore) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.runs[rec.ID]; exists {
		return "", fmt.Errorf("run already exists: %s", rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.Outbreak = append([]int(nil), rec.Outbreak...)
	rec.Series = append([]epidemic.Snapshot(nil), rec.Series...)
	s.runs[rec.ID] = rec
	return rec.ID, nil
}

// ListRuns returns up to limit runs, newest first, without series.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		rec.Series = nil
		runs = append(runs, rec)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun returns a copy of the run whose ID equals or starts with id.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fullID, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}
	rec := s.runs[fullID]
	rec.Outbreak = append([]int(nil), rec.Outbreak...)
	rec.Series = append([]epidemic.Snapshot(nil), rec.Series...)
	return &rec, nil
}

// DeleteRun removes a run.
func (s *InMemoryRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullID, err := s.resolveID(id)
	if err != nil {
		return err
	}
	delete(s.runs, fullID)
	return nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error { return nil }

func (s *InMemoryRunStore) resolveID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	if _, ok := s.runs[prefix]; ok {
		return prefix, nil
	}
	var match string
	for id := range s.runs {
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}
