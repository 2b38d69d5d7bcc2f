package db

import (
	"context"
	"sort"
	"sync"

	"student-manager-go/models"
)

// MemoryStore is an in-process DataStore used for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.StudentRecord
}

// NewMemoryStore returns an empty MemoryStore whose first id is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]models.StudentRecord)}
}

func (s *MemoryStore) List(ctx context.Context) ([]models.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StudentRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, draft models.Draft) (models.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StudentRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := draft.WithID(s.nextID)
	s.rows[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, draft models.Draft) (models.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StudentRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return models.StudentRecord{}, ErrNotFound
	}
	rec := draft.WithID(id)
	s.rows[id] = rec
	return rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
