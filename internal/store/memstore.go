package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/safereport/backend/internal/models"
)

// MemStore is an in-memory ReportStore for tests and STORE_DRIVER=memory.
type MemStore struct {
	mu     sync.Mutex
	byID   map[string]*models.Report
	byCase map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:   make(map[string]*models.Report),
		byCase: make(map[string]string),
	}
}

func (s *MemStore) Save(_ context.Context, r models.Report) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byCase[r.CaseID]; dup {
		return models.Report{}, ErrDuplicateCaseID
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, dup := s.byID[r.ID]; dup {
		return models.Report{}, ErrDuplicateCaseID
	}
	r.Version = 1
	r.Details = cloneDetails(r.Details)
	cp := r
	s.byID[r.ID] = &cp
	s.byCase[r.CaseID] = r.ID
	return copyReport(&cp), nil
}

func (s *MemStore) Get(_ context.Context, id string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.Report{}, ErrNotFound
	}
	return copyReport(r), nil
}

func (s *MemStore) Update(_ context.Context, id string, expectedVersion int, patch Patch) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.Report{}, ErrNotFound
	}
	if r.Version != expectedVersion {
		return models.Report{}, ErrVersionConflict
	}
	patch.Apply(r)
	return copyReport(r), nil
}

func (s *MemStore) FindByCaseID(_ context.Context, caseID string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCase[caseID]
	if !ok {
		return models.Report{}, ErrNotFound
	}
	return copyReport(s.byID[id]), nil
}

// List returns matches newest first.
func (s *MemStore) List(_ context.Context, f Filter) ([]models.Report, error) {
	f = f.Normalize()
	s.mu.Lock()
	var matched []models.Report
	for _, r := range s.byID {
		if f.Matches(*r) {
			matched = append(matched, copyReport(r))
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if f.Offset >= len(matched) {
		return []models.Report{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], nil
}

func (s *MemStore) Ping(context.Context) error {
	return nil
}

func copyReport(r *models.Report) models.Report {
	cp := *r
	cp.Details = cloneDetails(r.Details)
	cp.Lat, cp.Lon = copyFloat(r.Lat), copyFloat(r.Lon)
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	if r.EscalatedAt != nil {
		t := *r.EscalatedAt
		cp.EscalatedAt = &t
	}
	return cp
}
