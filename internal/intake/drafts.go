package intake

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safereport/backend/internal/models"
)

const DefaultDraftTTL = 2 * time.Hour

var ErrDraftNotFound = errors.New("draft not found")

// DraftStore keeps in-progress drafts in memory. A draft nobody has read
// or written for longer than the TTL is treated as abandoned.
type DraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]draftEntry
}

type draftEntry struct {
	draft    models.Draft
	lastSeen time.Time
}

func NewDraftStore(ttl time.Duration, now func() time.Time) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	if now == nil {
		now = time.Now
	}
	return &DraftStore{ttl: ttl, now: now, drafts: map[string]draftEntry{}}
}

// Put stores d, assigning an id when it has none, and returns the stored copy.
func (s *DraftStore) Put(d models.Draft) models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := s.now().UTC()
	d.UpdatedAt = now
	s.drafts[d.ID] = draftEntry{draft: cloneDraft(d), lastSeen: now}
	return cloneDraft(d)
}

// Get returns a copy of the draft and extends its TTL.
func (s *DraftStore) Get(id string) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveLocked(id)
	if !ok {
		return models.Draft{}, ErrDraftNotFound
	}
	e.lastSeen = s.now().UTC()
	s.drafts[id] = e
	return cloneDraft(e.draft), nil
}

// Take removes the draft and returns it. Of two concurrent callers only one
// gets the draft; the other sees ErrDraftNotFound.
func (s *DraftStore) Take(id string) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveLocked(id)
	if !ok {
		return models.Draft{}, ErrDraftNotFound
	}
	delete(s.drafts, id)
	return cloneDraft(e.draft), nil
}

func (s *DraftStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.drafts)
}

func (s *DraftStore) liveLocked(id string) (draftEntry, bool) {
	e, ok := s.drafts[id]
	if !ok {
		return draftEntry{}, false
	}
	if s.expired(e) {
		delete(s.drafts, id)
		return draftEntry{}, false
	}
	return e, true
}

func (s *DraftStore) expired(e draftEntry) bool {
	return s.now().Sub(e.lastSeen) > s.ttl
}

func (s *DraftStore) sweepLocked() {
	for id, e := range s.drafts {
		if s.expired(e) {
			delete(s.drafts, id)
		}
	}
}
