package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

const draftKeyPrefix = "substitution:draft:"

// DraftStore keeps review sessions between proposal and commit.
type DraftStore interface {
	Save(ctx context.Context, draft models.SubstitutionDraft) error
	Get(ctx context.Context, id string) (models.SubstitutionDraft, bool, error)
	Delete(ctx context.Context, id string) error
}

// memoryDraftStore holds drafts in process, expiring them after ttl of
// inactivity measured on its own clock.
type memoryDraftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]storedDraft
}

type storedDraft struct {
	draft   models.SubstitutionDraft
	savedAt time.Time
}

// NewMemoryDraftStore returns a process-local draft store.
func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &memoryDraftStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]storedDraft),
	}
}

func (s *memoryDraftStore) Save(_ context.Context, draft models.SubstitutionDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.ID] = storedDraft{draft: draft, savedAt: s.now()}
	return nil
}

func (s *memoryDraftStore) Get(ctx context.Context, id string) (models.SubstitutionDraft, bool, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.SubstitutionDraft{}, false, nil
	}
	if s.now().Sub(item.savedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return models.SubstitutionDraft{}, false, nil
	}
	return item.draft, true, nil
}

func (s *memoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// cacheDraftStore keeps drafts in Redis so sessions survive restarts and
// are shared between replicas.
type cacheDraftStore struct {
	repo CacheRepository
	ttl  time.Duration
}

// NewCacheDraftStore returns a draft store backed by the cache repository.
func NewCacheDraftStore(repo CacheRepository, ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &cacheDraftStore{repo: repo, ttl: ttl}
}

func (s *cacheDraftStore) Save(ctx context.Context, draft models.SubstitutionDraft) error {
	return s.repo.Set(ctx, draftKeyPrefix+draft.ID, draft, s.ttl)
}

func (s *cacheDraftStore) Get(ctx context.Context, id string) (models.SubstitutionDraft, bool, error) {
	var draft models.SubstitutionDraft
	if err := s.repo.Get(ctx, draftKeyPrefix+id, &draft); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return models.SubstitutionDraft{}, false, nil
		}
		return models.SubstitutionDraft{}, false, err
	}
	return draft, true, nil
}

func (s *cacheDraftStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, draftKeyPrefix+id)
}
