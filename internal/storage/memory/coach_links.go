package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// CoachLinksMemoryStorage implements storage.CoachLinksStorage in memory.
type CoachLinksMemoryStorage struct {
	mu    sync.RWMutex
	links map[uuid.UUID]storage.CoachLink
}

func NewCoachLinksMemoryStorage() *CoachLinksMemoryStorage {
	return &CoachLinksMemoryStorage{links: make(map[uuid.UUID]storage.CoachLink)}
}

func (s *CoachLinksMemoryStorage) CreateCoachLink(ctx context.Context, link *storage.CoachLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.AthleteID == link.AthleteID && l.CoachID == link.CoachID && l.Kind == link.Kind {
			return storage.ErrConflict
		}
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = time.Now().UTC()
	s.links[link.ID] = *link

	return nil
}

func (s *CoachLinksMemoryStorage) GetCoachLink(ctx context.Context, id uuid.UUID) (*storage.CoachLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &l, nil
}

func (s *CoachLinksMemoryStorage) ListCoachLinks(ctx context.Context, filter storage.CoachLinkFilter) ([]storage.CoachLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.CoachLink{}
	for _, l := range s.links {
		if filter.AthleteID != nil && l.AthleteID != *filter.AthleteID {
			continue
		}
		if filter.CoachID != nil && l.CoachID != *filter.CoachID {
			continue
		}
		if filter.Kind != "" && l.Kind != filter.Kind {
			continue
		}
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CoachLinksMemoryStorage) DeleteCoachLink(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.links, id)
	return nil
}
