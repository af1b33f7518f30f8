package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store and SessionStore, used by tests and the
// CLI default configuration.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int
	posts    map[int]*Post
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		posts:    map[int]*Post{},
		sessions: map[string][]byte{},
	}
}

var (
	_ Store        = (*MemoryStore)(nil)
	_ SessionStore = (*MemoryStore)(nil)
)

func (s *MemoryStore) Create(_ context.Context, post *Post) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = s.nextID
	s.nextID++
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	cp := *post
	s.posts[post.ID] = &cp
	return post.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *post
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, post *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[post.ID]
	if !ok {
		return ErrPostNotFound
	}
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()

	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Search(ctx context.Context, query string) ([]*Post, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []*Post{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveTranscript(_ context.Context, sessionID string, transcript []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(transcript))
	copy(cp, transcript)
	s.sessions[sessionID] = cp
	return nil
}

func (s *MemoryStore) LoadTranscript(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := make([]byte, len(t))
	copy(cp, t)
	return cp, nil
}
