package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	backend "github.com/redis/go-redis/v9"

	"github.com/wrightlabs/pagewright/pkg/content"
)

// Store implements content.Store and content.SessionStore on Redis. Posts are
// stored as JSON blobs under per-id keys with a sorted-set index; transcripts
// get a TTL so abandoned sessions expire on their own.
type Store struct {
	client     *backend.Client
	prefix     string
	sessionTTL time.Duration
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithSessionTTL sets the transcript expiration.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) { s.sessionTTL = ttl }
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client:     client,
		prefix:     "pagewright:",
		sessionTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ content.Store        = (*Store)(nil)
	_ content.SessionStore = (*Store)(nil)
)

func (s *Store) postKey(id int) string {
	return fmt.Sprintf("%spost:%d", s.prefix, id)
}

func (s *Store) indexKey() string {
	return s.prefix + "posts"
}

func (s *Store) seqKey() string {
	return s.prefix + "post-seq"
}

func (s *Store) sessionKey(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *Store) Create(ctx context.Context, post *content.Post) (int, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return 0, errors.Wrap(err, "allocate post id")
	}
	post.ID = int(id)
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.write(ctx, post); err != nil {
		return 0, err
	}
	if err := s.client.ZAdd(ctx, s.indexKey(), backend.Z{Score: float64(id), Member: id}).Err(); err != nil {
		return 0, errors.Wrap(err, "index post")
	}
	return post.ID, nil
}

func (s *Store) write(ctx context.Context, post *content.Post) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return errors.Wrap(err, "marshal post")
	}
	if err := s.client.Set(ctx, s.postKey(post.ID), payload, 0).Err(); err != nil {
		return errors.Wrap(err, "write post")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int) (*content.Post, error) {
	payload, err := s.client.Get(ctx, s.postKey(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, content.ErrPostNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read post")
	}
	var post content.Post
	if err := json.Unmarshal(payload, &post); err != nil {
		return nil, errors.Wrap(err, "unmarshal post")
	}
	return &post, nil
}

func (s *Store) Update(ctx context.Context, post *content.Post) error {
	existing, err := s.Get(ctx, post.ID)
	if err != nil {
		return err
	}
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	return s.write(ctx, post)
}

func (s *Store) List(ctx context.Context) ([]*content.Post, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list post ids")
	}
	out := make([]*content.Post, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		post, err := s.Get(ctx, id)
		if errors.Is(err, content.ErrPostNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, nil
}

func (s *Store) Search(ctx context.Context, query string) ([]*content.Post, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*content.Post{}
	for _, p := range all {
		if containsFold(p.Title, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) SaveTranscript(ctx context.Context, sessionID string, transcript []byte) error {
	err := s.client.Set(ctx, s.sessionKey(sessionID), transcript, s.sessionTTL).Err()
	return errors.Wrap(err, "save transcript")
}

func (s *Store) LoadTranscript(ctx context.Context, sessionID string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, content.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load transcript")
	}
	return payload, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
