package content

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Post is one stored piece of site content. Content holds the flattened,
// id-linked element list produced by the structure builder, as JSON.
type Post struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ErrPostNotFound is returned for lookups of ids that do not exist.
var ErrPostNotFound = errors.New("post not found")

// Store persists posts. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, post *Post) (int, error)
	Get(ctx context.Context, id int) (*Post, error)
	Update(ctx context.Context, post *Post) error
	List(ctx context.Context) ([]*Post, error)
	Search(ctx context.Context, query string) ([]*Post, error)
}

// SessionStore persists conversation transcripts keyed by session id. Saving
// is opportunistic: callers fire-and-forget and only log failures.
type SessionStore interface {
	SaveTranscript(ctx context.Context, sessionID string, transcript []byte) error
	LoadTranscript(ctx context.Context, sessionID string) ([]byte, error)
}

// ErrSessionNotFound is returned when no transcript exists for a session.
var ErrSessionNotFound = errors.New("session not found")
