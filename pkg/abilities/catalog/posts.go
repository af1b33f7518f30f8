package catalog

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/content"
)

// CapabilityEdit gates every ability that mutates stored content.
// Read-only abilities carry CapabilityRead instead.
const (
	CapabilityEdit = "edit_posts"
	CapabilityRead = "read"
)

type PostSummary struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type ListPostsInput struct {
	Status string `json:"status,omitempty" jsonschema_description:"Optional status filter, e.g. publish or draft"`
}

type ListPostsOutput struct {
	Posts []PostSummary `json:"posts"`
	Total int           `json:"total"`
}

type SearchPostsInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Case-insensitive substring matched against post titles"`
}

type ReadPostInput struct {
	PostID int `json:"post_id" jsonschema:"required"`
}

type ReadPostOutput struct {
	ID      int             `json:"id"`
	Title   string          `json:"title"`
	Status  string          `json:"status"`
	Content json.RawMessage `json:"content,omitempty"`
}

type CreatePostInput struct {
	Title  string `json:"title" jsonschema:"required"`
	Status string `json:"status,omitempty" jsonschema_description:"Defaults to draft"`
}

type CreatePostOutput struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

type UpdatePostInput struct {
	PostID int    `json:"post_id" jsonschema:"required"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
}

type UpdatePostOutput struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

func summarize(posts []*content.Post) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostSummary{ID: p.ID, Title: p.Title, Status: p.Status})
	}
	return out
}

// RegisterPostAbilities wires the post CRUD abilities against the given store.
// Listing and reading only require the read capability; everything that writes
// requires edit_posts.
func RegisterPostAbilities(registry abilities.Registry, store content.Store) error {
	list, err := abilities.NewFromFunc(
		"posts/list",
		"List stored posts, optionally filtered by status.",
		func(ctx context.Context, input ListPostsInput) (ListPostsOutput, error) {
			posts, err := store.List(ctx)
			if err != nil {
				return ListPostsOutput{}, err
			}
			if input.Status != "" {
				filtered := posts[:0:0]
				for _, p := range posts {
					if p.Status == input.Status {
						filtered = append(filtered, p)
					}
				}
				posts = filtered
			}
			return ListPostsOutput{Posts: summarize(posts), Total: len(posts)}, nil
		},
		abilities.WithCapability(CapabilityRead),
		abilities.WithOutputType(ListPostsOutput{}),
	)
	if err != nil {
		return err
	}

	search, err := abilities.NewFromFunc(
		"posts/search",
		"Search posts by title.",
		func(ctx context.Context, input SearchPostsInput) (ListPostsOutput, error) {
			posts, err := store.Search(ctx, input.Query)
			if err != nil {
				return ListPostsOutput{}, err
			}
			return ListPostsOutput{Posts: summarize(posts), Total: len(posts)}, nil
		},
		abilities.WithCapability(CapabilityRead),
		abilities.WithOutputType(ListPostsOutput{}),
	)
	if err != nil {
		return err
	}

	read, err := abilities.NewFromFunc(
		"posts/read",
		"Read a single post with its stored element content.",
		func(ctx context.Context, input ReadPostInput) (ReadPostOutput, error) {
			post, err := store.Get(ctx, input.PostID)
			if err != nil {
				if errors.Is(err, content.ErrPostNotFound) {
					// A missing post is a bad input, not a missing ability:
					// the model can list posts and retry with a valid id.
					return ReadPostOutput{}, abilities.NewExecutionError("posts/read",
						errors.Errorf("post not found: %d", input.PostID))
				}
				return ReadPostOutput{}, err
			}
			return ReadPostOutput{
				ID:      post.ID,
				Title:   post.Title,
				Status:  post.Status,
				Content: post.Content,
			}, nil
		},
		abilities.WithCapability(CapabilityRead),
		abilities.WithOutputType(ReadPostOutput{}),
	)
	if err != nil {
		return err
	}

	create, err := abilities.NewFromFunc(
		"posts/create",
		"Create a new post.",
		func(ctx context.Context, input CreatePostInput) (CreatePostOutput, error) {
			status := input.Status
			if status == "" {
				status = "draft"
			}
			id, err := store.Create(ctx, &content.Post{Title: input.Title, Status: status})
			if err != nil {
				return CreatePostOutput{}, err
			}
			return CreatePostOutput{ID: id, Message: "post created"}, nil
		},
		abilities.WithCapability(CapabilityEdit),
		abilities.WithOutputType(CreatePostOutput{}),
	)
	if err != nil {
		return err
	}

	update, err := abilities.NewFromFunc(
		"posts/update",
		"Update a post's title or status.",
		func(ctx context.Context, input UpdatePostInput) (UpdatePostOutput, error) {
			post, err := store.Get(ctx, input.PostID)
			if err != nil {
				if errors.Is(err, content.ErrPostNotFound) {
					return UpdatePostOutput{}, abilities.NewExecutionError("posts/update",
						errors.Errorf("post not found: %d", input.PostID))
				}
				return UpdatePostOutput{}, err
			}
			if input.Title != "" {
				post.Title = input.Title
			}
			if input.Status != "" {
				post.Status = input.Status
			}
			if err := store.Update(ctx, post); err != nil {
				return UpdatePostOutput{}, err
			}
			return UpdatePostOutput{ID: post.ID, Message: "post updated"}, nil
		},
		abilities.WithCapability(CapabilityEdit),
		abilities.WithOutputType(UpdatePostOutput{}),
	)
	if err != nil {
		return err
	}

	for _, def := range []*abilities.Definition{list, search, read, create, update} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
