package catalog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/abilities/catalog"
	"github.com/wrightlabs/pagewright/pkg/content"
	"github.com/wrightlabs/pagewright/pkg/layout"
)

func newCatalog(t *testing.T) (*abilities.InMemoryRegistry, *content.MemoryStore) {
	t.Helper()
	registry := abilities.NewInMemoryRegistry()
	store := content.NewMemoryStore()
	builder := layout.NewBuilder()
	require.NoError(t, catalog.RegisterAll(registry, store, builder))
	return registry, store
}

func editorCtx() context.Context {
	return abilities.WithPrincipal(context.Background(), abilities.Principal{
		ID:           "editor",
		Capabilities: []string{catalog.CapabilityRead, catalog.CapabilityEdit},
	})
}

func run(t *testing.T, registry abilities.Registry, name, input string) *abilities.Result {
	t.Helper()
	exec := abilities.NewExecutor()
	result, abErr := exec.Execute(editorCtx(), abilities.Call{
		ID:    "call-1",
		Name:  name,
		Input: json.RawMessage(input),
	}, registry)
	require.Nil(t, abErr)
	return result
}

func TestCatalogRegistersAllAbilities(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)
	for _, name := range []string{
		"posts/list", "posts/search", "posts/read",
		"posts/create", "posts/update", "content/generate",
	} {
		assert.True(t, registry.Has(name), name)
	}
}

func TestPostLifecycleThroughAbilities(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	created := run(t, registry, "posts/create", `{"title":"Pricing"}`)
	var createOut catalog.CreatePostOutput
	remarshal(t, created.Data, &createOut)
	require.NotZero(t, createOut.ID)

	run(t, registry, "posts/update", `{"post_id":1,"status":"publish"}`)

	read := run(t, registry, "posts/read", `{"post_id":1}`)
	var readOut catalog.ReadPostOutput
	remarshal(t, read.Data, &readOut)
	assert.Equal(t, "Pricing", readOut.Title)
	assert.Equal(t, "publish", readOut.Status)

	list := run(t, registry, "posts/list", `{"status":"publish"}`)
	var listOut catalog.ListPostsOutput
	remarshal(t, list.Data, &listOut)
	assert.Equal(t, 1, listOut.Total)

	found := run(t, registry, "posts/search", `{"query":"pric"}`)
	var searchOut catalog.ListPostsOutput
	remarshal(t, found.Data, &searchOut)
	assert.Equal(t, 1, searchOut.Total)
}

func TestReadMissingPostIsRetryable(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	exec := abilities.NewExecutor()
	_, abErr := exec.Execute(editorCtx(), abilities.Call{
		Name:  "posts/read",
		Input: json.RawMessage(`{"post_id":42}`),
	}, registry)
	require.NotNil(t, abErr)
	assert.Equal(t, abilities.ErrorTypeExecution, abErr.Type)
	assert.True(t, abErr.IsRetryable())
	assert.Contains(t, abErr.Message, "post not found: 42")
}

func TestUpdateMissingPostIsRetryable(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	exec := abilities.NewExecutor()
	_, abErr := exec.Execute(editorCtx(), abilities.Call{
		Name:  "posts/update",
		Input: json.RawMessage(`{"post_id":42,"title":"Renamed"}`),
	}, registry)
	require.NotNil(t, abErr)
	assert.Equal(t, abilities.ErrorTypeExecution, abErr.Type)
	assert.Contains(t, abErr.Message, "post not found: 42")
}

func TestGenerateProducesClientCommand(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	result := run(t, registry, "content/generate", `{
		"structure": {
			"type": "section",
			"children": [
				{"type": "heading", "content": "Hello"},
				{"type": "text", "content": "World"}
			]
		},
		"action_type": "append",
		"post_id": 7
	}`)

	assert.True(t, result.RequiresClientExecution)
	require.NotNil(t, result.ClientCommand)
	assert.Equal(t, "apply_content", result.ClientCommand.Type)
	assert.Equal(t, "append", result.ClientCommand.Position)
	assert.Equal(t, 7, result.ClientCommand.PostID)

	var out catalog.GenerateContentOutput
	remarshal(t, result.Data, &out)
	assert.True(t, out.Success)
	assert.Equal(t, 3, out.ContentInfo.ElementCount)
	assert.Equal(t, "section", out.ContentInfo.Type)
	require.Len(t, out.ContentJSON.Content, 3)
	assert.Equal(t, out.ContentInfo.RootID, out.ContentJSON.Content[0].ID)
}

func TestGenerateRejectsUnknownAction(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	exec := abilities.NewExecutor()
	_, abErr := exec.Execute(editorCtx(), abilities.Call{
		Name:  "content/generate",
		Input: json.RawMessage(`{"structure":{"type":"div"},"action_type":"overwrite"}`),
	}, registry)
	require.NotNil(t, abErr)
	assert.Equal(t, abilities.ErrorTypeValidation, abErr.Type)
	assert.Equal(t, "action_type", abErr.Field)
}

func TestMutationRequiresEditCapability(t *testing.T) {
	t.Parallel()
	registry, _ := newCatalog(t)

	readOnly := abilities.WithPrincipal(context.Background(), abilities.Principal{
		ID:           "viewer",
		Capabilities: []string{catalog.CapabilityRead},
	})
	exec := abilities.NewExecutor()
	_, abErr := exec.Execute(readOnly, abilities.Call{
		Name:  "posts/create",
		Input: json.RawMessage(`{"title":"Nope"}`),
	}, registry)
	require.NotNil(t, abErr)
	assert.Equal(t, abilities.ErrorTypePermission, abErr.Type)
}

func remarshal(t *testing.T, from any, to any) {
	t.Helper()
	raw, err := json.Marshal(from)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, to))
}
