package abilities

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text" jsonschema:"required"`
}

func newEchoRegistry(t *testing.T) *InMemoryRegistry {
	t.Helper()
	reg := NewInMemoryRegistry()

	echo, err := NewFromFunc("demo/echo", "Echo back the provided text", func(in echoInput) (map[string]any, error) {
		return map[string]any{"echo": in.Text}, nil
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(echo))

	boom, err := NewFromFunc("demo/boom", "Always fails", func(in echoInput) (map[string]any, error) {
		return nil, errors.New("post not found: 42")
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(boom))

	guarded, err := NewFromFunc("demo/guarded", "Requires edit capability", func(ctx context.Context, in echoInput) (*Result, error) {
		return &Result{
			Data:                    map[string]any{"written": in.Text},
			RequiresClientExecution: true,
			ClientCommand:           &ClientCommand{Type: "insert_content", Content: in.Text},
		}, nil
	}, WithCapability("edit_posts"))
	require.NoError(t, err)
	require.NoError(t, reg.Register(guarded))

	return reg
}

func editorCtx() context.Context {
	return WithPrincipal(context.Background(), Principal{
		ID:           "editor-1",
		Capabilities: []string{"read", "edit_posts"},
	})
}

func readerCtx() context.Context {
	return WithPrincipal(context.Background(), Principal{
		ID:           "reader-1",
		Capabilities: []string{"read"},
	})
}

func call(name, input string) Call {
	return Call{Name: name, Input: json.RawMessage(input)}
}

func TestExecutorRunsAbility(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	res, aerr := NewExecutor().Execute(editorCtx(), call("demo/echo", `{"text":"hi"}`), reg)
	require.Nil(t, aerr)
	assert.Equal(t, map[string]any{"echo": "hi"}, res.Data)
}

func TestExecutorValidationStopsBeforeHandler(t *testing.T) {
	t.Parallel()

	reg := NewInMemoryRegistry()
	invoked := false
	def, err := NewFromFunc("demo/strict", "strict input", func(in echoInput) (string, error) {
		invoked = true
		return in.Text, nil
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(def))

	_, aerr := NewExecutor().Execute(editorCtx(), call("demo/strict", `{}`), reg)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrorTypeValidation, aerr.Type)
	assert.Equal(t, "text", aerr.Field)
	assert.False(t, invoked, "handler must not run on invalid input")
}

func TestExecutorPermissionDenied(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	_, aerr := NewExecutor().Execute(readerCtx(), call("demo/guarded", `{"text":"x"}`), reg)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrorTypePermission, aerr.Type)
	assert.False(t, aerr.IsRetryable())
}

func TestExecutorMissingPrincipal(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	_, aerr := NewExecutor().Execute(context.Background(), call("demo/echo", `{"text":"x"}`), reg)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrorTypePermission, aerr.Type)
}

func TestExecutorNotFound(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	_, aerr := NewExecutor().Execute(editorCtx(), call("demo/missing", `{}`), reg)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrorTypeNotFound, aerr.Type)
}

func TestExecutorExecutionError(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	_, aerr := NewExecutor().Execute(editorCtx(), call("demo/boom", `{"text":"x"}`), reg)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrorTypeExecution, aerr.Type)
	assert.Contains(t, aerr.Message, "post not found")
	assert.True(t, aerr.IsRetryable())
}

func TestExecutorClientCommandPassthrough(t *testing.T) {
	t.Parallel()

	reg := newEchoRegistry(t)
	res, aerr := NewExecutor().Execute(editorCtx(), call("demo/guarded", `{"text":"hello"}`), reg)
	require.Nil(t, aerr)
	assert.True(t, res.RequiresClientExecution)
	require.NotNil(t, res.ClientCommand)
	assert.Equal(t, "insert_content", res.ClientCommand.Type)
}

func TestResponseEnvelope(t *testing.T) {
	t.Parallel()

	ok := NewResponse(&Result{Data: 1}, nil)
	assert.True(t, ok.Success)
	assert.Equal(t, 1, ok.Data)

	bad := NewResponse(nil, NewValidationError("demo/echo", "text", "text is required"))
	assert.False(t, bad.Success)
	require.NotNil(t, bad.Error)
	assert.Equal(t, ErrorTypeValidation, bad.Error.Type)
}
