package abilities

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wrightlabs/pagewright/pkg/events"
)

// Executor runs ability calls against a registry: permission check first,
// then schema validation, then the typed handler. Results are normalized into
// one canonical shape regardless of what the handler returned.
type Executor interface {
	Execute(ctx context.Context, call Call, registry Registry) (*Result, *AbilityError)
}

// DefaultExecutor is the standard Executor implementation.
type DefaultExecutor struct {
	timeout time.Duration
}

type ExecutorOption func(*DefaultExecutor)

// WithExecutionTimeout bounds a single handler invocation.
func WithExecutionTimeout(d time.Duration) ExecutorOption {
	return func(e *DefaultExecutor) { e.timeout = d }
}

func NewExecutor(opts ...ExecutorOption) *DefaultExecutor {
	e := &DefaultExecutor{timeout: 30 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

var _ Executor = (*DefaultExecutor)(nil)

// Execute runs one ability call. Validation failures never reach the handler.
func (e *DefaultExecutor) Execute(ctx context.Context, call Call, registry Registry) (*Result, *AbilityError) {
	start := time.Now()

	def, err := registry.Get(call.Name)
	if err != nil {
		return nil, AsAbilityError(call.Name, err)
	}

	principal, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, NewPermissionError(def.Name, "no principal in context")
	}
	if !principal.Can(def.Capability) {
		return nil, NewPermissionError(def.Name, "missing capability: "+def.Capability)
	}

	if verr := def.Validate(call.Input); verr != nil {
		return nil, verr
	}

	events.PublishEventToContext(ctx, events.NewAbilityExecuteEvent(
		events.EventMetadata{}, def.Name, 1, compactJSON(call.Input),
	))

	execCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	execCtx = WithCurrentCall(execCtx, call)

	out, invokeErr := def.Invoke(execCtx, call.Input)

	result, abilityErr := normalizeOutcome(def.Name, out, invokeErr)
	success := abilityErr == nil

	log.Debug().
		Str("ability", def.Name).
		Bool("success", success).
		Dur("duration", time.Since(start)).
		Msg("executor: ability call finished")

	return result, abilityErr
}

// normalizeOutcome folds the heterogeneous handler outcomes into the one
// canonical result-or-error form.
func normalizeOutcome(ability string, out any, err error) (*Result, *AbilityError) {
	if err != nil {
		return nil, AsAbilityError(ability, err)
	}
	switch tv := out.(type) {
	case *Result:
		if tv == nil {
			return &Result{}, nil
		}
		return tv, nil
	case Result:
		return &tv, nil
	default:
		return &Result{Data: out}, nil
	}
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var tmp any
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(tmp)
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// Response is the canonical envelope the HTTP surface and the orchestration
// loop exchange: success with data, or a structured error.
type Response struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   *AbilityError `json:"error,omitempty"`

	RequiresClientExecution bool           `json:"requires_client_execution,omitempty"`
	ClientCommand           *ClientCommand `json:"client_command,omitempty"`
}

// NewResponse folds an execution outcome into the wire envelope.
func NewResponse(result *Result, err *AbilityError) Response {
	if err != nil {
		return Response{Success: false, Error: err}
	}
	resp := Response{Success: true}
	if result != nil {
		resp.Data = result.Data
		resp.RequiresClientExecution = result.RequiresClientExecution
		resp.ClientCommand = result.ClientCommand
	}
	return resp
}
