package agent

import (
	"context"

	"github.com/wrightlabs/pagewright/pkg/abilities"
)

// AbilityInvoker abstracts where abilities actually run. The loop does not
// care whether execution is in-process or behind the HTTP API.
type AbilityInvoker interface {
	Invoke(ctx context.Context, call abilities.Call) (*abilities.Result, *abilities.AbilityError)
}

// LocalInvoker runs abilities in-process against a registry.
type LocalInvoker struct {
	Registry abilities.Registry
	Executor abilities.Executor
}

func NewLocalInvoker(registry abilities.Registry, executor abilities.Executor) *LocalInvoker {
	if executor == nil {
		executor = abilities.NewExecutor()
	}
	return &LocalInvoker{Registry: registry, Executor: executor}
}

func (l *LocalInvoker) Invoke(ctx context.Context, call abilities.Call) (*abilities.Result, *abilities.AbilityError) {
	return l.Executor.Execute(ctx, call, l.Registry)
}
