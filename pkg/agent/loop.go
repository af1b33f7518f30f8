package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/content"
	"github.com/wrightlabs/pagewright/pkg/events"
)

// DefaultMaxRetries bounds the model-guided correction attempts per ability.
// A call therefore runs at most DefaultMaxRetries+1 times.
const DefaultMaxRetries = 2

// Attempt is one execution of one ability call. Attempts are values: a retry
// produces a new Attempt with the corrected input, it never mutates a
// previous one.
type Attempt struct {
	Call   abilities.Call
	Number int
}

// AbilityOutcome is the terminal record of one planned ability after all
// retries.
type AbilityOutcome struct {
	Name     string                  `json:"name"`
	Attempts int                     `json:"attempts"`
	Result   *abilities.Result       `json:"result,omitempty"`
	Error    *abilities.AbilityError `json:"error,omitempty"`
	// GaveUp is set when the model replied CANNOT_FIX instead of a
	// corrected input.
	GaveUp bool `json:"gave_up,omitempty"`
}

func (o AbilityOutcome) Succeeded() bool { return o.Error == nil }

// RunResult is what one user turn produced.
type RunResult struct {
	Reply    string           `json:"reply"`
	Outcomes []AbilityOutcome `json:"outcomes"`
	Summary  string           `json:"summary,omitempty"`
}

// Loop drives one conversation: it sends the transcript to the model,
// extracts planned abilities from the reply, executes them strictly in
// order, and feeds failures back to the model for bounded correction.
type Loop struct {
	client     ChatClient
	invoker    AbilityInvoker
	registry   abilities.Registry
	store      content.SessionStore
	maxRetries int
	prompt     string
}

type LoopOption func(*Loop)

func WithChatClient(client ChatClient) LoopOption {
	return func(l *Loop) { l.client = client }
}

func WithInvoker(invoker AbilityInvoker) LoopOption {
	return func(l *Loop) { l.invoker = invoker }
}

func WithSessionStore(store content.SessionStore) LoopOption {
	return func(l *Loop) { l.store = store }
}

func WithMaxRetries(n int) LoopOption {
	return func(l *Loop) { l.maxRetries = n }
}

func WithSystemPrompt(prompt string) LoopOption {
	return func(l *Loop) { l.prompt = prompt }
}

func NewLoop(registry abilities.Registry, opts ...LoopOption) (*Loop, error) {
	l := &Loop{
		registry:   registry,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		return nil, errors.New("loop requires a chat client")
	}
	if l.invoker == nil {
		l.invoker = NewLocalInvoker(registry, nil)
	}
	if l.prompt == "" {
		l.prompt = SystemPrompt(registry)
	}
	return l, nil
}

// Run executes one user turn on conv. It mutates conv (appends messages,
// moves its state) and returns the turn's outcome. Persistence of the
// transcript is fire and forget: a deep copy is handed to a goroutine so a
// slow store never blocks the turn.
func (l *Loop) Run(ctx context.Context, conv *Conversation, userMessage string) (*RunResult, error) {
	turnID := uuid.New().String()
	meta := events.EventMetadata{SessionID: conv.SessionID, TurnID: turnID}

	if len(conv.Messages) == 0 {
		conv.AppendText(RoleSystem, l.prompt)
	}
	conv.AppendText(RoleUser, userMessage)
	conv.RecoveryCount = 0

	l.setState(ctx, conv, meta, StateThinking, "completion request")
	reply, err := l.complete(ctx, conv, meta)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is an aborted turn, not a model failure.
			l.setState(ctx, conv, meta, StateIdle, "turn aborted")
			events.PublishEventToContext(ctx, events.NewTurnCompleteEvent(meta, 0, 0, true))
			return nil, ctx.Err()
		}
		l.setState(ctx, conv, meta, StateError, err.Error())
		events.PublishEventToContext(ctx, events.NewErrorEvent(meta, err.Error()))
		return nil, errors.Wrap(err, "model turn")
	}
	conv.AppendText(RoleAssistant, reply)

	plan := ExtractPlan(reply)
	calls := plan.Calls(turnID)

	result := &RunResult{Reply: reply}
	failed := 0

	if len(calls) > 0 {
		l.setState(ctx, conv, meta, StateExecuting, fmt.Sprintf("%d abilities planned", len(calls)))
	}
	for _, call := range calls {
		if ctx.Err() != nil {
			l.setState(ctx, conv, meta, StateIdle, "turn aborted")
			events.PublishEventToContext(ctx, events.NewTurnCompleteEvent(meta, len(result.Outcomes), failed, true))
			return result, ctx.Err()
		}
		outcome := l.runWithRetries(ctx, conv, meta, call)
		result.Outcomes = append(result.Outcomes, outcome)
		if !outcome.Succeeded() {
			failed++
		}
		l.reportOutcome(conv, outcome)
	}

	if len(result.Outcomes) > 1 {
		summary, err := l.requestSummary(ctx, conv, meta, result.Outcomes)
		if err != nil {
			log.Warn().Err(err).Msg("loop: summary request failed")
		} else {
			result.Summary = summary
		}
	}

	l.setState(ctx, conv, meta, StateIdle, "turn complete")
	events.PublishEventToContext(ctx, events.NewTurnCompleteEvent(meta, len(result.Outcomes), failed, false))

	l.persistAsync(conv)
	return result, nil
}

// runWithRetries executes one planned call, feeding retryable failures back
// to the model for a corrected input, up to the retry ceiling. Each retry is
// a fresh Attempt carrying the corrected call.
func (l *Loop) runWithRetries(ctx context.Context, conv *Conversation, meta events.EventMetadata, call abilities.Call) AbilityOutcome {
	attempt := Attempt{Call: call, Number: 1}
	maxAttempts := l.maxRetries + 1

	for {
		res, abErr := l.invoker.Invoke(ctx, attempt.Call)
		if abErr == nil {
			events.PublishEventToContext(ctx, events.NewAbilityResultEvent(meta, attempt.Call.Name, true, attempt.Number, ""))
			return AbilityOutcome{Name: attempt.Call.Name, Attempts: attempt.Number, Result: res}
		}

		events.PublishEventToContext(ctx, events.NewAbilityResultEvent(meta, attempt.Call.Name, false, attempt.Number, abErr.Message))
		if !abErr.IsRetryable() || attempt.Number >= maxAttempts {
			return AbilityOutcome{Name: attempt.Call.Name, Attempts: attempt.Number, Error: abErr}
		}

		l.setState(ctx, conv, meta, StateRetrying, fmt.Sprintf("%s attempt %d failed", attempt.Call.Name, attempt.Number))
		corrected, gaveUp, err := l.requestCorrection(ctx, conv, meta, attempt.Call, abErr)
		if err != nil {
			log.Warn().Err(err).Str("ability", attempt.Call.Name).Msg("loop: correction request failed")
			return AbilityOutcome{Name: attempt.Call.Name, Attempts: attempt.Number, Error: abErr}
		}
		if gaveUp {
			return AbilityOutcome{Name: attempt.Call.Name, Attempts: attempt.Number, Error: abErr, GaveUp: true}
		}

		attempt = Attempt{
			Call: abilities.Call{
				ID:    fmt.Sprintf("%s-r%d", attempt.Call.ID, attempt.Number),
				Name:  attempt.Call.Name,
				Input: corrected,
			},
			Number: attempt.Number + 1,
		}
	}
}

// complete sends the transcript to the model with a backoff hook installed,
// so rate-limit waits inside the client surface as Recovering transitions.
func (l *Loop) complete(ctx context.Context, conv *Conversation, meta events.EventMetadata) (string, error) {
	hookCtx := WithBackoffHook(ctx, func(attempt int, delay time.Duration) {
		conv.RecoveryCount++
		l.setState(ctx, conv, meta, StateRecovering,
			fmt.Sprintf("rate limited, attempt %d retrying in %s", attempt, delay))
	})
	return l.client.Complete(hookCtx, conv.Messages)
}

func (l *Loop) requestCorrection(ctx context.Context, conv *Conversation, meta events.EventMetadata, call abilities.Call, abErr *abilities.AbilityError) (json.RawMessage, bool, error) {
	conv.AppendText(RoleUser, CorrectionPrompt(call, abErr))
	reply, err := l.complete(ctx, conv, meta)
	if err != nil {
		return nil, false, err
	}
	conv.AppendText(RoleAssistant, reply)

	if ContainsCannotFix(reply) {
		return nil, true, nil
	}
	corrected := ExtractCorrection(reply)
	if corrected == nil {
		return nil, true, nil
	}
	return corrected, false, nil
}

// requestSummary asks the model for a short wrap-up after a multi-ability
// turn, so the user hears what was done and what, if anything, was dropped.
func (l *Loop) requestSummary(ctx context.Context, conv *Conversation, meta events.EventMetadata, outcomes []AbilityOutcome) (string, error) {
	l.setState(ctx, conv, meta, StateThinking, "summary request")
	var b []byte
	b, _ = json.Marshal(outcomes)
	conv.AppendText(RoleUser, fmt.Sprintf(
		"Summarize for the user what was just done, in one short paragraph. Mention anything that failed or was skipped.\nOutcomes:\n```json\n%s\n```", string(b)))
	reply, err := l.complete(ctx, conv, meta)
	if err != nil {
		return "", err
	}
	conv.AppendText(RoleAssistant, reply)
	return reply, nil
}

func (l *Loop) reportOutcome(conv *Conversation, outcome AbilityOutcome) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"name":%q,"marshal_error":%q}`, outcome.Name, err.Error()))
	}
	msg := NewMessage(RoleAbility, string(payload))
	msg.Name = outcome.Name
	conv.Append(msg)
}

func (l *Loop) setState(ctx context.Context, conv *Conversation, meta events.EventMetadata, state State, detail string) {
	conv.State = state
	events.PublishEventToContext(ctx, events.NewAgentStateEvent(meta, string(state), detail))
}

// persistAsync snapshots the conversation and writes it in the background.
func (l *Loop) persistAsync(conv *Conversation) {
	if l.store == nil {
		return
	}
	snapshot := conv.Clone()
	go func() {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			log.Error().Err(err).Str("session_id", snapshot.SessionID).Msg("loop: transcript marshal failed")
			return
		}
		if err := l.store.SaveTranscript(context.Background(), snapshot.SessionID, raw); err != nil {
			log.Error().Err(err).Str("session_id", snapshot.SessionID).Msg("loop: transcript persist failed")
		}
	}()
}
