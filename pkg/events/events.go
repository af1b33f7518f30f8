package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

type EventType string

const (
	// Agent turn lifecycle
	EventTypeAgentState   EventType = "agent-state"
	EventTypeTurnComplete EventType = "turn-complete"

	// Ability execution phase
	EventTypeAbilityExecute EventType = "ability-execute"
	EventTypeAbilityResult  EventType = "ability-result"

	// A malformed nestable structure was lowered leniently; kept observable
	// so agent output quality can be tracked.
	EventTypeStructureWarning EventType = "structure-warning"

	EventTypeError EventType = "error"
)

// EventMetadata identifies which session and turn an event belongs to.
type EventMetadata struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	TurnID    string    `json:"turn_id,omitempty"`
}

// Event is the common interface of every published event.
type Event interface {
	Type() EventType
	Metadata() EventMetadata
}

type baseEvent struct {
	EventType EventType     `json:"type"`
	Meta      EventMetadata `json:"meta"`
}

func (e *baseEvent) Type() EventType        { return e.EventType }
func (e *baseEvent) Metadata() EventMetadata { return e.Meta }

func newBase(t EventType, meta EventMetadata) baseEvent {
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	return baseEvent{EventType: t, Meta: meta}
}

// EventAgentState reports an orchestration state transition.
type EventAgentState struct {
	baseEvent
	State string `json:"state"`
	// Detail carries state-specific context such as backoff delays.
	Detail string `json:"detail,omitempty"`
}

func NewAgentStateEvent(meta EventMetadata, state, detail string) *EventAgentState {
	return &EventAgentState{baseEvent: newBase(EventTypeAgentState, meta), State: state, Detail: detail}
}

// EventAbilityExecute is published just before an ability attempt runs.
type EventAbilityExecute struct {
	baseEvent
	Ability string `json:"ability"`
	Attempt int    `json:"attempt"`
	Input   string `json:"input,omitempty"`
}

func NewAbilityExecuteEvent(meta EventMetadata, ability string, attempt int, input string) *EventAbilityExecute {
	return &EventAbilityExecute{baseEvent: newBase(EventTypeAbilityExecute, meta), Ability: ability, Attempt: attempt, Input: input}
}

// EventAbilityResult is published after an ability attempt finishes, success
// or failure.
type EventAbilityResult struct {
	baseEvent
	Ability  string `json:"ability"`
	Success  bool   `json:"success"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

func NewAbilityResultEvent(meta EventMetadata, ability string, success bool, attempts int, errText string) *EventAbilityResult {
	return &EventAbilityResult{
		baseEvent: newBase(EventTypeAbilityResult, meta),
		Ability:   ability,
		Success:   success,
		Attempts:  attempts,
		Error:     errText,
	}
}

// EventTurnComplete closes out one user turn.
type EventTurnComplete struct {
	baseEvent
	AbilitiesRun int  `json:"abilities_run"`
	Failed       int  `json:"failed"`
	Aborted      bool `json:"aborted,omitempty"`
}

func NewTurnCompleteEvent(meta EventMetadata, run, failed int, aborted bool) *EventTurnComplete {
	return &EventTurnComplete{baseEvent: newBase(EventTypeTurnComplete, meta), AbilitiesRun: run, Failed: failed, Aborted: aborted}
}

// EventStructureWarning records lenient handling of malformed structures.
type EventStructureWarning struct {
	baseEvent
	ElementID string `json:"element_id"`
	Warning   string `json:"warning"`
}

func NewStructureWarningEvent(meta EventMetadata, elementID, warning string) *EventStructureWarning {
	return &EventStructureWarning{baseEvent: newBase(EventTypeStructureWarning, meta), ElementID: elementID, Warning: warning}
}

// EventError reports a terminal turn failure.
type EventError struct {
	baseEvent
	ErrorText string `json:"error"`
}

func NewErrorEvent(meta EventMetadata, errText string) *EventError {
	return &EventError{baseEvent: newBase(EventTypeError, meta), ErrorText: errText}
}

// MarshalEvent serializes an event for transport.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
