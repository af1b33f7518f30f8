package agent

import (
	"time"

	clone "github.com/huandu/go-clone"
)

// Role tags who produced a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleAbility carries the serialized outcome of an ability execution
	// back to the model.
	RoleAbility Role = "ability"
)

// Message is one entry in a session transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// State names where the orchestration loop currently is. Transitions are
// published as agent-state events so observers can follow a turn live.
type State string

const (
	StateIdle       State = "idle"
	StateThinking   State = "thinking"
	StateExecuting  State = "executing"
	StateRetrying   State = "retrying"
	StateRecovering State = "recovering"
	StateError      State = "error"
)

// Conversation accumulates the messages of one session plus the loop's
// bookkeeping. It is owned by a single Run invocation at a time; Clone is
// used to hand a stable snapshot to asynchronous persistence.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	State     State     `json:"state"`

	// RecoveryCount counts rate-limit backoff waits within the current turn.
	// Reset at the start of every Run.
	RecoveryCount int `json:"recovery_count,omitempty"`
}

func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Messages:  []Message{},
		State:     StateIdle,
	}
}

func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

func (c *Conversation) AppendText(role Role, content string) {
	c.Append(NewMessage(role, content))
}

// Clone returns a deep copy safe to read from another goroutine while the
// loop keeps mutating the original.
func (c *Conversation) Clone() *Conversation {
	return clone.Clone(c).(*Conversation)
}
