package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Conversation is the checkpointed state of one thread.
// - Messages only grow; entries are never edited once appended.
// - MessageType is written by the classifier and read by the router.
// - Task is recorded by the tool node and cleared by finalization.
type Conversation struct {
	ThreadID    string            `json:"thread_id"`
	Messages    []*schema.Message `json:"messages,omitempty"`
	MessageType MessageType       `json:"message_type,omitempty"`
	Task        *Task             `json:"task,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type MessageType string

const (
	MessageTypeBank    MessageType = "bank"
	MessageTypeGeneral MessageType = "general"
)

func (m MessageType) Valid() bool {
	return m == MessageTypeBank || m == MessageTypeGeneral
}

type TaskKind string

const (
	TaskAccountOpening TaskKind = "account_opening"
	TaskLoan           TaskKind = "loan"
)

// Task is the field collection currently driven by the bank agent.
type Task struct {
	Kind     TaskKind `json:"kind"`
	Required []string `json:"required"`
}

var (
	ErrUnknownRole  = errors.New("unknown message role")
	ErrNilMessage   = errors.New("message is nil")
	ErrInvalidTask  = errors.New("task is invalid")
	ErrInvalidLabel = errors.New("message type is invalid")
)

func NewConversation(threadID string, now time.Time) *Conversation {
	return &Conversation{
		ThreadID:  threadID,
		Messages:  make([]*schema.Message, 0, 16),
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// Append adds messages at the end of the history. Nil entries are rejected
// so that the stored order always matches the turn order.
func (c *Conversation) Append(msgs ...*schema.Message) error {
	if c == nil {
		return errors.New("nil conversation")
	}
	for _, m := range msgs {
		if m == nil {
			return ErrNilMessage
		}
	}
	c.Messages = append(c.Messages, msgs...)
	return nil
}

// Last returns the newest message or nil for an empty history.
func (c *Conversation) Last() *schema.Message {
	if c == nil || len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// History returns a copy of the message slice safe to hand to a model.
func (c *Conversation) History() []*schema.Message {
	if c == nil {
		return nil
	}
	out := make([]*schema.Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

func (c *Conversation) SetTask(kind TaskKind, required []string) {
	c.Task = &Task{
		Kind:     kind,
		Required: append([]string(nil), required...),
	}
}

func (c *Conversation) ClearTask() {
	c.Task = nil
}

// Clone copies the conversation. Messages are shared because they are never
// mutated, but the slice itself is not.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = c.History()
	if c.Task != nil {
		task := *c.Task
		task.Required = append([]string(nil), c.Task.Required...)
		out.Task = &task
	}
	return &out
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.ThreadID) == "" {
		return ErrInvalidThread
	}
	if c.MessageType != "" && !c.MessageType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, c.MessageType)
	}
	for i, m := range c.Messages {
		if m == nil {
			return fmt.Errorf("%w: index=%d", ErrNilMessage, i)
		}
		switch m.Role {
		case schema.User, schema.Assistant, schema.Tool, schema.System:
		default:
			return fmt.Errorf("%w: index=%d role=%q", ErrUnknownRole, i, m.Role)
		}
	}
	if c.Task != nil {
		if c.Task.Kind != TaskAccountOpening && c.Task.Kind != TaskLoan {
			return fmt.Errorf("%w: kind=%q", ErrInvalidTask, c.Task.Kind)
		}
		if len(c.Task.Required) == 0 {
			return fmt.Errorf("%w: no required fields", ErrInvalidTask)
		}
	}
	return nil
}
