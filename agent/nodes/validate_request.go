package orchestratornode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

const (
	NodeValidateRequest = "validate_request"
	NodeLoadCheckpoint  = "load_checkpoint"
	NodeClassify        = "classify"
	NodeBankAgent       = "bank_agent"
	NodeTools           = "tools"
	NodeCheckFields     = "check_fields"
	NodeOpenAccount     = "open_account"
	NodeSaveCheckpoint  = "save_checkpoint"
	NodeReply           = "reply"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidThread  = errors.New("thread id is empty")
)

type GraphInput struct {
	ThreadID string
	Text     string
}

type GraphOutput struct {
	Reply     string
	Finalized bool
}

// GraphState is handed from node to node during one run.
type GraphState struct {
	ThreadID string
	Text     string
	Now      time.Time

	Conversation *statex.Conversation

	// Pending holds the tool calls of the latest bank agent message.
	Pending        []contractx.ToolRequest
	FieldsComplete bool
	Finalized      bool

	Steps     int
	StepLimit int
}

func ValidateRequest(in GraphInput, stepLimit int, now func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrInvalidMessage
	}
	if stepLimit <= 0 {
		return nil, fmt.Errorf("%w: step limit must be positive, got %d", contractx.ErrValidation, stepLimit)
	}

	return &GraphState{
		ThreadID:  threadID,
		Text:      in.Text,
		Now:       now(),
		StepLimit: stepLimit,
	}, nil
}

// step counts one state-machine node. Bookkeeping nodes (request validation,
// checkpoint load/save, reply) are not counted.
func (s *GraphState) step(node string) error {
	s.Steps++
	if s.Steps > s.StepLimit {
		return fmt.Errorf("%w: node=%s steps=%d limit=%d", contractx.ErrRecursionLimit, node, s.Steps, s.StepLimit)
	}
	log.Debug().Str("thread_id", s.ThreadID).Str("node", node).Int("step", s.Steps).Msg("graph step")
	return nil
}

func requireConversation(in *GraphState) error {
	if in == nil || in.Conversation == nil {
		return fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}
	return nil
}
