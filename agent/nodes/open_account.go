package orchestratornode

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
)

const openAccountPrefix = "Opened an account with information:\n"

// OpenAccount is the stub final action: it echoes the collected fields.
func OpenAccount(in *GraphState) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}
	if err := in.step(NodeOpenAccount); err != nil {
		return nil, err
	}

	last := in.Conversation.Last()
	if last == nil {
		return nil, fmt.Errorf("%w: nothing to finalize", contractx.ErrValidation)
	}
	task := ""
	if in.Conversation.Task != nil {
		task = string(in.Conversation.Task.Kind)
	}

	if err := in.Conversation.Append(schema.AssistantMessage(openAccountPrefix+last.Content, nil)); err != nil {
		return nil, err
	}
	in.Conversation.ClearTask()
	in.Finalized = true

	log.Info().Str("thread_id", in.ThreadID).Str("task", task).Msg("opened account")
	return in, nil
}
