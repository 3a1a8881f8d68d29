package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
)

func BankTurn(ctx context.Context, in *GraphState, agent contractx.BankAgent) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}
	if err := in.step(NodeBankAgent); err != nil {
		return nil, err
	}

	resp, err := agent.Next(ctx, contractx.BankRequest{History: in.Conversation.History()})
	if err != nil {
		return nil, err
	}
	if err := in.Conversation.Append(resp.Message); err != nil {
		return nil, err
	}
	in.Pending = resp.ToolRequests
	in.FieldsComplete = false

	log.Debug().Str("thread_id", in.ThreadID).Int("tool_calls", len(resp.ToolRequests)).Msg("bank agent turn")
	return in, nil
}
