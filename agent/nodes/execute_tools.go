package orchestratornode

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	toolx "github.com/tanpawarit/Chative-Bank-Agent/agent/tool"
)

// ExecuteTools runs the pending tool calls and appends one tool message per
// call, in request order.
func ExecuteTools(ctx context.Context, in *GraphState, tools contractx.ToolGateway) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}
	if err := in.step(NodeTools); err != nil {
		return nil, err
	}
	if len(in.Pending) == 0 {
		return nil, fmt.Errorf("%w: no pending tool calls", contractx.ErrValidation)
	}

	results, err := tools.Execute(ctx, in.Pending)
	if err != nil {
		return nil, err
	}
	if len(results) != len(in.Pending) {
		return nil, fmt.Errorf("%w: got %d tool results for %d calls", contractx.ErrValidation, len(results), len(in.Pending))
	}

	msgs := make([]*schema.Message, 0, len(results))
	for i, res := range results {
		msgs = append(msgs, &schema.Message{
			Role:       schema.Tool,
			Content:    toolx.Render(res),
			ToolCallID: in.Pending[i].ID,
			ToolName:   in.Pending[i].Tool,
		})
		if res.Failed() {
			continue
		}
		if kind, ok := toolx.TaskFor(toolx.ParseToolID(res.Tool)); ok {
			in.Conversation.SetTask(kind, toolx.RequiredFields(kind))
			log.Info().Str("thread_id", in.ThreadID).Str("task", string(kind)).Msg("task started")
		}
	}
	if err := in.Conversation.Append(msgs...); err != nil {
		return nil, err
	}
	in.Pending = nil
	return in, nil
}
