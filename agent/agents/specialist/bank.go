package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	toolx "github.com/tanpawarit/Chative-Bank-Agent/agent/tool"
)

type bankImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
	newID  func() string
}

func newBankAgent(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*bankImpl, error) {
	toolModel, err := chatModel.WithTools(toolx.Infos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for bank agent: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileChatGraph(ctx, toolModel, systemPrompt, "bank.tool_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile bank graph: %v", contractx.ErrModelInvoke, err)
	}
	return &bankImpl{
		runner: runner,
		newID:  func() string { return "call_" + uuid.NewString() },
	}, nil
}

func (b *bankImpl) Next(ctx context.Context, req contractx.BankRequest) (contractx.BankResponse, error) {
	if len(req.History) == 0 {
		return contractx.BankResponse{}, fmt.Errorf("%w: history is empty", contractx.ErrValidation)
	}

	msg, err := b.runner.Invoke(ctx, historyInput(req.History))
	if err != nil {
		return contractx.BankResponse{}, fmt.Errorf("%w: bank agent invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.BankResponse{}, fmt.Errorf("%w: empty bank agent response", contractx.ErrSchemaViolation)
	}

	msg = b.withCallIDs(msg)
	reqs, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.BankResponse{}, err
	}

	return contractx.BankResponse{
		Message:      msg,
		ToolRequests: reqs,
	}, nil
}

// withCallIDs returns msg, or a copy of it when some tool call lacks an id.
func (b *bankImpl) withCallIDs(msg *schema.Message) *schema.Message {
	missing := false
	for _, call := range msg.ToolCalls {
		if strings.TrimSpace(call.ID) == "" {
			missing = true
			break
		}
	}
	if !missing {
		return msg
	}

	cp := *msg
	cp.ToolCalls = make([]schema.ToolCall, len(msg.ToolCalls))
	copy(cp.ToolCalls, msg.ToolCalls)
	for i := range cp.ToolCalls {
		if strings.TrimSpace(cp.ToolCalls[i].ID) == "" {
			cp.ToolCalls[i].ID = b.newID()
		}
	}
	return &cp
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		reqs = append(reqs, contractx.ToolRequest{
			ID:        call.ID,
			Tool:      name,
			Arguments: call.Function.Arguments,
		})
	}
	return reqs, nil
}
