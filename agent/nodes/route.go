package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

// Route maps a classification label to the next node.
func Route(label statex.MessageType) (string, error) {
	switch label {
	case statex.MessageTypeBank:
		return NodeBankAgent, nil
	case statex.MessageTypeGeneral:
		return NodeSaveCheckpoint, nil
	default:
		return "", fmt.Errorf("%w: message_type=%q", contractx.ErrUnknownRoute, label)
	}
}

func RouteAfterClassify(_ context.Context, in *GraphState) (string, error) {
	if err := requireConversation(in); err != nil {
		return "", err
	}
	return Route(in.Conversation.MessageType)
}

func RouteAfterBankTurn(_ context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Pending) > 0 {
		return NodeTools, nil
	}
	return NodeCheckFields, nil
}

func RouteAfterCheckFields(_ context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.FieldsComplete {
		return NodeOpenAccount, nil
	}
	return NodeBankAgent, nil
}
