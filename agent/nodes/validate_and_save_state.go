package orchestratornode

import (
	"context"
	"fmt"

	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

func SaveCheckpoint(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}

	in.Conversation.Touch(in.Now)
	if err := in.Conversation.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, err
	}
	return in, nil
}
