package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

// LoadCheckpoint resumes the thread (or starts it) and appends the user message.
func LoadCheckpoint(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := store.Load(ctx, in.ThreadID)
	switch {
	case err == nil:
		log.Debug().Str("thread_id", in.ThreadID).Int("messages", len(conv.Messages)).Msg("resumed conversation")
	case errors.Is(err, statex.ErrStateNotFound):
		conv = statex.NewConversation(in.ThreadID, in.Now)
	default:
		return nil, fmt.Errorf("load checkpoint thread=%s: %w", in.ThreadID, err)
	}

	if err := conv.Append(schema.UserMessage(in.Text)); err != nil {
		return nil, err
	}
	in.Conversation = conv
	return in, nil
}
