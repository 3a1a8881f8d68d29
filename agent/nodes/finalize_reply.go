package orchestratornode

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
)

// FinalizeReply returns the text of the newest assistant message of the run.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if err := requireConversation(in); err != nil {
		return GraphOutput{}, err
	}

	msgs := in.Conversation.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == schema.User {
			break
		}
		if m.Role != schema.Assistant {
			continue
		}
		// An empty reply is a valid classifier answer.
		return GraphOutput{Reply: strings.TrimSpace(m.Content), Finalized: in.Finalized}, nil
	}
	return GraphOutput{}, fmt.Errorf("%w: run produced no assistant message", contractx.ErrValidation)
}
