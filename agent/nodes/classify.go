package orchestratornode

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	metricsx "github.com/tanpawarit/Chative-Bank-Agent/pkg/metrics"
)

func Classify(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}
	if err := in.step(NodeClassify); err != nil {
		return nil, err
	}

	resp, err := classifier.Classify(ctx, contractx.ClassifyRequest{History: in.Conversation.History()})
	if err != nil {
		return nil, err
	}
	if err := in.Conversation.Append(schema.AssistantMessage(resp.Message, nil)); err != nil {
		return nil, err
	}
	in.Conversation.MessageType = resp.MessageType

	metricsx.ObserveClassification(string(resp.MessageType))
	log.Info().Str("thread_id", in.ThreadID).Str("message_type", string(resp.MessageType)).Msg("classified message")
	return in, nil
}
