package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

type classifierImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
	parser schema.MessageParser[classifierLLMOutput]
}

// Message is a pointer so an absent key can be told apart from "".
type classifierLLMOutput struct {
	Message     *string `json:"message"`
	MessageType string  `json:"message_type"`
}

func newClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*classifierImpl, error) {
	runner, err := compileChatGraph(ctx, chatModel, systemPrompt, "classifier.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	parser := schema.NewMessageJSONParser[classifierLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})
	return &classifierImpl{runner: runner, parser: parser}, nil
}

func (c *classifierImpl) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	if len(req.History) == 0 {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: history is empty", contractx.ErrValidation)
	}

	msg, err := c.runner.Invoke(ctx, historyInput(req.History))
	if err != nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: empty classifier response", contractx.ErrSchemaViolation)
	}

	out, err := c.parser.Parse(ctx, msg)
	if err != nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: classifier output is not valid json: %v", contractx.ErrSchemaViolation, err)
	}

	if out.Message == nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: message is missing", contractx.ErrSchemaViolation)
	}

	resp := contractx.ClassifyResponse{
		Message:     strings.TrimSpace(*out.Message),
		MessageType: statex.MessageType(strings.TrimSpace(out.MessageType)),
	}
	if err := validateClassifyResponse(resp); err != nil {
		return contractx.ClassifyResponse{}, err
	}
	return resp, nil
}

func validateClassifyResponse(resp contractx.ClassifyResponse) error {
	if !resp.MessageType.Valid() {
		return fmt.Errorf("%w: unsupported message_type=%q", contractx.ErrSchemaViolation, resp.MessageType)
	}
	return nil
}
