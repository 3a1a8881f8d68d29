package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	llmx "github.com/tanpawarit/Chative-Bank-Agent/agent/llm"
	promptx "github.com/tanpawarit/Chative-Bank-Agent/agent/prompt"
)

type registryImpl struct {
	classifier contractx.Classifier
	bank       contractx.BankAgent
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Bank() contractx.BankAgent {
	return r.bank
}

func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifierModelCfg := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}
	bankModelCfg := cfg.OpenRouterFor(contractx.AgentTypeBank)
	bankModel, err := bankModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create bank model: %v", contractx.ErrModelInvoke, err)
	}

	return NewRegistryWithModels(ctx, classifierModel, bankModel)
}

// NewRegistryWithModels builds both steps from ready chat models.
func NewRegistryWithModels(
	ctx context.Context,
	classifierModel einomodel.BaseChatModel,
	bankModel einomodel.ToolCallingChatModel,
) (contractx.Registry, error) {
	prompts := promptx.LoadPromptSet()

	classifier, err := newClassifier(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}
	bank, err := newBankAgent(ctx, bankModel, prompts.Bank)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		classifier: classifier,
		bank:       bank,
	}, nil
}
