package contract

import "context"

type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

type BankAgent interface {
	Next(ctx context.Context, req BankRequest) (BankResponse, error)
}

type Registry interface {
	Classifier() Classifier
	Bank() BankAgent
}

// ToolGateway runs tool requests in order. A non-nil error aborts the run;
// per-tool failures are reported through ToolResult.Error instead.
type ToolGateway interface {
	Execute(ctx context.Context, reqs []ToolRequest) ([]ToolResult, error)
}
