package contract

import (
	"github.com/cloudwego/eino/schema"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeBank       AgentType = "bank"
)

type ClassifyRequest struct {
	History []*schema.Message `json:"history"`
}

type ClassifyResponse struct {
	Message     string             `json:"message"`
	MessageType statex.MessageType `json:"message_type"`
}

type BankRequest struct {
	History []*schema.Message `json:"history"`
}

// BankResponse carries the raw assistant message so that it can be appended
// to the conversation before any tool result that refers to its calls.
type BankResponse struct {
	Message      *schema.Message `json:"message"`
	ToolRequests []ToolRequest   `json:"tool_requests,omitempty"`
}

type ToolRequest struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
}

type ToolResult struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Error != ""
}
