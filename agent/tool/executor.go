package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	metricsx "github.com/tanpawarit/Chative-Bank-Agent/pkg/metrics"
)

type phoneNumberArgs struct {
	PhoneNumber *string `json:"phone_number"`
}

type nameArgs struct {
	Name *string `json:"name"`
}

type humanResponseArgs struct {
	Query *string `json:"query"`
}

type noArgs struct{}

// Gateway dispatches tool requests on ToolID to typed handlers.
type Gateway struct {
	human HumanInput
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(human HumanInput) (*Gateway, error) {
	if human == nil {
		return nil, errors.New("human input is required")
	}
	return &Gateway{human: human}, nil
}

// Execute runs reqs in order. Only ErrInputClosed (or a failing context) aborts;
// every other failure becomes a ToolResult with Error set.
func (g *Gateway) Execute(ctx context.Context, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := g.execute(ctx, req)
		if err != nil {
			metricsx.ObserveToolCall(req.Tool, metricsx.StatusFatal)
			return nil, err
		}
		if res.Failed() {
			metricsx.ObserveToolCall(req.Tool, metricsx.StatusError)
			log.Warn().Str("tool", req.Tool).Str("call_id", req.ID).Str("error", res.Error).Msg("tool call failed")
		} else {
			metricsx.ObserveToolCall(req.Tool, metricsx.StatusOK)
		}
		results = append(results, res)
	}
	return results, nil
}

func (g *Gateway) execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	id := ParseToolID(req.Tool)
	log.Info().Str("tool", id.String()).Str("call_id", req.ID).Msg("called tool")

	switch id {
	case ToolAccountOpeningFields:
		if _, err := decodeArgs[noArgs](req.Arguments); err != nil {
			return failed(req, err.Error()), nil
		}
		return succeeded(req, AccountOpeningRequiredFields()), nil

	case ToolLoanFields:
		if _, err := decodeArgs[noArgs](req.Arguments); err != nil {
			return failed(req, err.Error()), nil
		}
		return succeeded(req, LoanRequiredFields()), nil

	case ToolValidatePhoneNumber:
		args, err := decodeArgs[phoneNumberArgs](req.Arguments)
		if err != nil {
			return failed(req, err.Error()), nil
		}
		if args.PhoneNumber == nil {
			return failed(req, "phone_number is required"), nil
		}
		valid := ValidatePhoneNumber(*args.PhoneNumber)
		log.Debug().Bool("valid", valid).Msg("phone number checked")
		return succeeded(req, valid), nil

	case ToolValidateName:
		args, err := decodeArgs[nameArgs](req.Arguments)
		if err != nil {
			return failed(req, err.Error()), nil
		}
		if args.Name == nil {
			return failed(req, "name is required"), nil
		}
		valid := ValidateName(*args.Name)
		log.Debug().Bool("valid", valid).Msg("name checked")
		return succeeded(req, valid), nil

	case ToolHumanResponse:
		args, err := decodeArgs[humanResponseArgs](req.Arguments)
		if err != nil {
			return failed(req, err.Error()), nil
		}
		if args.Query == nil {
			return failed(req, "query is required"), nil
		}
		answer, err := g.human.Ask(ctx, *args.Query)
		if err != nil {
			return contractx.ToolResult{}, fmt.Errorf("human_response: %w", err)
		}
		return succeeded(req, answer), nil

	default:
		return failed(req, fmt.Sprintf("tool=%s is unavailable", req.Tool)), nil
	}
}

func decodeArgs[T any](raw string) (T, error) {
	var out T
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("invalid arguments: %v", err)
	}
	if dec.More() {
		return out, errors.New("invalid arguments: trailing data")
	}
	return out, nil
}

func succeeded(req contractx.ToolRequest, result any) contractx.ToolResult {
	return contractx.ToolResult{ID: req.ID, Tool: req.Tool, Result: result}
}

func failed(req contractx.ToolRequest, reason string) contractx.ToolResult {
	return contractx.ToolResult{ID: req.ID, Tool: req.Tool, Error: reason}
}

// Render turns a result into tool message content: strings verbatim, other
// values as JSON, failures as "error: <reason>".
func Render(res contractx.ToolResult) string {
	if res.Failed() {
		return "error: " + res.Error
	}
	if s, ok := res.Result.(string); ok {
		return s
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(raw)
}
