package orchestratornode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
	toolx "github.com/tanpawarit/Chative-Bank-Agent/agent/tool"
)

const guardNotePrefix = "The request cannot be completed yet: "

// CheckFields decides whether the bank agent's final answer may be acted on.
// When it may not, a system note naming the problems is appended for the
// next bank agent turn.
func CheckFields(in *GraphState) (*GraphState, error) {
	if err := requireConversation(in); err != nil {
		return nil, err
	}
	if err := in.step(NodeCheckFields); err != nil {
		return nil, err
	}

	problems := FieldProblems(in.Conversation)
	if len(problems) == 0 {
		in.FieldsComplete = true
		return in, nil
	}

	in.FieldsComplete = false
	note := guardNotePrefix + strings.Join(problems, "; ") +
		". Use the tools to ask the customer and validate the answers, then reply with only the JSON object of the collected fields."
	if err := in.Conversation.Append(schema.SystemMessage(note)); err != nil {
		return nil, err
	}
	log.Info().Str("thread_id", in.ThreadID).Strs("problems", problems).Msg("required fields incomplete")
	return in, nil
}

// FieldProblems lists what keeps the last assistant message from being a
// complete, valid field set. An empty result means it can be finalized.
func FieldProblems(conv *statex.Conversation) []string {
	last := conv.Last()
	if last == nil || last.Role != schema.Assistant {
		return []string{"no answer from the bank agent"}
	}
	if conv.Task == nil {
		return []string{"the required fields were never requested"}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(last.Content)), &fields); err != nil || fields == nil {
		return []string{"the answer is not a JSON object"}
	}

	var problems []string
	for _, name := range conv.Task.Required {
		value := fieldString(fields[name])
		if value == "" {
			problems = append(problems, "missing "+name)
			continue
		}
		if validate, ok := toolx.FieldValidator(name); ok && !validate(value) {
			problems = append(problems, fmt.Sprintf("invalid %s %q", name, value))
		}
	}
	return problems
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
