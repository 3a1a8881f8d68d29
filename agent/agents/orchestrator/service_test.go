package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
	toolx "github.com/tanpawarit/Chative-Bank-Agent/agent/tool"
)

type fakeStore struct {
	*statex.MemoryStore
	saved []*statex.Conversation
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: statex.NewMemoryStore()}
}

func (f *fakeStore) Save(ctx context.Context, conv *statex.Conversation) error {
	if err := f.MemoryStore.Save(ctx, conv); err != nil {
		return err
	}
	f.saved = append(f.saved, conv.Clone())
	return nil
}

type fakeClassifier struct {
	responses []contractx.ClassifyResponse
	err       error
	calls     int
	histories [][]*schema.Message
}

func (f *fakeClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	f.calls++
	f.histories = append(f.histories, req.History)
	if f.err != nil {
		return contractx.ClassifyResponse{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type fakeBank struct {
	responses []contractx.BankResponse
	repeat    bool
	calls     int
	histories [][]*schema.Message
}

func (f *fakeBank) Next(ctx context.Context, req contractx.BankRequest) (contractx.BankResponse, error) {
	f.calls++
	f.histories = append(f.histories, req.History)
	idx := f.calls - 1
	if f.repeat && idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	if idx >= len(f.responses) {
		return contractx.BankResponse{}, fmt.Errorf("no bank response left at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type fakeRegistry struct {
	classifier contractx.Classifier
	bank       contractx.BankAgent
}

func (f *fakeRegistry) Classifier() contractx.Classifier {
	return f.classifier
}

func (f *fakeRegistry) Bank() contractx.BankAgent {
	return f.bank
}

type scriptedHuman struct {
	answers []string
	queries []string
}

func (s *scriptedHuman) Ask(ctx context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	if len(s.answers) == 0 {
		return "", toolx.ErrInputClosed
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func callTool(id, tool, args string) contractx.BankResponse {
	return contractx.BankResponse{
		Message: schema.AssistantMessage("", []schema.ToolCall{
			{ID: id, Function: schema.FunctionCall{Name: tool, Arguments: args}},
		}),
		ToolRequests: []contractx.ToolRequest{{ID: id, Tool: tool, Arguments: args}},
	}
}

func answer(content string) contractx.BankResponse {
	return contractx.BankResponse{Message: schema.AssistantMessage(content, nil)}
}

func bankLabel() contractx.ClassifyResponse {
	return contractx.ClassifyResponse{Message: "Sure, I can help with that.", MessageType: statex.MessageTypeBank}
}

func newTestOrchestrator(
	t *testing.T,
	store statex.Store,
	registry contractx.Registry,
	human toolx.HumanInput,
	limit int,
) *Orchestrator {
	t.Helper()

	gateway, err := toolx.NewGateway(human)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	o, err := New(store, registry, gateway, Config{RecursionLimit: limit})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	o.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return o
}

func findMessage(history []*schema.Message, role schema.RoleType, substr string) bool {
	for _, m := range history {
		if m.Role == role && strings.Contains(m.Content, substr) {
			return true
		}
	}
	return false
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	registry := &fakeRegistry{classifier: &fakeClassifier{}, bank: &fakeBank{}}
	gateway, err := toolx.NewGateway(&scriptedHuman{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(nil, registry, gateway, Config{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(newFakeStore(), nil, gateway, Config{}); err == nil {
		t.Fatal("expected error for nil registry")
	}
	if _, err := New(newFakeStore(), registry, nil, Config{}); err == nil {
		t.Fatal("expected error for nil tool gateway")
	}

	o, err := New(newFakeStore(), registry, gateway, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if o.ThreadID() != DefaultThreadID || o.recursionLimit != DefaultRecursionLimit {
		t.Fatalf("unexpected defaults: thread=%q limit=%d", o.ThreadID(), o.recursionLimit)
	}
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
	o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: &fakeBank{}}, &scriptedHuman{}, 10)

	_, err := o.HandleMessage(context.Background(), "1", "    ")
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not run for an invalid request, got %d calls", classifier.calls)
	}
}

func TestHandleMessageGeneralPath(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{
		{Message: "Hello! How can I help you today?", MessageType: statex.MessageTypeGeneral},
	}}
	bank := &fakeBank{}
	human := &scriptedHuman{}

	o := newTestOrchestrator(t, store, &fakeRegistry{classifier: classifier, bank: bank}, human, 10)

	reply, err := o.HandleMessage(context.Background(), "", "hi there")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "Hello! How can I help you today?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if classifier.calls != 1 {
		t.Fatalf("expected classifier called once, got %d", classifier.calls)
	}
	if bank.calls != 0 || len(human.queries) != 0 {
		t.Fatalf("general path must not reach the bank agent or tools: bank=%d human=%d", bank.calls, len(human.queries))
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.ThreadID != DefaultThreadID || saved.MessageType != statex.MessageTypeGeneral || len(saved.Messages) != 2 {
		t.Fatalf("unexpected checkpoint: %#v", saved)
	}
}

func TestHandleMessageOpensAccount(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
	fields := `{"name":"Sita","phone_number":"9841234567"}`
	bank := &fakeBank{responses: []contractx.BankResponse{
		callTool("c1", "get_account_opening_required_fields", "{}"),
		callTool("c2", "human_response", `{"query":"What is your full name"}`),
		callTool("c3", "validate_name", `{"name":"Sita"}`),
		callTool("c4", "human_response", `{"query":"What is your phone number"}`),
		callTool("c5", "validate_phone_number", `{"phone_number":"9841234567"}`),
		answer(fields),
	}}
	human := &scriptedHuman{answers: []string{"Sita", "9841234567"}}

	o := newTestOrchestrator(t, store, &fakeRegistry{classifier: classifier, bank: bank}, human, 50)

	reply, err := o.HandleMessage(context.Background(), "1", "I want to open an account")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "Opened an account with information:\n"+fields {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if bank.calls != 6 {
		t.Fatalf("expected 6 bank agent turns, got %d", bank.calls)
	}
	if len(human.queries) != 2 || human.queries[0] != "What is your full name" {
		t.Fatalf("unexpected human queries: %v", human.queries)
	}

	last := bank.histories[len(bank.histories)-1]
	if !findMessage(last, schema.Tool, `["name","phone_number"]`) {
		t.Fatal("bank agent must see the required field list")
	}
	if !findMessage(last, schema.Tool, "Sita") {
		t.Fatal("bank agent must see the human answer")
	}

	saved := store.saved[len(store.saved)-1]
	if saved.Task != nil {
		t.Fatalf("task must be cleared after finalization, got %#v", saved.Task)
	}

	// The session continues after an account was opened.
	classifier.responses = []contractx.ClassifyResponse{
		{Message: "You're welcome!", MessageType: statex.MessageTypeGeneral},
	}
	reply, err = o.HandleMessage(context.Background(), "1", "thanks")
	if err != nil {
		t.Fatalf("HandleMessage() second turn error = %v", err)
	}
	if reply != "You're welcome!" {
		t.Fatalf("unexpected second reply: %q", reply)
	}
	history := classifier.histories[len(classifier.histories)-1]
	if !findMessage(history, schema.Assistant, "Opened an account with information:") {
		t.Fatal("second turn must resume from the checkpoint")
	}
}

func TestHandleMessageGuardBlocksInvalidFields(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
	bank := &fakeBank{responses: []contractx.BankResponse{
		callTool("c1", "get_account_opening_required_fields", ""),
		answer(`{"name":"Sita","phone_number":"12345"}`),
		answer(`{"name":"Sita","phone_number":"+977-9841234567"}`),
	}}

	o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 50)

	reply, err := o.HandleMessage(context.Background(), "1", "open an account for me")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.HasPrefix(reply, "Opened an account with information:\n") || !strings.Contains(reply, "+977-9841234567") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if bank.calls != 3 {
		t.Fatalf("expected 3 bank agent turns, got %d", bank.calls)
	}
	if !findMessage(bank.histories[2], schema.System, `invalid phone_number "12345"`) {
		t.Fatal("bank agent must receive the guard note")
	}
}

func TestHandleMessageUnknownToolRecovers(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
	bank := &fakeBank{responses: []contractx.BankResponse{
		callTool("c1", "open_vault", "{}"),
		callTool("c2", "get_loan_required_fields", "{}"),
		answer(`{"name":"Sita","loan_amount":500000}`),
	}}

	o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 50)

	reply, err := o.HandleMessage(context.Background(), "1", "I need a loan")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, `"loan_amount":500000`) {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !findMessage(bank.histories[1], schema.Tool, "error: tool=open_vault is unavailable") {
		t.Fatal("bank agent must see the unknown tool error")
	}
}

func TestHandleMessageRecursionLimit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
	bank := &fakeBank{
		responses: []contractx.BankResponse{callTool("c1", "validate_name", `{"name":"Jo"}`)},
		repeat:    true,
	}

	o := newTestOrchestrator(t, store, &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 7)

	_, err := o.HandleMessage(context.Background(), "1", "open an account")
	if !errors.Is(err, contractx.ErrRecursionLimit) {
		t.Fatalf("expected ErrRecursionLimit, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("an aborted run must not be checkpointed, got %d saves", len(store.saved))
	}
}

func TestHandleMessageFatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("input closed", func(t *testing.T) {
		t.Parallel()

		classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{bankLabel()}}
		bank := &fakeBank{responses: []contractx.BankResponse{
			callTool("c1", "human_response", `{"query":"Your name"}`),
		}}
		o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 50)

		_, err := o.HandleMessage(context.Background(), "1", "open an account")
		if !errors.Is(err, toolx.ErrInputClosed) {
			t.Fatalf("expected ErrInputClosed, got %v", err)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		t.Parallel()

		classifier := &fakeClassifier{err: fmt.Errorf("%w: not json", contractx.ErrSchemaViolation)}
		o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: &fakeBank{}}, &scriptedHuman{}, 50)

		_, err := o.HandleMessage(context.Background(), "1", "hello")
		if !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("expected ErrSchemaViolation, got %v", err)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()

		classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{
			{Message: "ok", MessageType: statex.MessageType("loan")},
		}}
		bank := &fakeBank{}
		o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 50)

		_, err := o.HandleMessage(context.Background(), "1", "hello")
		if !errors.Is(err, contractx.ErrUnknownRoute) {
			t.Fatalf("expected ErrUnknownRoute, got %v", err)
		}
		if bank.calls != 0 {
			t.Fatalf("bank agent must not run on an unknown route, got %d calls", bank.calls)
		}
	})
}

func TestHandleMessageEmptyClassifierMessage(t *testing.T) {
	t.Parallel()

	t.Run("general", func(t *testing.T) {
		t.Parallel()

		classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{
			{Message: "", MessageType: statex.MessageTypeGeneral},
		}}
		o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: &fakeBank{}}, &scriptedHuman{}, 10)

		reply, err := o.HandleMessage(context.Background(), "1", "hmm")
		if err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}
		if reply != "" {
			t.Fatalf("expected an empty reply, got %q", reply)
		}
	})

	t.Run("bank", func(t *testing.T) {
		t.Parallel()

		classifier := &fakeClassifier{responses: []contractx.ClassifyResponse{
			{Message: "", MessageType: statex.MessageTypeBank},
		}}
		bank := &fakeBank{responses: []contractx.BankResponse{
			callTool("c1", "get_account_opening_required_fields", "{}"),
			answer(`{"name":"Sita","phone_number":"9841234567"}`),
		}}
		o := newTestOrchestrator(t, newFakeStore(), &fakeRegistry{classifier: classifier, bank: bank}, &scriptedHuman{}, 10)

		reply, err := o.HandleMessage(context.Background(), "1", "open an account")
		if err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}
		if !strings.HasPrefix(reply, "Opened an account with information:\n") {
			t.Fatalf("unexpected reply: %q", reply)
		}
	})
}
