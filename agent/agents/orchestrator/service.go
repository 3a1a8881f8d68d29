package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	nodex "github.com/tanpawarit/Chative-Bank-Agent/agent/nodes"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
	metricsx "github.com/tanpawarit/Chative-Bank-Agent/pkg/metrics"
)

const (
	DefaultThreadID       = "1"
	DefaultRecursionLimit = 50
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidThread  = nodex.ErrInvalidThread
)

// Config is fixed for the lifetime of the process.
type Config struct {
	ThreadID       string
	RecursionLimit int
}

type Orchestrator struct {
	store  statex.Store
	models contractx.Registry
	tools  contractx.ToolGateway

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	threadID       string
	recursionLimit int

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	tools contractx.ToolGateway,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	threadID := strings.TrimSpace(cfg.ThreadID)
	if threadID == "" {
		threadID = DefaultThreadID
	}
	recursionLimit := cfg.RecursionLimit
	if recursionLimit <= 0 {
		recursionLimit = DefaultRecursionLimit
	}

	o := &Orchestrator{
		store:          store,
		models:         models,
		tools:          tools,
		threadID:       threadID,
		recursionLimit: recursionLimit,
		now:            time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) ThreadID() string {
	return o.threadID
}

// HandleMessage runs one turn for threadID, or the configured thread when
// threadID is empty, and returns the assistant reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, threadID string, text string) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		threadID = o.threadID
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Text:     text,
	})
	if err != nil {
		if errors.Is(err, contractx.ErrRecursionLimit) {
			metricsx.ObserveRun(metricsx.OutcomeRecursionLimit)
		} else {
			metricsx.ObserveRun(metricsx.OutcomeFailed)
		}
		log.Error().Err(err).Str("thread_id", threadID).Msg("run failed")
		return "", err
	}

	if out.Finalized {
		metricsx.ObserveRun(metricsx.OutcomeFinalized)
	} else {
		metricsx.ObserveRun(metricsx.OutcomeReply)
	}
	return out.Reply, nil
}
