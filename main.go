package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Bank-Agent/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Bank-Agent/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-Bank-Agent/agent/contract"
	llmx "github.com/tanpawarit/Chative-Bank-Agent/agent/llm"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
	toolx "github.com/tanpawarit/Chative-Bank-Agent/agent/tool"
	configx "github.com/tanpawarit/Chative-Bank-Agent/pkg/config"
	_ "github.com/tanpawarit/Chative-Bank-Agent/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/Chative-Bank-Agent/pkg/metrics"
	openrouterx "github.com/tanpawarit/Chative-Bank-Agent/pkg/openrouter"
)

const (
	userPrompt   = "User Message"
	replyPrefix  = "Assistant Messsage: "
	goodbyeReply = "Bye"
)

var exitTokens = map[string]struct{}{
	"q":    {},
	"exit": {},
	"Q":    {},
	"bye":  {},
}

type AppConfig struct {
	ThreadID       string `split_words:"true" default:"1"`
	RecursionLimit int    `split_words:"true" default:"50"`
	StateBackend   string `split_words:"true" default:"memory"`
	MetricsAddr    string `split_words:"true"`
	Preflight      bool   `default:"false"`
}

type messageHandler interface {
	HandleMessage(ctx context.Context, threadID string, text string) (string, error)
}

func main() {
	appCfg := configx.MustNew[AppConfig]("BANK")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	if err := run(context.Background(), *appCfg, *llmCfg, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("bank agent stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg AppConfig, llmCfg llmx.Config, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := newStore(ctx, appCfg.StateBackend)
	if err != nil {
		return err
	}
	defer closeStore()

	if addr := strings.TrimSpace(appCfg.MetricsAddr); addr != "" {
		go func() {
			if err := metricsx.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
	}

	if appCfg.Preflight {
		client := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeClassifier))
		if err := openrouterx.Preflight(ctx, client, llmCfg.Models()...); err != nil {
			return err
		}
	}

	registry, err := specialist.NewRegistry(ctx, llmCfg)
	if err != nil {
		return err
	}

	// The chat loop and human_response share one reader so buffered input
	// is never lost between them.
	console := toolx.NewConsoleInput(in, out)
	gateway, err := toolx.NewGateway(console)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(store, registry, gateway, orchestrator.Config{
		ThreadID:       appCfg.ThreadID,
		RecursionLimit: appCfg.RecursionLimit,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("thread_id", orch.ThreadID()).
		Str("state_backend", appCfg.StateBackend).
		Strs("models", llmCfg.Models()).
		Msg("bank agent ready")

	return chatLoop(ctx, orch, console, out)
}

func chatLoop(ctx context.Context, handler messageHandler, input toolx.HumanInput, out io.Writer) error {
	for {
		text, err := input.Ask(ctx, userPrompt)
		if errors.Is(err, toolx.ErrInputClosed) {
			fmt.Fprintln(out, goodbyeReply)
			return nil
		}
		if err != nil {
			return err
		}

		if _, ok := exitTokens[text]; ok {
			fmt.Fprintln(out, goodbyeReply)
			return nil
		}
		// Blank lines are not sent to the graph: a run needs user text, and an
		// empty turn would only reach the classifier with nothing to label.
		if strings.TrimSpace(text) == "" {
			continue
		}

		reply, err := handler.HandleMessage(ctx, "", text)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, replyPrefix+reply)
	}
}

func newStore(ctx context.Context, backend string) (statex.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return statex.NewMemoryStore(), noop, nil

	case "redis":
		cfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, noop, err
		}
		store, err := statex.NewRedisStore(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, closer(store, "redis"), nil

	case "upstash":
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH")
		if err != nil {
			return nil, noop, err
		}
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "postgres":
		cfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, noop, err
		}
		store, err := statex.NewPostgresStore(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, closer(store, "postgres"), nil

	default:
		return nil, noop, fmt.Errorf("%w: unknown state backend %q", contractx.ErrValidation, backend)
	}
}

func closer(c io.Closer, name string) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("close state store")
		}
	}
}
