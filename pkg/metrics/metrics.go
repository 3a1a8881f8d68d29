package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bank_agent"

const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusFatal = "fatal"
)

const (
	OutcomeReply          = "reply"
	OutcomeFinalized      = "finalized"
	OutcomeRecursionLimit = "recursion_limit"
	OutcomeFailed         = "failed"
)

var (
	Registry = prometheus.NewRegistry()

	classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Messages labelled by the classifier.",
	}, []string{"message_type"})

	toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Tool calls executed, by tool and status.",
	}, []string{"tool", "status"})

	runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Graph runs, by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(classifications, toolCalls, runs)
}

func ObserveClassification(messageType string) {
	classifications.WithLabelValues(messageType).Inc()
}

func ObserveToolCall(tool, status string) {
	toolCalls.WithLabelValues(tool, status).Inc()
}

func ObserveRun(outcome string) {
	runs.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
