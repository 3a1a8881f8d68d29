package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Bank-Agent/agent/nodes"
)

// stepHeadroom covers the bookkeeping nodes that the step counter skips.
const stepHeadroom = 10

func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.NodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.recursionLimit, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeLoadCheckpoint,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadCheckpoint(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeLoadCheckpoint, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeClassify,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Classify(ctx, in, o.models.Classifier())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeClassify, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeBankAgent,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BankTurn(ctx, in, o.models.Bank())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeBankAgent, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeTools, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeCheckFields,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckFields(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeCheckFields, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeOpenAccount,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.OpenAccount(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeOpenAccount, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeSaveCheckpoint,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveCheckpoint(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeSaveCheckpoint, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeReply, err)
	}

	edges := [][2]string{
		{compose.START, nodex.NodeValidateRequest},
		{nodex.NodeValidateRequest, nodex.NodeLoadCheckpoint},
		{nodex.NodeLoadCheckpoint, nodex.NodeClassify},
		{nodex.NodeTools, nodex.NodeBankAgent},
		{nodex.NodeOpenAccount, nodex.NodeSaveCheckpoint},
		{nodex.NodeSaveCheckpoint, nodex.NodeReply},
		{nodex.NodeReply, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	branches := []struct {
		from      string
		condition func(context.Context, *nodex.GraphState) (string, error)
		to        []string
	}{
		{nodex.NodeClassify, nodex.RouteAfterClassify, []string{nodex.NodeBankAgent, nodex.NodeSaveCheckpoint}},
		{nodex.NodeBankAgent, nodex.RouteAfterBankTurn, []string{nodex.NodeTools, nodex.NodeCheckFields}},
		{nodex.NodeCheckFields, nodex.RouteAfterCheckFields, []string{nodex.NodeOpenAccount, nodex.NodeBankAgent}},
	}
	for _, b := range branches {
		endNodes := make(map[string]bool, len(b.to))
		for _, name := range b.to {
			endNodes[name] = true
		}
		if err := graph.AddBranch(b.from, compose.NewGraphBranch[*nodex.GraphState](b.condition, endNodes)); err != nil {
			return nil, fmt.Errorf("add branch from %s: %w", b.from, err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("orchestrator.handle_message"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(o.recursionLimit+stepHeadroom),
	)
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
