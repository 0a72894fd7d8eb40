package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/talent-assistant/agent/nodes"
)

const (
	nodeValidateRequest   = "validate_request"
	nodeBuildPrompt       = "build_prompt"
	nodeFirstModelCall    = "first_model_call"
	nodeResolveTool       = "resolve_tool"
	nodeExecuteTool       = "execute_tool"
	nodeSecondModelCall   = "second_model_call"
	nodeFinalizeDirect    = "finalize_direct"
	nodeFinalizeAfterTool = "finalize_after_tool"
)

func (o *Orchestrator) compileChatGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	nodes := []struct {
		name   string
		lambda *compose.Lambda
	}{
		{nodeValidateRequest, compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.agents)
		})},
		{nodeBuildPrompt, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPrompt(in)
		})},
		{nodeFirstModelCall, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FirstModelCall(ctx, in, o.modelTimeout)
		})},
		{nodeResolveTool, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveTool(in, o.tools)
		})},
		{nodeExecuteTool, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTool(ctx, in, o.toolTimeout)
		})},
		{nodeSecondModelCall, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SecondModelCall(ctx, in, o.modelTimeout)
		})},
		{nodeFinalizeDirect, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeDirect(in)
		})},
		{nodeFinalizeAfterTool, compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeAfterTool(in)
		})},
	}
	for _, n := range nodes {
		if err := graph.AddLambdaNode(n.name, n.lambda); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
	}

	branch := compose.NewGraphBranch(func(ctx context.Context, in *nodex.GraphState) (string, error) {
		if nodex.HasToolCall(in) {
			return nodeResolveTool, nil
		}
		return nodeFinalizeDirect, nil
	}, map[string]bool{nodeResolveTool: true, nodeFinalizeDirect: true})
	if err := graph.AddBranch(nodeFirstModelCall, branch); err != nil {
		return nil, fmt.Errorf("add branch after %s: %w", nodeFirstModelCall, err)
	}

	edges := [][2]string{
		{compose.START, nodeValidateRequest},
		{nodeValidateRequest, nodeBuildPrompt},
		{nodeBuildPrompt, nodeFirstModelCall},
		{nodeResolveTool, nodeExecuteTool},
		{nodeExecuteTool, nodeSecondModelCall},
		{nodeSecondModelCall, nodeFinalizeAfterTool},
		{nodeFinalizeDirect, compose.END},
		{nodeFinalizeAfterTool, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.chat"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
