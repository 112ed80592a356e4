package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	nodex "github.com/sirawit-b/stocktalk/agent/nodes"
)

func (o *Orchestrator) compileProcessQueryGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("lookup_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LookupContext(in, o.sessions)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node lookup_context: %w", err)
	}

	if err := graph.AddLambdaNode("analyze_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnalyzeIntent(ctx, in, o.interpreter)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node analyze_intent: %w", err)
	}

	if err := graph.AddLambdaNode("clarify_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClarifyReply(in, o.renderer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node clarify_reply: %w", err)
	}

	if err := graph.AddLambdaNode("execute_action",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteAction(ctx, in, o.executor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_action: %w", err)
	}

	if err := graph.AddLambdaNode("apology_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApologyReply(in, o.renderer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apology_reply: %w", err)
	}

	if err := graph.AddLambdaNode("render_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RenderResponse(ctx, in, o.renderer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node render_response: %w", err)
	}

	if err := graph.AddLambdaNode("update_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.UpdateContext(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node update_context: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	clarifyBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if nodex.NeedsClarification(in.Intent) {
				return "clarify_reply", nil
			}
			return "execute_action", nil
		},
		map[string]bool{
			"clarify_reply":  true,
			"execute_action": true,
		},
	)

	if err := graph.AddBranch("analyze_intent", clarifyBranch); err != nil {
		return nil, fmt.Errorf("add clarification branch: %w", err)
	}

	faultBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Fault != nil {
				return "apology_reply", nil
			}
			return "render_response", nil
		},
		map[string]bool{
			"apology_reply":   true,
			"render_response": true,
		},
	)

	if err := graph.AddBranch("execute_action", faultBranch); err != nil {
		return nil, fmt.Errorf("add fault branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "lookup_context"},
		{"lookup_context", "analyze_intent"},
		{"clarify_reply", "update_context"},
		{"apology_reply", "update_context"},
		{"render_response", "update_context"},
		{"update_context", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("agent.process_query"))
	if err != nil {
		return nil, fmt.Errorf("compile query graph: %w", err)
	}
	return runner, nil
}
