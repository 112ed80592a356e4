package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

func RenderResponse(
	ctx context.Context,
	in *GraphState,
	renderer contractx.Renderer,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if renderer == nil {
		return nil, fmt.Errorf("%w: renderer is nil", contractx.ErrValidation)
	}

	in.Reply = renderer.Render(ctx, in.Text, in.Action, in.Snapshot)
	return in, nil
}
