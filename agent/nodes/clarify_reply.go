package orchestratornode

import (
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

func ClarifyReply(in *GraphState, renderer contractx.Renderer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if renderer == nil {
		return nil, fmt.Errorf("%w: renderer is nil", contractx.ErrValidation)
	}

	in.Reply = renderer.Clarification(in.Intent.ClarificationQuestion)
	return in, nil
}
