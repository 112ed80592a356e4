package orchestratornode

import (
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

// ApologyReply answers a turn whose action hit an infrastructure fault. The
// fault never reaches the caller; the apology line does.
func ApologyReply(in *GraphState, renderer contractx.Renderer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if renderer == nil {
		return nil, fmt.Errorf("%w: renderer is nil", contractx.ErrValidation)
	}

	in.Reply = renderer.Apology()
	return in, nil
}
