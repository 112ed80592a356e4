package orchestratornode

import (
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

// UpdateContext records the finished turn in conversation memory. Clarify
// turns carry no action, so nothing is harvested from a payload for them.
func UpdateContext(in *GraphState) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	var action *contractx.ActionResult
	if in.Action.Action != "" {
		action = &in.Action
	}

	in.Memory.AddTurn(in.Text, in.Intent, action, in.Reply)
	return in, nil
}
