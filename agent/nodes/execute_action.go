package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

// ExecuteAction runs the business action. Domain negatives come back inside
// the ActionResult and continue to the renderer. Infrastructure faults mark
// the state for the apology path so the turn is still recorded; only a dead
// caller context fails the run.
func ExecuteAction(
	ctx context.Context,
	in *GraphState,
	executor contractx.Executor,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: executor is nil", contractx.ErrValidation)
	}

	action, err := executor.Execute(ctx, in.Intent)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Error().Err(err).
			Str("session_id", in.SessionID).
			Str("intent", string(in.Intent.Intent)).
			Msg("action execution failed")
		in.Fault = err
		return in, nil
	}

	in.Action = action
	return in, nil
}
