package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

func AnalyzeIntent(
	ctx context.Context,
	in *GraphState,
	interpreter contractx.Interpreter,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if interpreter == nil {
		return nil, fmt.Errorf("%w: interpreter is nil", contractx.ErrValidation)
	}

	in.Intent = interpreter.Analyze(ctx, in.Text, in.Snapshot)
	return in, nil
}
