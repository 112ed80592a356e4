package orchestratornode

import (
	"fmt"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/agent/conversation"
)

// LookupContext resolves the session's memory and snapshots it for the
// current query. The caller holds the session lock for the whole run.
func LookupContext(in *GraphState, sessions *conversation.Sessions) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if sessions == nil {
		return nil, fmt.Errorf("%w: session registry is nil", contractx.ErrValidation)
	}

	session := sessions.Get(in.SessionID)
	in.Memory = session.Memory
	in.Snapshot = in.Memory.ContextForQuery(in.Text)
	return in, nil
}
