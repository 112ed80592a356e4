package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/agent/conversation"
)

var ErrInvalidSession = errors.New("session id is empty")

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Memory   *conversation.Memory
	Snapshot contractx.Snapshot

	Intent contractx.IntentResult
	Action contractx.ActionResult
	Fault  error

	Reply string
}

// ValidateRequest admits empty text: the interpreter answers it with a
// clarification question instead of an error.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      strings.TrimSpace(in.Text),
		Now:       nowFn().UTC(),
	}, nil
}
