// Package orchestrator compiles the interpret, execute, render pipeline
// into a graph and serializes turns per conversation session.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/agent/conversation"
	nodex "github.com/sirawit-b/stocktalk/agent/nodes"
)

var ErrInvalidSession = nodex.ErrInvalidSession

type Orchestrator struct {
	sessions    *conversation.Sessions
	interpreter contractx.Interpreter
	executor    contractx.Executor
	renderer    contractx.Renderer

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Orchestrator)

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	sessions *conversation.Sessions,
	interpreter contractx.Interpreter,
	executor contractx.Executor,
	renderer contractx.Renderer,
	opts ...Option,
) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("session registry is required")
	}
	if interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}

	o := &Orchestrator{
		sessions:    sessions,
		interpreter: interpreter,
		executor:    executor,
		renderer:    renderer,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileProcessQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// ProcessQuery runs one conversational turn. Turns in the same session run
// strictly one at a time. A store fault answers with the apology line and
// still records the turn; only context cancellation escapes as an error.
func (o *Orchestrator) ProcessQuery(ctx context.Context, sessionID string, text string) (string, error) {
	session := o.sessions.Get(sessionID)
	session.Lock()
	defer session.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: session.ID,
		Text:      text,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Error().Err(err).Str("session_id", session.ID).Msg("query pipeline failed")
		return o.renderer.Apology(), nil
	}
	return out.Reply, nil
}
