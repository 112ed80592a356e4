package contract

import "context"

// Interpreter classifies a query into an IntentResult. It never returns an
// error: provider failures collapse into a general intent that requests
// clarification.
type Interpreter interface {
	Analyze(ctx context.Context, query string, snap Snapshot) IntentResult
}

// Executor runs the business action for an interpreted intent. The error
// return is reserved for infrastructure faults (store unreachable, timeout);
// domain negatives come back as ActionResult with Success=false.
type Executor interface {
	Execute(ctx context.Context, res IntentResult) (ActionResult, error)
}

// Renderer turns structured results into user-facing text. Render falls back
// to deterministic templates when the completion call fails, so it always
// returns non-empty text.
type Renderer interface {
	Render(ctx context.Context, query string, res ActionResult, snap Snapshot) string
	Clarification(question string) string
	Apology() string
}

// EntitySource optionally supplies catalog candidates for interpreter hints.
// Pipeline correctness never depends on it.
type EntitySource interface {
	Candidates(ctx context.Context, query string, limit int) ([]string, error)
}

// EntityCarrier is implemented by action payloads that can name the products
// they touched, so conversation memory can track them for follow-ups.
type EntityCarrier interface {
	EntityNames() []string
}
