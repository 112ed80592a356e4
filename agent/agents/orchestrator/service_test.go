package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/agent/conversation"
)

type fakeInterpreter struct {
	mu        sync.Mutex
	results   []contractx.IntentResult
	calls     int
	snapshots []contractx.Snapshot
}

func (f *fakeInterpreter) Analyze(ctx context.Context, query string, snap contractx.Snapshot) contractx.IntentResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		return f.results[len(f.results)-1]
	}
	return f.results[idx]
}

type fakeExecutor struct {
	mu      sync.Mutex
	result  contractx.ActionResult
	err     error
	calls   int
	intents []contractx.IntentResult
}

func (f *fakeExecutor) Execute(ctx context.Context, res contractx.IntentResult) (contractx.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.intents = append(f.intents, res)
	if err := ctx.Err(); err != nil {
		return contractx.ActionResult{}, err
	}
	if f.err != nil {
		return contractx.ActionResult{}, f.err
	}
	return f.result, nil
}

type fakeRenderer struct {
	mu           sync.Mutex
	reply        string
	renderCalls  int
	clarifyCalls int
}

func (f *fakeRenderer) Render(ctx context.Context, query string, res contractx.ActionResult, snap contractx.Snapshot) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderCalls++
	return f.reply
}

func (f *fakeRenderer) Clarification(question string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clarifyCalls++
	if strings.TrimSpace(question) == "" {
		return "Could you give me a bit more detail?"
	}
	return question
}

func (f *fakeRenderer) Apology() string {
	return "I apologize, something went wrong."
}

type stubPayload struct {
	names []string
}

func (s stubPayload) EntityNames() []string {
	return s.names
}

func newTestOrchestrator(
	t *testing.T,
	interp *fakeInterpreter,
	exec *fakeExecutor,
	rend *fakeRenderer,
) (*Orchestrator, *conversation.Sessions) {
	t.Helper()
	sessions := conversation.NewSessions(conversation.Config{})
	o, err := New(sessions, interp, exec, rend)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, sessions
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	sessions := conversation.NewSessions(conversation.Config{})
	interp := &fakeInterpreter{results: []contractx.IntentResult{{}}}
	exec := &fakeExecutor{}
	rend := &fakeRenderer{}

	if _, err := New(nil, interp, exec, rend); err == nil {
		t.Fatal("expected error for nil sessions")
	}
	if _, err := New(sessions, nil, exec, rend); err == nil {
		t.Fatal("expected error for nil interpreter")
	}
	if _, err := New(sessions, interp, nil, rend); err == nil {
		t.Fatal("expected error for nil executor")
	}
	if _, err := New(sessions, interp, exec, nil); err == nil {
		t.Fatal("expected error for nil renderer")
	}
}

func TestProcessQueryHappyPath(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{
				Intent:     contractx.IntentInventoryQuery,
				Confidence: 0.95,
				Entities:   contractx.Entities{ProductRef: "Blue Widget"},
			},
		},
	}
	exec := &fakeExecutor{
		result: contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionProductStock,
			Message: "Found 1 product",
			Payload: stubPayload{names: []string{"Blue Widget"}},
		},
	}
	rend := &fakeRenderer{reply: "Blue Widget has 42 units on hand."}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	reply, err := o.ProcessQuery(context.Background(), "s1", "how many blue widgets do we have?")
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if reply != "Blue Widget has 42 units on hand." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if exec.calls != 1 {
		t.Fatalf("expected executor called once, got %d", exec.calls)
	}
	if rend.renderCalls != 1 {
		t.Fatalf("expected one render call, got %d", rend.renderCalls)
	}
	if rend.clarifyCalls != 0 {
		t.Fatalf("expected no clarification, got %d", rend.clarifyCalls)
	}

	history := sessions.Get("s1").Memory.History()
	if len(history) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(history))
	}
	if history[0].Intent != string(contractx.IntentInventoryQuery) {
		t.Fatalf("unexpected recorded intent: %s", history[0].Intent)
	}
}

func TestProcessQueryClarifyPathSkipsExecution(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{
				Intent:                contractx.IntentInventoryManagement,
				Confidence:            0.4,
				NeedsClarification:    true,
				ClarificationQuestion: "Which product did you mean?",
			},
		},
	}
	exec := &fakeExecutor{}
	rend := &fakeRenderer{reply: "should not render"}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	reply, err := o.ProcessQuery(context.Background(), "s1", "add some stock")
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if reply != "Which product did you mean?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if exec.calls != 0 {
		t.Fatalf("executor must not run on clarify path, got %d calls", exec.calls)
	}
	if rend.renderCalls != 0 {
		t.Fatalf("renderer must not run on clarify path, got %d calls", rend.renderCalls)
	}

	history := sessions.Get("s1").Memory.History()
	if len(history) != 1 {
		t.Fatalf("expected clarify turn recorded, got %d", len(history))
	}
}

func TestProcessQueryGeneralIntentClarifies(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{Intent: contractx.IntentGeneral, Confidence: 0.9},
		},
	}
	exec := &fakeExecutor{}
	rend := &fakeRenderer{}

	o, _ := newTestOrchestrator(t, interp, exec, rend)

	reply, err := o.ProcessQuery(context.Background(), "s1", "tell me a joke")
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if reply != "Could you give me a bit more detail?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if exec.calls != 0 {
		t.Fatalf("executor must not run for general intent, got %d calls", exec.calls)
	}
}

func TestProcessQueryExecutorFaultApologizes(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{Intent: contractx.IntentInventoryQuery, Confidence: 0.9},
		},
	}
	exec := &fakeExecutor{err: errors.New("store unreachable")}
	rend := &fakeRenderer{reply: "should not render"}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	reply, err := o.ProcessQuery(context.Background(), "s1", "show inventory")
	if err != nil {
		t.Fatalf("ProcessQuery() must absorb infrastructure faults, got error %v", err)
	}
	if reply != rend.Apology() {
		t.Fatalf("expected apology reply, got %q", reply)
	}
	if rend.renderCalls != 0 {
		t.Fatalf("renderer must not run on the fault path, got %d calls", rend.renderCalls)
	}

	history := sessions.Get("s1").Memory.History()
	if len(history) != 1 {
		t.Fatalf("expected the failed turn recorded, got %d", len(history))
	}
	if history[0].Response != rend.Apology() {
		t.Fatalf("unexpected recorded response: %q", history[0].Response)
	}
	if history[0].Intent != string(contractx.IntentInventoryQuery) {
		t.Fatalf("unexpected recorded intent: %s", history[0].Intent)
	}
}

func TestProcessQueryCanceledContextEscapes(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{Intent: contractx.IntentInventoryQuery, Confidence: 0.9},
		},
	}
	exec := &fakeExecutor{}
	rend := &fakeRenderer{reply: "should not render"}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.ProcessQuery(ctx, "s1", "show inventory"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	history := sessions.Get("s1").Memory.History()
	if len(history) != 0 {
		t.Fatalf("canceled turn must not be recorded, got %d", len(history))
	}
}

func TestProcessQueryCarriesContextAcrossTurns(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{
				Intent:     contractx.IntentInventoryQuery,
				Confidence: 0.95,
				Entities:   contractx.Entities{ProductRef: "Steel Bolt"},
			},
			{
				Intent:     contractx.IntentPriceQuery,
				Confidence: 0.9,
			},
		},
	}
	exec := &fakeExecutor{
		result: contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionProductStock,
			Message: "ok",
		},
	}
	rend := &fakeRenderer{reply: "done"}

	o, _ := newTestOrchestrator(t, interp, exec, rend)

	if _, err := o.ProcessQuery(context.Background(), "s1", "check steel bolt stock"); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	if _, err := o.ProcessQuery(context.Background(), "s1", "what about its price?"); err != nil {
		t.Fatalf("second turn error = %v", err)
	}

	if len(interp.snapshots) != 2 {
		t.Fatalf("expected two snapshots, got %d", len(interp.snapshots))
	}

	first := interp.snapshots[0]
	if first.HasHistory {
		t.Fatal("first turn must start with empty history")
	}

	second := interp.snapshots[1]
	if !second.HasHistory {
		t.Fatal("second turn must see history")
	}
	if !second.HasReference {
		t.Fatal("second turn must detect the follow-up reference")
	}
	if second.Candidate != "Steel Bolt" {
		t.Fatalf("unexpected candidate: %q", second.Candidate)
	}
}

func TestProcessQueryEmptySessionIDUsesDefault(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{Intent: contractx.IntentLowStockAlert, Confidence: 0.9},
		},
	}
	exec := &fakeExecutor{
		result: contractx.ActionResult{Success: true, Action: contractx.ActionLowStockReport, Message: "ok"},
	}
	rend := &fakeRenderer{reply: "all good"}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	if _, err := o.ProcessQuery(context.Background(), "   ", "any low stock?"); err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if got := sessions.Get(conversation.DefaultSessionID).Memory.History(); len(got) != 1 {
		t.Fatalf("expected turn on default session, got %d", len(got))
	}
}

func TestProcessQueryConcurrentTurnsAllRecorded(t *testing.T) {
	t.Parallel()

	interp := &fakeInterpreter{
		results: []contractx.IntentResult{
			{Intent: contractx.IntentInventoryQuery, Confidence: 0.9},
		},
	}
	exec := &fakeExecutor{
		result: contractx.ActionResult{Success: true, Action: contractx.ActionInventoryOverview, Message: "ok"},
	}
	rend := &fakeRenderer{reply: "overview"}

	o, sessions := newTestOrchestrator(t, interp, exec, rend)

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.ProcessQuery(context.Background(), "busy", "overview please"); err != nil {
				t.Errorf("ProcessQuery() error = %v", err)
			}
		}()
	}
	wg.Wait()

	stats := sessions.Get("busy").Memory.Stats()
	if stats.Turns != 5 {
		t.Fatalf("expected the window to hold 5 turns after %d, got %d", turns, stats.Turns)
	}
	if exec.calls != turns {
		t.Fatalf("expected %d executor calls, got %d", turns, exec.calls)
	}
}
