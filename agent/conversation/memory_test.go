package conversation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

type stubPayload struct {
	names []string
}

func (s stubPayload) EntityNames() []string { return s.names }

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func intentWithProduct(name string) contractx.IntentResult {
	return contractx.IntentResult{
		Intent:   contractx.IntentInventoryQuery,
		Entities: contractx.Entities{ProductRef: name},
	}
}

func TestContextForQueryEmptyMemory(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))

	snap := m.ContextForQuery("how much stock of usb cables do we have")
	if snap.HasHistory {
		t.Fatal("expected HasHistory to be false on a fresh memory")
	}
	if snap.HasReference {
		t.Fatal("expected no reference without prior entities")
	}
	if len(snap.RecentTurns) != 0 || len(snap.RecentEntities) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if !snap.CapturedAt.Equal(fixedNow()) {
		t.Fatalf("expected CapturedAt %v, got %v", fixedNow(), snap.CapturedAt)
	}
}

func TestContextForQueryCarriesRecentTurns(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("check usb cable stock", intentWithProduct("USB Cable"), nil, "150 units in stock")

	snap := m.ContextForQuery("show low stock products")
	if !snap.HasHistory {
		t.Fatal("expected HasHistory after a recorded turn")
	}
	if len(snap.RecentTurns) != 1 {
		t.Fatalf("expected 1 recent turn, got %d", len(snap.RecentTurns))
	}
	turn := snap.RecentTurns[0]
	if turn.Query != "check usb cable stock" {
		t.Fatalf("unexpected turn query %q", turn.Query)
	}
	if turn.Intent != contractx.IntentInventoryQuery {
		t.Fatalf("unexpected turn intent %q", turn.Intent)
	}
	if turn.Response != "150 units in stock" {
		t.Fatalf("unexpected turn response %q", turn.Response)
	}
	if len(snap.RecentEntities) != 1 || snap.RecentEntities[0] != "USB Cable" {
		t.Fatalf("expected recent entities [USB Cable], got %v", snap.RecentEntities)
	}
}

func TestContextForQueryTruncatesLongResponses(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	long := strings.Repeat("a", summaryLimit+30)
	m.AddTurn("overview", contractx.IntentResult{Intent: contractx.IntentAnalytics}, nil, long)

	snap := m.ContextForQuery("anything new")
	if len(snap.RecentTurns) != 1 {
		t.Fatalf("expected 1 recent turn, got %d", len(snap.RecentTurns))
	}
	got := snap.RecentTurns[0].Response
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated response to end with ellipsis, got %q", got)
	}
	if want := summaryLimit + len("..."); len(got) != want {
		t.Fatalf("expected truncated length %d, got %d", want, len(got))
	}
}

func TestContextForQueryResolvesReference(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("check usb cable stock", intentWithProduct("USB Cable"), nil, "150 units")

	snap := m.ContextForQuery("how many of those are left?")
	if !snap.HasReference {
		t.Fatal("expected reference markers to trigger with a recent entity")
	}
	if snap.Candidate != "USB Cable" {
		t.Fatalf("expected candidate USB Cable, got %q", snap.Candidate)
	}
}

func TestContextForQueryNoReferenceWithoutEntities(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("show low stock products", contractx.IntentResult{Intent: contractx.IntentLowStockAlert}, nil, "3 products low")

	snap := m.ContextForQuery("how many of those are left?")
	if snap.HasReference {
		t.Fatal("expected no reference when no product was mentioned")
	}
	if snap.Candidate != "" {
		t.Fatalf("expected empty candidate, got %q", snap.Candidate)
	}
}

func TestHasReferenceMarkers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query string
		want  bool
	}{
		{"how many of those are left?", true},
		{"what about the wireless mouse?", true},
		{"is it still in stock?", true},
		{"add 20 more", true},
		{"same for the blue one", true},
		{"how much stock of usb cables do we have?", false},
		{"show low stock products", false},
		{"list suppliers for hammers", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := HasReferenceMarkers(tc.query); got != tc.want {
			t.Errorf("HasReferenceMarkers(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestAddTurnKeepsBoundedWindow(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithMaxTurns(3), WithNow(fixedNow))
	for i := 1; i <= 5; i++ {
		m.AddTurn(fmt.Sprintf("query %d", i), contractx.IntentResult{Intent: contractx.IntentGeneral}, nil, "ok")
	}

	turns := m.History()
	if len(turns) != 3 {
		t.Fatalf("expected window of 3 turns, got %d", len(turns))
	}
	if turns[0].Query != "query 3" || turns[2].Query != "query 5" {
		t.Fatalf("expected oldest turns dropped, got %q..%q", turns[0].Query, turns[2].Query)
	}
}

func TestAddTurnDeduplicatesEntities(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("check usb cable", intentWithProduct("USB Cable"), nil, "ok")
	m.AddTurn("check hammer", intentWithProduct("Claw Hammer"), nil, "ok")
	m.AddTurn("check usb cable again", intentWithProduct("usb cable"), nil, "ok")

	st := m.Stats()
	if len(st.Entities) != 2 {
		t.Fatalf("expected 2 tracked entities, got %v", st.Entities)
	}
	if st.Entities[0] != "usb cable" {
		t.Fatalf("expected the re-mentioned product first, got %v", st.Entities)
	}
	if st.Entities[1] != "Claw Hammer" {
		t.Fatalf("expected Claw Hammer retained, got %v", st.Entities)
	}
}

func TestAddTurnHarvestsPayloadEntities(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	action := &contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionProductList,
		Payload: stubPayload{names: []string{"Desk Lamp", "Desk Chair", "Desk Mat", "Desk Fan", "Desk Riser"}},
	}
	m.AddTurn("find desk products", contractx.IntentResult{Intent: contractx.IntentProductSearch}, action, "5 found")

	st := m.Stats()
	if len(st.Entities) != maxPayloadEntities {
		t.Fatalf("expected payload names capped at %d, got %v", maxPayloadEntities, st.Entities)
	}
	if st.Entities[0] != "Desk Lamp" {
		t.Fatalf("expected first payload name most recent, got %v", st.Entities)
	}
}

func TestAddTurnCapsEntityList(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithMaxEntities(2), WithNow(fixedNow))
	m.AddTurn("a", intentWithProduct("Product A"), nil, "ok")
	m.AddTurn("b", intentWithProduct("Product B"), nil, "ok")
	m.AddTurn("c", intentWithProduct("Product C"), nil, "ok")

	st := m.Stats()
	if len(st.Entities) != 2 {
		t.Fatalf("expected entity list capped at 2, got %v", st.Entities)
	}
	if st.Entities[0] != "Product C" || st.Entities[1] != "Product B" {
		t.Fatalf("expected newest-first [Product C Product B], got %v", st.Entities)
	}
}

func TestClearResetsEverything(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("check usb cable", intentWithProduct("USB Cable"), nil, "ok")
	m.Clear()

	if len(m.History()) != 0 {
		t.Fatal("expected no turns after Clear")
	}
	st := m.Stats()
	if st.Turns != 0 || len(st.Entities) != 0 {
		t.Fatalf("expected empty stats after Clear, got %+v", st)
	}
	if snap := m.ContextForQuery("what about it?"); snap.HasReference || snap.HasHistory {
		t.Fatalf("expected cold snapshot after Clear, got %+v", snap)
	}
}

func TestStatsReportsLastTurn(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("first", intentWithProduct("USB Cable"), nil, "ok")
	m.AddTurn("check hammer price", contractx.IntentResult{Intent: contractx.IntentPriceQuery}, nil, "ok")

	st := m.Stats()
	if st.Turns != 2 {
		t.Fatalf("expected 2 turns, got %d", st.Turns)
	}
	if st.LastQuery != "check hammer price" {
		t.Fatalf("unexpected last query %q", st.LastQuery)
	}
	if st.LastIntent != string(contractx.IntentPriceQuery) {
		t.Fatalf("unexpected last intent %q", st.LastIntent)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("first", intentWithProduct("USB Cable"), nil, "ok")

	turns := m.History()
	turns[0].Query = "tampered"

	if got := m.History()[0].Query; got != "first" {
		t.Fatalf("expected internal turns unaffected by caller mutation, got %q", got)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("how many usb cables?", intentWithProduct("USB Cable"), nil, "150 units.")
	m.AddTurn("and hdmi cables?", intentWithProduct("HDMI Cable"), nil, "80 units.")

	transcript := m.Export()
	transcript.SessionID = "default"
	if transcript.UpdatedAt != fixedNow() {
		t.Fatalf("expected export stamped with the clock, got %v", transcript.UpdatedAt)
	}

	restored := NewMemory(WithNow(fixedNow))
	restored.Restore(transcript)

	turns := restored.History()
	if len(turns) != 2 || turns[0].Query != "how many usb cables?" {
		t.Fatalf("unexpected restored turns %v", turns)
	}
	snap := restored.ContextForQuery("how many of those are left?")
	if !snap.HasReference || snap.Candidate != "HDMI Cable" {
		t.Fatalf("expected restored entities to resolve references, got %+v", snap)
	}
}

func TestRestoreAppliesBounds(t *testing.T) {
	t.Parallel()

	transcript := Transcript{
		Turns: []Turn{
			{Query: "one"}, {Query: "two"}, {Query: "three"}, {Query: "four"},
		},
		Entities: []string{"Product A", "Product B", "Product C"},
	}

	m := NewMemory(WithMaxTurns(2), WithMaxEntities(2), WithNow(fixedNow))
	m.Restore(transcript)

	turns := m.History()
	if len(turns) != 2 || turns[0].Query != "three" || turns[1].Query != "four" {
		t.Fatalf("expected the newest two turns kept, got %v", turns)
	}
	st := m.Stats()
	if len(st.Entities) != 2 || st.Entities[0] != "Product A" || st.Entities[1] != "Product B" {
		t.Fatalf("expected the two most recent entities kept, got %v", st.Entities)
	}
}

func TestRestoreReplacesExistingState(t *testing.T) {
	t.Parallel()

	m := NewMemory(WithNow(fixedNow))
	m.AddTurn("stale question", intentWithProduct("Stale Product"), nil, "stale answer")

	m.Restore(Transcript{
		Turns:    []Turn{{Query: "fresh question"}},
		Entities: []string{"Fresh Product"},
	})

	turns := m.History()
	if len(turns) != 1 || turns[0].Query != "fresh question" {
		t.Fatalf("expected only the archived turn, got %v", turns)
	}
	st := m.Stats()
	if len(st.Entities) != 1 || st.Entities[0] != "Fresh Product" {
		t.Fatalf("expected only the archived entity, got %v", st.Entities)
	}
}
