// Package conversation keeps the short-term dialogue state that makes
// follow-up queries like "how many of those are left" resolvable.
package conversation

import (
	"regexp"
	"strings"
	"time"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

const (
	defaultMaxTurns    = 5
	defaultMaxEntities = 5

	// summaryLimit caps the response text carried into interpreter prompts.
	summaryLimit = 120

	// maxPayloadEntities bounds how many product names a single action
	// result may push into the recent-entity list.
	maxPayloadEntities = 3
)

// Turn is one completed query/response exchange.
type Turn struct {
	Query    string    `json:"query"`
	Intent   string    `json:"intent"`
	Response string    `json:"response"`
	At       time.Time `json:"at"`
}

// Stats is the shape returned for the /stats REPL command.
type Stats struct {
	Turns      int      `json:"turns"`
	Entities   []string `json:"entities,omitempty"`
	LastQuery  string   `json:"last_query,omitempty"`
	LastIntent string   `json:"last_intent,omitempty"`
}

// Transcript is the serialized form of a Memory, used to carry a session
// across process restarts.
type Transcript struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns,omitempty"`
	Entities  []string  `json:"entities,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Memory is the per-session conversation state: a bounded window of recent
// turns plus a newest-first list of recently mentioned products. It is not
// safe for concurrent use; Sessions serializes access per session.
type Memory struct {
	maxTurns    int
	maxEntities int
	turns       []Turn
	entities    []string
	now         func() time.Time
}

// Option customizes Memory.
type Option func(*Memory)

func WithMaxTurns(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxTurns = n
		}
	}
}

func WithMaxEntities(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntities = n
		}
	}
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		maxTurns:    defaultMaxTurns,
		maxEntities: defaultMaxEntities,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

/* ---------------------------- reference markers --------------------------- */

var referenceWordPattern = regexp.MustCompile(`\b(it|that|this|those|them|these|same|also|too|again|more|and|now|then)\b`)

var referencePhrases = []string{"what about", "how about", "after that"}

// HasReferenceMarkers reports whether the query leans on earlier context
// ("how many of those are left", "what about the blue ones").
func HasReferenceMarkers(query string) bool {
	q := strings.ToLower(query)
	if referenceWordPattern.MatchString(q) {
		return true
	}
	for _, phrase := range referencePhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

/* ------------------------------ Memory methods ---------------------------- */

// ContextForQuery captures what the interpreter needs to resolve the query:
// recent turns, recent entities, and whether the query plus history justify
// substituting the most recent product for a pronoun.
func (m *Memory) ContextForQuery(query string) contractx.Snapshot {
	snap := contractx.Snapshot{
		HasHistory: len(m.turns) > 0,
		CapturedAt: m.now().UTC(),
	}
	if len(m.entities) > 0 {
		snap.RecentEntities = append([]string(nil), m.entities...)
	}
	for _, t := range m.turns {
		snap.RecentTurns = append(snap.RecentTurns, contractx.TurnSummary{
			Query:    t.Query,
			Intent:   contractx.IntentType(t.Intent),
			Response: truncate(t.Response, summaryLimit),
		})
	}
	if HasReferenceMarkers(query) && len(m.entities) > 0 {
		snap.HasReference = true
		snap.Candidate = m.entities[0]
	}
	return snap
}

// AddTurn records a completed exchange and harvests product entities from the
// interpreted intent and the action payload.
func (m *Memory) AddTurn(query string, intent contractx.IntentResult, action *contractx.ActionResult, response string) {
	turn := Turn{
		Query:    strings.TrimSpace(query),
		Intent:   string(intent.Intent),
		Response: response,
		At:       m.now().UTC(),
	}
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}

	if ref := strings.TrimSpace(intent.Entities.ProductRef); ref != "" {
		m.rememberEntity(ref)
	}
	if action == nil {
		return
	}
	if carrier, ok := action.Payload.(contractx.EntityCarrier); ok {
		names := carrier.EntityNames()
		if len(names) > maxPayloadEntities {
			names = names[:maxPayloadEntities]
		}
		// Reverse order so the first payload name ends up most recent.
		for i := len(names) - 1; i >= 0; i-- {
			m.rememberEntity(names[i])
		}
	}
}

// History returns a copy of the retained turns, oldest first.
func (m *Memory) History() []Turn {
	return append([]Turn(nil), m.turns...)
}

// Export copies the retained turns and entities into a transcript. The caller
// fills in SessionID.
func (m *Memory) Export() Transcript {
	return Transcript{
		Turns:     append([]Turn(nil), m.turns...),
		Entities:  append([]string(nil), m.entities...),
		UpdatedAt: m.now().UTC(),
	}
}

// Restore replaces memory contents with an archived transcript, re-applying
// the configured bounds.
func (m *Memory) Restore(t Transcript) {
	m.turns = nil
	m.entities = nil

	turns := t.Turns
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.turns = append(m.turns, turns...)

	// Entities are stored newest-first; re-adding in reverse keeps that order
	// while the bound and dedup rules apply.
	for i := len(t.Entities) - 1; i >= 0; i-- {
		m.rememberEntity(t.Entities[i])
	}
}

func (m *Memory) Clear() {
	m.turns = nil
	m.entities = nil
}

func (m *Memory) Stats() Stats {
	st := Stats{Turns: len(m.turns)}
	if len(m.entities) > 0 {
		st.Entities = append([]string(nil), m.entities...)
	}
	if len(m.turns) > 0 {
		last := m.turns[len(m.turns)-1]
		st.LastQuery = last.Query
		st.LastIntent = last.Intent
	}
	return st
}

// rememberEntity moves name to the front of the recent-entity list,
// deduplicating case-insensitively and trimming to the configured bound.
func (m *Memory) rememberEntity(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	kept := make([]string, 0, len(m.entities)+1)
	kept = append(kept, name)
	for _, e := range m.entities {
		if strings.EqualFold(e, name) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > m.maxEntities {
		kept = kept[:m.maxEntities]
	}
	m.entities = kept
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
