package conversation

import (
	"strings"
	"sync"
)

// DefaultSessionID is used when callers pass an empty session id.
const DefaultSessionID = "default"

// Config bounds per-session memory. Defaults match the interpreter prompt
// budget: five turns and five entities are plenty for pronoun resolution.
type Config struct {
	MaxTurns    int `envconfig:"MAX_TURNS" split_words:"true" default:"5"`
	MaxEntities int `envconfig:"MAX_ENTITIES" split_words:"true" default:"5"`
}

// Session pairs a Memory with the mutex that serializes its turns. Callers
// hold the lock for the whole query/response cycle, so two turns in the same
// session can never interleave.
type Session struct {
	sync.Mutex

	ID     string
	Memory *Memory
}

// Sessions hands out one Session per id, creating it on first use.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
	opts []Option
}

func NewSessions(cfg Config, opts ...Option) *Sessions {
	combined := make([]Option, 0, len(opts)+2)
	if cfg.MaxTurns > 0 {
		combined = append(combined, WithMaxTurns(cfg.MaxTurns))
	}
	if cfg.MaxEntities > 0 {
		combined = append(combined, WithMaxEntities(cfg.MaxEntities))
	}
	combined = append(combined, opts...)
	return &Sessions{
		byID: make(map[string]*Session),
		opts: combined,
	}
}

// Get returns the session for id, creating it if needed. Empty ids collapse
// into DefaultSessionID.
func (s *Sessions) Get(id string) *Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		sess = &Session{ID: id, Memory: NewMemory(s.opts...)}
		s.byID[id] = sess
	}
	return sess
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
