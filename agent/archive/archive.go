// Package archive persists conversation transcripts in Upstash Redis through
// its REST API, so a restarted agent can pick a session back up where it
// stopped. Archival is optional; the agent runs fine without it.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirawit-b/stocktalk/agent/conversation"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrInvalidSessionID   = errors.New("session id is empty")
)

const (
	defaultKeyPrefix     = "stocktalk:session:"
	defaultTTL           = 24 * time.Hour
	maxResponseSizeBytes = 2 << 20
)

// Config is the environment surface for the transcript archive. A blank URL
// leaves archival disabled.
type Config struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes a Store.
type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// Store reads and writes transcripts against one Upstash Redis database.
type Store struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func New(cfg Config, opts ...Option) (*Store, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("archive redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("archive redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &Store{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultKeyPrefix,
		ttl:        defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

// Load fetches the archived transcript for sessionID. A session that was
// never saved (or whose TTL lapsed) returns ErrTranscriptNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*conversation.Transcript, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrTranscriptNotFound
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode transcript payload: %w", err)
	}

	var t conversation.Transcript
	if err := json.Unmarshal([]byte(encoded), &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &t, nil
}

// Save writes the transcript under the session key, refreshing the TTL.
func (s *Store) Save(ctx context.Context, t conversation.Transcript) error {
	if strings.TrimSpace(t.SessionID) == "" {
		return ErrInvalidSessionID
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	} else {
		t.UpdatedAt = t.UpdatedAt.UTC()
	}

	key, err := s.redisKey(t.SessionID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}

	_, err = s.exec(ctx, cmd)
	return err
}

// Delete drops the archived transcript for sessionID.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *Store) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSessionID
	}
	return s.keyPrefix + sessionID, nil
}

func (s *Store) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
