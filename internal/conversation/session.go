// Package conversation runs a free-text advice conversation: an append-only
// transcript with at most one request in flight.
package conversation

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finlens/internal/model"
)

// NoSuggestions is the reply recorded when the agent returns nothing.
const NoSuggestions = "No specific suggestions right now."

// Agent answers a query with a list of suggestions.
type Agent interface {
	Suggest(ctx context.Context, q string) ([]string, error)
}

// Session is one open conversation. Closing the conversation means dropping
// the Session; a new one starts empty.
type Session struct {
	id    string
	agent Agent
	log   zerolog.Logger

	mu       sync.Mutex
	messages []model.Message
	input    string
	loading  bool
	lastErr  error
}

// New starts an empty session.
func New(agent Agent, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:    id,
		agent: agent,
		log:   log.With().Str("component", "conversation").Str("conversation_id", id).Logger(),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// SetInput replaces the input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the input buffer.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Loading reports whether a request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the failure of the last request, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SubmitInput submits the input buffer.
func (s *Session) SubmitInput(ctx context.Context) (<-chan struct{}, bool) {
	return s.Submit(ctx, s.Input())
}

// Submit sends text to the agent. It reports false, doing nothing, when text
// is blank or a request is already in flight. Otherwise the user message is
// appended at once, the input buffer cleared, and the request started; the
// returned channel closes once the reply has been appended.
func (s *Session) Submit(ctx context.Context, text string) (<-chan struct{}, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, false
	}
	s.messages = append(s.messages, model.Message{Role: model.RoleUser, Content: text})
	s.input = ""
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sugs, err := s.agent.Suggest(ctx, text)
		s.finish(sugs, err)
	}()
	return done, true
}

func (s *Session) finish(sugs []string, err error) {
	var content string
	switch {
	case err != nil:
		content = "Error: " + err.Error()
		s.log.Warn().Err(err).Msg("agent request failed")
	case len(sugs) == 0:
		content = NoSuggestions
	default:
		content = FormatSuggestions(sugs)
	}

	s.mu.Lock()
	s.messages = append(s.messages, model.Message{Role: model.RoleAssistant, Content: content})
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// FormatSuggestions joins suggestions with newlines, bulleting every line
// including the first so the reply reads as a list on its own.
func FormatSuggestions(sugs []string) string {
	lines := make([]string, 0, len(sugs))
	for _, sg := range sugs {
		lines = append(lines, "• "+strings.TrimSpace(sg))
	}
	return strings.Join(lines, "\n")
}
