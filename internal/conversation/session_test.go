package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finlens/internal/model"
)

type fakeAgent struct {
	mu      sync.Mutex
	queries []string
	sugs    []string
	err     error
	gate    chan struct{} // when non-nil, Suggest blocks until it is closed
}

func (f *fakeAgent) Suggest(ctx context.Context, q string) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.sugs, f.err
}

func (f *fakeAgent) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	agent := &fakeAgent{}
	s := New(agent, zerolog.Nop())

	for _, text := range []string{"", "   ", "\n\t"} {
		done, ok := s.Submit(context.Background(), text)
		assert.False(t, ok)
		assert.Nil(t, done)
	}
	assert.Empty(t, s.Messages())
	assert.Zero(t, agent.calls())
	assert.False(t, s.Loading())
}

func TestSubmit_Success(t *testing.T) {
	agent := &fakeAgent{sugs: []string{"Cook at home twice a week", "Cancel unused streaming"}}
	s := New(agent, zerolog.Nop())
	s.SetInput("how do I save more?")

	done, ok := s.SubmitInput(context.Background())
	require.True(t, ok)
	assert.Empty(t, s.Input(), "input cleared on submit")
	wait(t, done)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.Message{Role: model.RoleUser, Content: "how do I save more?"}, msgs[0])
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "• Cook at home twice a week\n• Cancel unused streaming", msgs[1].Content)
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
	assert.Equal(t, []string{"how do I save more?"}, agent.queries)
}

func TestSubmit_EmptySuggestions(t *testing.T) {
	s := New(&fakeAgent{}, zerolog.Nop())
	done, ok := s.Submit(context.Background(), "anything?")
	require.True(t, ok)
	wait(t, done)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, NoSuggestions, msgs[1].Content)
}

func TestSubmit_Failure(t *testing.T) {
	s := New(&fakeAgent{err: errors.New("Agent request failed")}, zerolog.Nop())
	done, ok := s.Submit(context.Background(), "help")
	require.True(t, ok)
	wait(t, done)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Error: Agent request failed", msgs[1].Content)
	assert.False(t, s.Loading())
	assert.Error(t, s.Err())

	// the user can retry straight away
	_, ok = s.Submit(context.Background(), "help")
	assert.True(t, ok)
}

func TestSubmit_RejectedWhileLoading(t *testing.T) {
	agent := &fakeAgent{gate: make(chan struct{}), sugs: []string{"ok"}}
	s := New(agent, zerolog.Nop())

	done, ok := s.Submit(context.Background(), "first")
	require.True(t, ok)
	assert.True(t, s.Loading())

	_, ok = s.Submit(context.Background(), "second")
	assert.False(t, ok)
	assert.Len(t, s.Messages(), 1, "optimistic user message only")

	close(agent.gate)
	wait(t, done)
	assert.Equal(t, 1, agent.calls())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "• ok", msgs[1].Content)
}

func TestMessagesIsACopy(t *testing.T) {
	s := New(&fakeAgent{}, zerolog.Nop())
	done, _ := s.Submit(context.Background(), "hi")
	wait(t, done)

	msgs := s.Messages()
	msgs[0].Content = "edited"
	assert.Equal(t, "hi", s.Messages()[0].Content)
}

func TestNewSessionStartsEmpty(t *testing.T) {
	agent := &fakeAgent{sugs: []string{"x"}}
	first := New(agent, zerolog.Nop())
	done, _ := first.Submit(context.Background(), "hi")
	wait(t, done)

	second := New(agent, zerolog.Nop())
	assert.Empty(t, second.Messages())
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestFormatSuggestions(t *testing.T) {
	assert.Equal(t, "• Cook at home\n• Walk to work", FormatSuggestions([]string{" Cook at home ", "Walk to work"}))
	assert.Equal(t, "• one", FormatSuggestions([]string{"one"}))
	assert.Empty(t, FormatSuggestions(nil))
}
