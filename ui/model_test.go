package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/adapters/relayclient"
	"github.com/vasifvortex/azercell-project3/adapters/threadstore"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/session"
)

type fakeRelay struct {
	answer string
	chunks []string
	err    error
	asked  []domain.ChatRequest
}

func (f *fakeRelay) Ask(_ context.Context, req domain.ChatRequest) (string, error) {
	f.asked = append(f.asked, req)
	return f.answer, f.err
}

func (f *fakeRelay) Stream(_ context.Context, req domain.ChatRequest, onChunk func(string)) error {
	f.asked = append(f.asked, req)
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.err
}

// drive feeds msg to the model and keeps running the returned commands until
// none is left.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "model did not settle")
		next := queue[0]
		queue = queue[1:]

		if batch, ok := next.(tea.BatchMsg); ok {
			for _, cmd := range batch {
				if cmd != nil {
					queue = append(queue, cmd())
				}
			}
			continue
		}
		if next == nil {
			continue
		}

		updated, cmd := m.Update(next)
		m = updated.(Model)
		if cmd != nil {
			queue = append(queue, cmd())
		}
	}
	return m
}

func typeAndSend(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	return drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func newModel(relay Relay, opts Options) Model {
	return New(context.Background(), relay, session.New(), opts)
}

func TestSendBlockingAnswer(t *testing.T) {
	relay := &fakeRelay{answer: "I'm Luffy!"}
	m := newModel(relay, Options{System: "Respond as Luffy."})

	m = typeAndSend(t, m, "  Who are you? ")

	require.Len(t, relay.asked, 1)
	assert.Equal(t, domain.ChatRequest{Query: "Who are you?", System: "Respond as Luffy."}, relay.asked[0])

	thread := m.State().ActiveThread()
	assert.Equal(t, session.Idle, thread.Status)
	assert.Equal(t, []domain.Turn{
		{Role: domain.UserRole, Text: "Who are you?"},
		{Role: domain.AssistantRole, Text: "I'm Luffy!"},
	}, thread.Turns)
	assert.Empty(t, m.input.Value())
}

func TestSendStreamedAnswer(t *testing.T) {
	relay := &fakeRelay{chunks: []string{"Ahoy", ", I'm ", "Luffy"}}
	m := newModel(relay, Options{Stream: true})

	m = typeAndSend(t, m, "hi")

	thread := m.State().ActiveThread()
	require.Len(t, thread.Turns, 2)
	assert.Equal(t, "Ahoy, I'm Luffy", thread.Turns[1].Text)
	assert.Empty(t, m.pending)
}

func TestStreamFailureKeepsFragments(t *testing.T) {
	relay := &fakeRelay{chunks: []string{"one "}, err: &relayclient.StatusError{Code: 500, Body: "boom"}}
	m := newModel(relay, Options{Stream: true})

	m = typeAndSend(t, m, "hi")

	last := m.State().ActiveThread().Turns[1]
	assert.True(t, last.Failed)
	assert.Equal(t, "one \n\nError 500: boom", last.Text)
}

func TestConnectionFailureIsDescribed(t *testing.T) {
	relay := &fakeRelay{err: errors.New("dial tcp: refused")}
	m := newModel(relay, Options{})

	m = typeAndSend(t, m, "hi")

	last := m.State().ActiveThread().Turns[1]
	assert.True(t, last.Failed)
	assert.Equal(t, "Failed to connect to backend: dial tcp: refused", last.Text)
}

func TestEmptyInputIsIgnored(t *testing.T) {
	relay := &fakeRelay{answer: "x"}
	m := newModel(relay, Options{})

	m = typeAndSend(t, m, "   ")

	assert.Empty(t, relay.asked)
	assert.Empty(t, m.State().ActiveThread().Turns)
}

func TestSendWhileAwaitingIsIgnored(t *testing.T) {
	relay := &fakeRelay{answer: "x"}
	m := newModel(relay, Options{})

	m.input.SetValue("first")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.Equal(t, session.AwaitingResponse, m.State().ActiveThread().Status)

	m.input.SetValue("second")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.Len(t, m.State().ActiveThread().Turns, 1)
	assert.Equal(t, "second", m.input.Value())
	assert.NotEmpty(t, m.status)
}

func TestLateAnswerLandsInItsOwnThread(t *testing.T) {
	m := newModel(&fakeRelay{}, Options{})
	m.input.SetValue("question")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	first := m.State().ActiveThread().ID

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = updated.(Model)
	updated, _ = m.Update(AnswerMsg{ThreadID: first, Text: "answer"})
	m = updated.(Model)

	state := m.State()
	require.Len(t, state.Threads, 2)
	assert.Equal(t, 1, state.Active)
	assert.Empty(t, state.Threads[1].Turns)
	assert.Equal(t, "answer", state.Threads[0].Turns[1].Text)
}

func TestThreadNavigation(t *testing.T) {
	m := newModel(&fakeRelay{}, Options{})
	for i := 0; i < 2; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
		m = updated.(Model)
	}
	require.Len(t, m.State().Threads, 3)
	assert.Equal(t, 2, m.State().Active)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlLeft})
	m = updated.(Model)
	assert.Equal(t, 1, m.State().Active)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}, Alt: true})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}, Alt: true})
	m = updated.(Model)
	assert.Equal(t, 0, m.State().Active)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlRight})
	m = updated.(Model)
	assert.Equal(t, 1, m.State().Active)
}

func TestDeleteRemovesStoredThread(t *testing.T) {
	ctx := context.Background()
	store := threadstore.NewMemory()
	m := New(ctx, &fakeRelay{answer: "yo"}, session.New(), Options{Store: store})

	m = typeAndSend(t, m, "hi")
	id := m.State().ActiveThread().ID
	ids, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{id}, ids)

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	require.Len(t, m.State().Threads, 1)
	assert.NotEqual(t, id, m.State().ActiveThread().ID)
}

func TestTurnsPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	store := threadstore.NewMemory()
	m := New(ctx, &fakeRelay{chunks: []string{"yo"}}, session.New(), Options{Store: store, Stream: true})

	m = typeAndSend(t, m, "hi")
	id := m.State().ActiveThread().ID

	state, err := Restore(ctx, store)
	require.NoError(t, err)
	require.Len(t, state.Threads, 1)
	assert.Equal(t, id, state.Threads[0].ID)
	assert.Equal(t, []domain.Turn{
		{Role: domain.UserRole, Text: "hi"},
		{Role: domain.AssistantRole, Text: "yo"},
	}, state.Threads[0].Turns)
}

func TestRestoreWithoutStore(t *testing.T) {
	state, err := Restore(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, state.Threads, 1)
}

func TestViewShowsThreadsAndTurns(t *testing.T) {
	m := newModel(&fakeRelay{answer: "I'm Luffy!"}, Options{})
	m = drive(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = typeAndSend(t, m, "Who are you?")

	view := m.View()
	assert.Contains(t, view, title)
	assert.Contains(t, view, "Chat 1")
	assert.Contains(t, view, "You: Who are you?")
	assert.Contains(t, view, "Luffy")
}

func TestQuit(t *testing.T) {
	m := newModel(&fakeRelay{}, Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
