package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/domain"
)

func TestNewStartsWithOneEmptyThread(t *testing.T) {
	s := New()
	require.Len(t, s.Threads, 1)
	assert.Zero(t, s.Active)
	assert.Empty(t, s.ActiveThread().Turns)
	assert.NotEmpty(t, s.ActiveThread().ID)
}

func TestDeletingLastThreadLeavesOneEmpty(t *testing.T) {
	s := New()
	s, _, err := Begin(s, "hello")
	require.NoError(t, err)
	oldID := s.ActiveThread().ID

	s, removed := DeleteActive(s)

	assert.Equal(t, oldID, removed)
	require.Len(t, s.Threads, 1)
	assert.Zero(t, s.Active)
	assert.Empty(t, s.ActiveThread().Turns)
	assert.NotEqual(t, oldID, s.ActiveThread().ID)
}

func TestDeleteActivatesLastRemaining(t *testing.T) {
	s := NewThread(NewThread(New()))
	s = Select(s, 0)
	first := s.Threads[0].ID

	s, removed := DeleteActive(s)

	assert.Equal(t, first, removed)
	require.Len(t, s.Threads, 2)
	assert.Equal(t, 1, s.Active)
}

func TestSelectClamps(t *testing.T) {
	s := NewThread(NewThread(New()))
	s = Select(s, 2)
	s, _ = DeleteActive(s)

	assert.NotPanics(t, func() { s = Select(s, 2) })
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 0, Select(s, -3).Active)
	assert.Equal(t, 1, Select(s, 1).Active)
}

func TestNewThreadBecomesActive(t *testing.T) {
	s := NewThread(New())
	require.Len(t, s.Threads, 2)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, "Chat 2", s.Title(s.Active))
}

func TestStreamingLifecycle(t *testing.T) {
	s, turn, err := Begin(New(), "  Who are you?  ")
	require.NoError(t, err)
	assert.Equal(t, domain.Turn{Role: domain.UserRole, Text: "Who are you?"}, turn)
	id := s.ActiveThread().ID
	assert.Equal(t, AwaitingResponse, s.ActiveThread().Status)

	s = ApplyChunk(s, id, "I'm ")
	s = ApplyChunk(s, id, "Luffy!")
	assert.Equal(t, "I'm Luffy!", s.ActiveThread().Partial)
	assert.Len(t, s.ActiveThread().Turns, 1)

	s, committed, ok := Commit(s, id)
	require.True(t, ok)
	assert.Equal(t, domain.Turn{Role: domain.AssistantRole, Text: "I'm Luffy!"}, committed)

	thread := s.ActiveThread()
	assert.Equal(t, Idle, thread.Status)
	assert.Empty(t, thread.Partial)
	assert.Equal(t, []domain.Turn{
		{Role: domain.UserRole, Text: "Who are you?"},
		{Role: domain.AssistantRole, Text: "I'm Luffy!"},
	}, thread.Turns)
}

func TestFailKeepsRenderedFragments(t *testing.T) {
	s, _, err := Begin(New(), "q")
	require.NoError(t, err)
	id := s.ActiveThread().ID

	s = ApplyChunk(s, id, "one ")
	s = ApplyChunk(s, id, "two")
	s, turn, ok := Fail(s, id, "Error 500: boom")

	require.True(t, ok)
	assert.True(t, turn.Failed)
	assert.Equal(t, "one two\n\nError 500: boom", turn.Text)
	assert.Equal(t, Idle, s.ActiveThread().Status)
}

func TestFailWithoutFragments(t *testing.T) {
	s, _, _ := Begin(New(), "q")
	s, turn, ok := Fail(s, s.ActiveThread().ID, "Failed to connect to backend: refused")

	require.True(t, ok)
	assert.Equal(t, "Failed to connect to backend: refused", turn.Text)
	assert.Equal(t, domain.AssistantRole, s.ActiveThread().Turns[1].Role)
}

func TestBeginRejections(t *testing.T) {
	_, _, err := Begin(New(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	s, _, err := Begin(New(), "first")
	require.NoError(t, err)
	_, _, err = Begin(s, "second")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestResponsesFollowTheirThread(t *testing.T) {
	s, _, _ := Begin(New(), "q")
	waiting := s.ActiveThread().ID
	s = NewThread(s)

	s = ApplyChunk(s, waiting, "answer")
	s, _, ok := Commit(s, waiting)

	require.True(t, ok)
	assert.Empty(t, s.ActiveThread().Turns)
	assert.Equal(t, "answer", s.Threads[0].Turns[1].Text)
}

func TestLateEventsAreIgnored(t *testing.T) {
	s, _, _ := Begin(New(), "q")
	id := s.ActiveThread().ID
	s, _, _ = Commit(s, id)

	after := ApplyChunk(s, id, "late")
	assert.Empty(t, after.ActiveThread().Partial)

	_, _, ok := Commit(after, id)
	assert.False(t, ok)
	_, _, ok = Fail(after, "missing", "x")
	assert.False(t, ok)
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	before := New()
	s, _, _ := Begin(before, "q")

	assert.Empty(t, before.ActiveThread().Turns)
	assert.Equal(t, Idle, before.ActiveThread().Status)

	next := ApplyChunk(s, s.ActiveThread().ID, "x")
	assert.Empty(t, s.ActiveThread().Partial)
	assert.Equal(t, "x", next.ActiveThread().Partial)
}

func TestRestore(t *testing.T) {
	s := Restore([]Thread{
		{ID: "a", Turns: []domain.Turn{{Role: domain.UserRole, Text: "hi"}}},
		{ID: "b", Status: AwaitingResponse, Partial: "stale"},
	})

	require.Len(t, s.Threads, 2)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, Idle, s.Threads[1].Status)
	assert.Empty(t, s.Threads[1].Partial)

	assert.Len(t, Restore(nil).Threads, 1)
}
