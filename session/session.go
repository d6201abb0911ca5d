// Package session holds the chat client's conversation threads. Every
// operation is a pure function: it returns a new State and never mutates its
// argument.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vasifvortex/azercell-project3/domain"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBusy       = errors.New("thread is awaiting a response")
)

type Status int

const (
	Idle Status = iota
	AwaitingResponse
)

type Thread struct {
	ID    string
	Turns []domain.Turn
	// Partial accumulates streamed fragments until the answer is committed.
	Partial string
	Status  Status
}

type State struct {
	Threads []Thread
	Active  int
}

func newThread() Thread {
	return Thread{ID: uuid.NewString()}
}

// New returns a session with one empty thread.
func New() State {
	return State{Threads: []Thread{newThread()}}
}

// Restore rebuilds a session from stored threads, keeping their order. The
// last thread becomes active.
func Restore(threads []Thread) State {
	if len(threads) == 0 {
		return New()
	}
	s := State{Threads: make([]Thread, len(threads))}
	for i, t := range threads {
		t.Turns = append([]domain.Turn(nil), t.Turns...)
		t.Partial = ""
		t.Status = Idle
		s.Threads[i] = t
	}
	s.Active = len(s.Threads) - 1
	return s
}

func (s State) clone() State {
	out := State{Threads: make([]Thread, len(s.Threads)), Active: s.Active}
	copy(out.Threads, s.Threads)
	return out
}

func (s State) ActiveThread() Thread {
	return s.Threads[s.Active]
}

// Title is the label shown for thread i in the thread list.
func (s State) Title(i int) string {
	return fmt.Sprintf("Chat %d", i+1)
}

func (s State) index(threadID string) int {
	for i, t := range s.Threads {
		if t.ID == threadID {
			return i
		}
	}
	return -1
}

// NewThread appends an empty thread and makes it active.
func NewThread(s State) State {
	out := s.clone()
	out.Threads = append(out.Threads, newThread())
	out.Active = len(out.Threads) - 1
	return out
}

// DeleteActive removes the active thread and activates the last remaining
// one. Deleting the only thread leaves a single fresh thread.
func DeleteActive(s State) (State, string) {
	if len(s.Threads) == 0 {
		return New(), ""
	}
	removed := s.Threads[s.Active].ID

	threads := make([]Thread, 0, len(s.Threads)-1)
	threads = append(threads, s.Threads[:s.Active]...)
	threads = append(threads, s.Threads[s.Active+1:]...)
	if len(threads) == 0 {
		threads = append(threads, newThread())
	}
	return State{Threads: threads, Active: len(threads) - 1}, removed
}

// Select activates thread i, clamped to the valid range.
func Select(s State, i int) State {
	out := s.clone()
	switch {
	case i < 0:
		out.Active = 0
	case i >= len(out.Threads):
		out.Active = len(out.Threads) - 1
	default:
		out.Active = i
	}
	return out
}

// Begin appends the user turn to the active thread and opens the assistant
// placeholder.
func Begin(s State, input string) (State, domain.Turn, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return s, domain.Turn{}, ErrEmptyInput
	}
	if s.ActiveThread().Status == AwaitingResponse {
		return s, domain.Turn{}, ErrBusy
	}

	turn := domain.Turn{Role: domain.UserRole, Text: query}
	out := s.clone()
	t := &out.Threads[out.Active]
	t.Turns = appendTurn(t.Turns, turn)
	t.Partial = ""
	t.Status = AwaitingResponse
	return out, turn, nil
}

// ApplyChunk appends one streamed fragment to the thread's placeholder.
// Fragments for a thread that is no longer waiting are dropped.
func ApplyChunk(s State, threadID, text string) State {
	i := s.index(threadID)
	if i < 0 || s.Threads[i].Status != AwaitingResponse {
		return s
	}
	out := s.clone()
	out.Threads[i].Partial += text
	return out
}

// Commit turns the accumulated fragments into the assistant turn.
func Commit(s State, threadID string) (State, domain.Turn, bool) {
	i := s.index(threadID)
	if i < 0 || s.Threads[i].Status != AwaitingResponse {
		return s, domain.Turn{}, false
	}
	return settle(s, i, domain.Turn{Role: domain.AssistantRole, Text: s.Threads[i].Partial})
}

// Fail commits message as the assistant turn. Fragments already shown are
// kept in front of it.
func Fail(s State, threadID, message string) (State, domain.Turn, bool) {
	i := s.index(threadID)
	if i < 0 || s.Threads[i].Status != AwaitingResponse {
		return s, domain.Turn{}, false
	}
	text := message
	if partial := s.Threads[i].Partial; partial != "" {
		text = partial + "\n\n" + message
	}
	return settle(s, i, domain.Turn{Role: domain.AssistantRole, Text: text, Failed: true})
}

func settle(s State, i int, turn domain.Turn) (State, domain.Turn, bool) {
	out := s.clone()
	t := &out.Threads[i]
	t.Turns = appendTurn(t.Turns, turn)
	t.Partial = ""
	t.Status = Idle
	return out, turn, true
}

// appendTurn never writes into a backing array shared with an older state.
func appendTurn(turns []domain.Turn, turn domain.Turn) []domain.Turn {
	out := make([]domain.Turn, len(turns), len(turns)+1)
	copy(out, turns)
	return append(out, turn)
}
