// Package ui is the terminal chat client. It keeps several conversation
// threads, sends each query to the relay and renders answers as they stream
// in.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/relayclient"
	"github.com/vasifvortex/azercell-project3/adapters/threadstore"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/session"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

// Relay is the part of the relay client the UI talks to.
type Relay interface {
	Ask(ctx context.Context, req domain.ChatRequest) (string, error)
	Stream(ctx context.Context, req domain.ChatRequest, onChunk func(string)) error
}

type Options struct {
	// Store persists committed turns. Nil keeps history in memory only.
	Store  threadstore.Store
	System string
	Stream bool
}

type Model struct {
	ctx    context.Context
	relay  Relay
	opts   Options
	state  session.State
	status string

	// pending holds the event channel of every in-flight streamed request.
	pending map[string]chan tea.Msg

	input    textarea.Model
	viewport viewport.Model
	help     help.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
}

// New builds the model around an already restored session.
func New(ctx context.Context, relay Relay, state session.State, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	m := Model{
		ctx:      ctx,
		relay:    relay,
		opts:     opts,
		state:    state,
		pending:  make(map[string]chan tea.Msg),
		input:    ta,
		viewport: viewport.New(80, 20),
		help:     help.New(),
	}
	m.resize(80, 24)
	return m
}

// Restore loads every stored thread. An empty store yields a fresh session.
func Restore(ctx context.Context, store threadstore.Store) (session.State, error) {
	if store == nil {
		return session.New(), nil
	}
	ids, err := store.List(ctx)
	if err != nil {
		return session.State{}, err
	}
	threads := make([]session.Thread, 0, len(ids))
	for _, id := range ids {
		turns, err := store.Load(ctx, id)
		if err != nil {
			return session.State{}, err
		}
		threads = append(threads, session.Thread{ID: id, Turns: turns})
	}
	return session.Restore(threads), nil
}

// State exposes the session for callers that inspect the model.
func (m Model) State() session.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Send):
			return m.send()
		case key.Matches(msg, keys.New):
			m.state = session.NewThread(m.state)
			m.status = ""
			m.refresh()
			return m, nil
		case key.Matches(msg, keys.Delete):
			return m.deleteActive()
		case key.Matches(msg, keys.Prev):
			m.state = session.Select(m.state, m.state.Active-1)
			m.refresh()
			return m, nil
		case key.Matches(msg, keys.Next):
			m.state = session.Select(m.state, m.state.Active+1)
			m.refresh()
			return m, nil
		}

	case ChunkMsg:
		m.state = session.ApplyChunk(m.state, msg.ThreadID, msg.Text)
		m.refresh()
		return m, m.waitFor(msg.ThreadID)

	case DoneMsg:
		delete(m.pending, msg.ThreadID)
		var turn domain.Turn
		var ok bool
		m.state, turn, ok = session.Commit(m.state, msg.ThreadID)
		m.refresh()
		return m, m.persist(ok, msg.ThreadID, turn)

	case AnswerMsg:
		m.state = session.ApplyChunk(m.state, msg.ThreadID, msg.Text)
		var turn domain.Turn
		var ok bool
		m.state, turn, ok = session.Commit(m.state, msg.ThreadID)
		m.refresh()
		return m, m.persist(ok, msg.ThreadID, turn)

	case FailedMsg:
		delete(m.pending, msg.ThreadID)
		log.With(zap.String("thread_id", msg.ThreadID)).Warn("relay request failed", zap.Error(msg.Err))
		var turn domain.Turn
		var ok bool
		m.state, turn, ok = session.Fail(m.state, msg.ThreadID, relayclient.Describe(msg.Err))
		m.refresh()
		return m, m.persist(ok, msg.ThreadID, turn)

	case persistErrMsg:
		m.status = "history not saved: " + msg.err.Error()
		if msg.streaming {
			return m, m.waitFor(msg.threadID)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) send() (tea.Model, tea.Cmd) {
	next, turn, err := session.Begin(m.state, m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.status = "waiting for the current answer..."
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	}

	m.state = next
	m.status = ""
	m.input.Reset()
	m.refresh()

	threadID := m.state.ActiveThread().ID
	req := domain.ChatRequest{Query: turn.Text, System: m.opts.System}
	return m, m.request(threadID, turn, req)
}

func (m Model) deleteActive() (tea.Model, tea.Cmd) {
	var removed string
	m.state, removed = session.DeleteActive(m.state)
	m.status = ""
	m.refresh()
	if m.opts.Store == nil || removed == "" {
		return m, nil
	}
	store, ctx := m.opts.Store, m.ctx
	return m, func() tea.Msg {
		if err := store.Delete(ctx, removed); err != nil {
			return persistErrMsg{err: err}
		}
		return nil
	}
}

// request saves the user turn and starts one relay call. Streamed fragments
// arrive on a channel that waitFor drains one message at a time.
func (m Model) request(threadID string, turn domain.Turn, req domain.ChatRequest) tea.Cmd {
	relay, ctx, save := m.relay, m.ctx, m.saver()
	if !m.opts.Stream {
		return func() tea.Msg {
			if err := save(threadID, turn); err != nil {
				log.With(zap.String("thread_id", threadID)).Warn("saving turn failed", zap.Error(err))
			}
			text, err := relay.Ask(ctx, req)
			if err != nil {
				return FailedMsg{ThreadID: threadID, Err: err}
			}
			return AnswerMsg{ThreadID: threadID, Text: text}
		}
	}

	ch := make(chan tea.Msg, 64)
	m.pending[threadID] = ch
	go func() {
		defer close(ch)
		if err := save(threadID, turn); err != nil {
			ch <- persistErrMsg{threadID: threadID, err: err, streaming: true}
		}
		err := relay.Stream(ctx, req, func(text string) {
			ch <- ChunkMsg{ThreadID: threadID, Text: text}
		})
		if err != nil {
			ch <- FailedMsg{ThreadID: threadID, Err: err}
			return
		}
		ch <- DoneMsg{ThreadID: threadID}
	}()
	return m.waitFor(threadID)
}

func (m Model) waitFor(threadID string) tea.Cmd {
	ch, ok := m.pending[threadID]
	if !ok {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) saver() func(string, domain.Turn) error {
	store, ctx := m.opts.Store, m.ctx
	return func(threadID string, turn domain.Turn) error {
		if store == nil {
			return nil
		}
		return store.Append(ctx, threadID, turn)
	}
}

func (m Model) persist(ok bool, threadID string, turn domain.Turn) tea.Cmd {
	if !ok || m.opts.Store == nil {
		return nil
	}
	save := m.saver()
	return func() tea.Msg {
		if err := save(threadID, turn); err != nil {
			return persistErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width)
	m.help.Width = width

	// title, tabs, input, status and help lines
	vh := height - m.input.Height() - 6
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh

	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	if r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(wrap)); err == nil {
		m.renderer = r
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderThread(m.state.ActiveThread()))
	m.viewport.GotoBottom()
}
