package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/session"
)

const title = "One Piece Chatbot"

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.state.Threads))
	for i, t := range m.state.Threads {
		label := m.state.Title(i)
		if t.Status == session.AwaitingResponse {
			label += " …"
		}
		if i == m.state.Active {
			tabs[i] = activeTab.Render(label)
		} else {
			tabs[i] = inactiveTab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderThread(t session.Thread) string {
	if len(t.Turns) == 0 && t.Status == session.Idle {
		return statusStyle.Render("No messages yet.")
	}

	parts := make([]string, 0, len(t.Turns)+1)
	for _, turn := range t.Turns {
		parts = append(parts, m.renderTurn(turn))
	}
	if t.Status == session.AwaitingResponse {
		text := t.Partial
		if text == "" {
			text = "..."
		}
		parts = append(parts, botBubble.Render(wrap("Bot: "+text, m.width-4)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTurn(turn domain.Turn) string {
	width := m.width - 4
	if turn.Role == domain.UserRole {
		return userBubble.MaxWidth(m.width).Render(wrap("You: "+turn.Text, width))
	}
	if turn.Failed {
		return errorBubble.MaxWidth(m.width).Render(wrap("Bot: "+turn.Text, width))
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(turn.Text); err == nil {
			return botFrame.Render(botBubble.Render("Bot:") + strings.TrimRight(out, "\n"))
		}
	}
	return botBubble.MaxWidth(m.width).Render(wrap("Bot: "+turn.Text, width))
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
