package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/ui/styles"
)

const (
	inputHeight          = 3
	chromeHeight         = inputHeight + 3 // header + separator + status line
	defaultThrottleDelay = 50 * time.Millisecond
	footerHint           = "Enter Send | Ctrl+N New | Ctrl+O Conversations | Ctrl+Y Copy | Ctrl+C Quit"
)

// Model is the Bubble Tea application state for the chat screen.
type Model struct {
	session *chat.Session
	simName string

	input      textarea.Model
	transcript viewport.Model
	picker     conversationPicker

	width  int
	height int
	ready  bool

	// Streaming turn state
	streaming  bool
	events     <-chan chat.Event
	cancelTurn context.CancelFunc

	// Viewport refreshes are batched while deltas arrive quickly.
	streamThrottleDelay   time.Duration
	streamThrottlePending bool
	transcriptDirty       bool

	errBanner string
	notice    string
}

// NewModel creates the chat screen bound to a session.
func NewModel(session *chat.Session, simName string) Model {
	input := textarea.New()
	input.Placeholder = "Type your message..."
	input.SetHeight(inputHeight)
	input.Focus()

	return Model{
		session:             session,
		simName:             simName,
		input:               input,
		transcript:          viewport.New(),
		streamThrottleDelay: defaultThrottleDelay,
	}
}

// Init initializes the model (Bubble Tea lifecycle method).
func (m Model) Init() tea.Cmd {
	return nil
}

// Messages produced by commands.

type streamEventMsg struct {
	ev chat.Event
	ok bool
}

type streamThrottleFlushMsg struct{}

type conversationsMsg struct {
	conversations []chat.Conversation
	err           error
}

type sessionOpMsg struct {
	err error
}

func awaitStream(ch <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return streamEventMsg{ev: ev, ok: ok}
	}
}

func (m Model) loadConversations() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		convs, err := session.Conversations(context.Background())
		return conversationsMsg{conversations: convs, err: err}
	}
}

func (m Model) newConversation() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionOpMsg{err: session.NewConversation(context.Background())}
	}
}

func (m Model) switchConversation(id string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionOpMsg{err: session.Switch(context.Background(), id)}
	}
}

func (m Model) deleteConversation(id string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionOpMsg{err: session.Delete(context.Background(), id)}
	}
}

// Update handles messages and updates model state (Bubble Tea lifecycle
// method).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.transcript.SetWidth(msg.Width)
		m.transcript.SetHeight(msg.Height - chromeHeight)
		m.input.SetWidth(msg.Width)
		m.refreshTranscript()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case streamThrottleFlushMsg:
		m.streamThrottlePending = false
		if m.transcriptDirty {
			m.refreshTranscript()
		}
		return m, nil

	case conversationsMsg:
		if msg.err != nil {
			m.errBanner = msg.err.Error()
			return m, nil
		}
		m.picker.show(msg.conversations)
		return m, nil

	case sessionOpMsg:
		if msg.err != nil {
			m.errBanner = msg.err.Error()
		} else {
			m.errBanner = ""
			m.notice = ""
		}
		m.refreshTranscript()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.picker.visible {
		return m.handlePickerKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.streaming && m.cancelTurn != nil {
			m.cancelTurn()
			return m, nil
		}
		return m, tea.Quit

	case "esc":
		if m.streaming && m.cancelTurn != nil {
			m.cancelTurn()
		}
		return m, nil

	case "enter":
		return m.submitInput()

	case "ctrl+n":
		if m.streaming {
			return m, nil
		}
		return m, m.newConversation()

	case "ctrl+o":
		if m.streaming {
			return m, nil
		}
		return m, m.loadConversations()

	case "ctrl+y":
		return m, m.copyLastReply()

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	// Everything else goes to the input; it stays read-only while a reply
	// is streaming.
	if m.streaming {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.picker.hide()
		return m, nil
	case "up":
		m.picker.moveUp()
		return m, nil
	case "down":
		m.picker.moveDown()
		return m, nil
	case "enter":
		conv, ok := m.picker.current()
		if !ok {
			return m, nil
		}
		m.picker.hide()
		return m, m.switchConversation(conv.ID)
	case "ctrl+d":
		conv, ok := m.picker.current()
		if !ok {
			return m, nil
		}
		m.picker.remove()
		return m, m.deleteConversation(conv.ID)
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	if m.streaming {
		m.errBanner = "wait for the current reply to finish"
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.session.Send(ctx, m.input.Value())
	if err != nil {
		cancel()
		if errors.Is(err, chat.ErrEmptyMessage) {
			return m, nil
		}
		m.errBanner = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.events = events
	m.cancelTurn = cancel
	m.errBanner = ""
	m.notice = ""
	m.refreshTranscript()
	return m, awaitStream(events)
}

func (m Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// Channel closed; the turn is over.
		m.finishTurn()
		m.refreshTranscript()
		return m, nil
	}

	ev := msg.ev
	var cmds []tea.Cmd
	cmds = append(cmds, awaitStream(m.events))

	if ev.Notice != "" {
		m.notice = ev.Notice
	}
	if ev.Delta != "" {
		m.transcriptDirty = true
		if !m.streamThrottlePending {
			m.streamThrottlePending = true
			m.refreshTranscript()
			m.transcriptDirty = false
			delay := m.streamThrottleDelay
			cmds = append(cmds, tea.Tick(delay, func(time.Time) tea.Msg {
				return streamThrottleFlushMsg{}
			}))
		}
	}
	if ev.Err != nil {
		m.errBanner = ev.Err.Error()
	}
	if ev.Done {
		m.finishTurn()
		m.refreshTranscript()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) finishTurn() {
	m.streaming = false
	m.streamThrottlePending = false
	m.transcriptDirty = false
	if m.cancelTurn != nil {
		m.cancelTurn()
		m.cancelTurn = nil
	}
}

func (m *Model) refreshTranscript() {
	if m.width <= 0 {
		return
	}
	m.transcript.SetContent(renderTranscript(m.session.Messages(), m.simName, m.width))
	m.transcript.GotoBottom()
}

func (m Model) copyLastReply() tea.Cmd {
	msgs := m.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleAssistant {
			text := msgs[i].Content
			return func() tea.Msg {
				_, _ = fmt.Fprint(os.Stdout, osc52.New(text))
				return nil
			}
		}
	}
	return nil
}

// View renders the UI (Bubble Tea lifecycle method).
func (m Model) View() tea.View {
	view := tea.NewView(m.viewContent())
	view.AltScreen = true
	return view
}

func (m Model) viewContent() string {
	if !m.ready {
		return "Initializing..."
	}

	header := styles.TitleStyle.Render(m.simName)
	if m.streaming {
		header += styles.MutedStyle.Render("  streaming...")
	}

	body := m.transcript.View()
	if m.picker.visible {
		body = m.picker.view(m.width)
	}

	status := styles.MutedStyle.Render(truncateToWidth(footerHint, m.width))
	if m.notice != "" {
		status = styles.NoticeStyle.Render(truncateToWidth(m.notice, m.width))
	}
	if m.errBanner != "" {
		status = styles.ErrorStyle.Render(truncateToWidth(m.errBanner, m.width))
	}

	sections := []string{
		header,
		body,
		strings.Repeat("─", max(m.width, 1)),
		m.input.View(),
		status,
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
