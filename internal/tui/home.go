package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/router"
	"github.com/diogo/choicemate/internal/session"
)

type (
	conversationsLoadedMsg struct {
		conversations []*history.Conversation
		err           error
	}
	conversationCreatedMsg struct {
		conv *history.Conversation
		err  error
	}
	conversationDeletedMsg struct {
		id  string
		err error
	}
)

type homeMode int

const (
	homeList homeMode = iota
	homeNew
	homeConfirmDelete
)

// HomeModel lists stored conversations and hosts the new-conversation form
type HomeModel struct {
	deps Deps

	conversations []*history.Conversation
	cursor        int
	loading       bool
	err           error
	feedback      string

	mode       homeMode
	problem    textinput.Model
	options    textarea.Model
	focusIndex int
	formErr    string
	submitting bool
	spinner    spinner.Model

	width  int
	height int
}

// NewHomeModel creates the home page
func NewHomeModel(deps Deps) HomeModel {
	problem := textinput.New()
	problem.Placeholder = "What are you deciding?"
	problem.CharLimit = 500
	problem.Prompt = ""

	options := textarea.New()
	options.Placeholder = "One option per line"
	options.ShowLineNumbers = false
	options.CharLimit = 2000
	options.SetHeight(5)
	options.FocusedStyle.CursorLine = lipgloss.NewStyle()
	options.BlurredStyle = options.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return HomeModel{
		deps:    deps,
		loading: true,
		problem: problem,
		options: options,
		spinner: s,
	}
}

// Init loads the conversation list
func (m HomeModel) Init() tea.Cmd {
	return m.loadConversations()
}

func (m HomeModel) loadConversations() tea.Cmd {
	store := m.deps.Service.Store()
	return func() tea.Msg {
		list, err := store.List()
		return conversationsLoadedMsg{conversations: list, err: err}
	}
}

// Update handles messages and updates the model
func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.options.SetWidth(m.formWidth())
		m.problem.Width = m.formWidth()
		return m, nil

	case conversationsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.conversations = msg.conversations
		}
		if m.cursor >= len(m.conversations) {
			m.cursor = max(0, len(m.conversations)-1)
		}
		return m, nil

	case storageChangedMsg:
		if m.submitting {
			return m, nil
		}
		return m, m.loadConversations()

	case conversationCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			return m.handleError(msg.err)
		}
		m.deps.Logger.Info("conversation created", zap.String("id", msg.conv.ID))
		return m, navigate(m.deps.Router, router.Conversation(msg.conv.ID))

	case conversationDeletedMsg:
		m.mode = homeList
		if msg.err != nil {
			return m, func() tea.Msg { return alertMsg{err: msg.err} }
		}
		m.feedback = "Deleted conversation"
		return m, m.loadConversations()

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case homeNew:
			return m.updateForm(msg)
		case homeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m HomeModel) updateList(msg tea.KeyMsg) (HomeModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.feedback = ""

	switch msg.String() {
	case "esc", "q":
		return m, quit

	case "up", "k":
		if len(m.conversations) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.conversations) - 1
			}
		}

	case "down", "j":
		if len(m.conversations) > 0 {
			m.cursor++
			if m.cursor >= len(m.conversations) {
				m.cursor = 0
			}
		}

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		m.cursor = max(0, len(m.conversations)-1)

	case "enter":
		if conv := m.Selected(); conv != nil {
			return m, navigate(m.deps.Router, router.Conversation(conv.ID))
		}

	case "n":
		return m.openForm()

	case "d":
		if m.Selected() != nil {
			m.mode = homeConfirmDelete
		}

	case "r":
		m.loading = true
		return m, m.loadConversations()
	}

	return m, nil
}

func (m HomeModel) updateConfirm(msg tea.KeyMsg) (HomeModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		conv := m.Selected()
		if conv == nil {
			m.mode = homeList
			return m, nil
		}
		store := m.deps.Service.Store()
		id := conv.ID
		return m, func() tea.Msg {
			return conversationDeletedMsg{id: id, err: store.Delete(id)}
		}
	default:
		m.mode = homeList
	}
	return m, nil
}

func (m HomeModel) openForm() (HomeModel, tea.Cmd) {
	m.mode = homeNew
	m.formErr = ""
	m.focusIndex = 0
	m.problem.Reset()
	m.options.Reset()
	m.options.Blur()
	return m, m.problem.Focus()
}

func (m HomeModel) updateForm(msg tea.KeyMsg) (HomeModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.mode = homeList
		m.problem.Blur()
		m.options.Blur()
		return m, nil

	case "tab", "shift+tab":
		return m.toggleFocus()

	case "enter":
		if m.focusIndex == 0 {
			return m.toggleFocus()
		}

	case "ctrl+s":
		return m.submit()
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.problem, cmd = m.problem.Update(msg)
	} else {
		m.options, cmd = m.options.Update(msg)
	}
	return m, cmd
}

func (m HomeModel) toggleFocus() (HomeModel, tea.Cmd) {
	if m.focusIndex == 0 {
		m.focusIndex = 1
		m.problem.Blur()
		return m, m.options.Focus()
	}
	m.focusIndex = 0
	m.options.Blur()
	return m, m.problem.Focus()
}

// submit validates the form locally before creating the conversation
func (m HomeModel) submit() (HomeModel, tea.Cmd) {
	problem, options, err := forms.ValidateNew(m.problem.Value(), strings.Split(m.options.Value(), "\n"))
	if err != nil {
		m.formErr = err.Error()
		return m, nil
	}

	m.formErr = ""
	m.submitting = true
	svc := m.deps.Service
	create := func() tea.Msg {
		conv, err := svc.Create(context.Background(), problem, options)
		return conversationCreatedMsg{conv: conv, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, create)
}

func (m HomeModel) handleError(err error) (HomeModel, tea.Cmd) {
	if session.Classify(err) == session.SeverityInline {
		m.formErr = err.Error()
		return m, nil
	}
	return m, func() tea.Msg { return alertMsg{err: err} }
}

// Selected returns the conversation under the cursor
func (m HomeModel) Selected() *history.Conversation {
	if m.cursor < 0 || m.cursor >= len(m.conversations) {
		return nil
	}
	return m.conversations[m.cursor]
}

func (m HomeModel) contentWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (m HomeModel) formWidth() int {
	return m.contentWidth() - 10
}

// View renders the home page
func (m HomeModel) View() string {
	width := m.contentWidth()

	header := headerStyle.Width(width).Render(lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("◆ ChoiceMate"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render("decide with a little structure"),
	))

	var body string
	var shortcuts []shortcut
	switch m.mode {
	case homeNew:
		body = m.renderForm(width)
		shortcuts = []shortcut{{"Tab", "Next field"}, {"Ctrl+S", "Start"}, {"Esc", "Cancel"}}
	default:
		body = m.renderList(width)
		shortcuts = []shortcut{{"↑↓", "Navigate"}, {"Enter", "Open"}, {"n", "New"}, {"d", "Delete"}, {"q", "Quit"}}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, renderStatusBar(width, shortcuts))
}

func (m HomeModel) renderList(width int) string {
	if m.loading {
		return loadingStyle.Render("  Loading conversations...")
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	lines := []string{sectionTitleStyle.Render("Conversations"), ""}

	if len(m.conversations) == 0 {
		lines = append(lines, hintStyle.Render("No conversations yet. Press n to start one."))
	} else {
		maxItems := max(5, m.height-12)
		offset := 0
		if m.cursor >= maxItems {
			offset = m.cursor - maxItems + 1
		}
		end := min(offset+maxItems, len(m.conversations))

		if offset > 0 {
			lines = append(lines, hintStyle.Render("  ..."))
		}
		for i := offset; i < end; i++ {
			lines = append(lines, m.renderItem(i, width-8))
		}
		if end < len(m.conversations) {
			lines = append(lines, hintStyle.Render("  ..."))
		}
	}

	if m.mode == homeConfirmDelete {
		if conv := m.Selected(); conv != nil {
			lines = append(lines, "", inlineErrorStyle.Render(
				fmt.Sprintf("Delete %q? (y/N)", history.Truncate(conv.Problem, 40))))
		}
	}
	if m.feedback != "" {
		lines = append(lines, "", feedbackStyle.Render(m.feedback))
	}

	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m HomeModel) renderItem(index, width int) string {
	conv := m.conversations[index]

	cursor := "  "
	style := itemStyle
	if index == m.cursor {
		cursor = cursorStyle.Render("> ")
		style = itemSelectedStyle
	}

	tag := progressTagStyle.Render("[" + conv.Status() + "]")
	if conv.HasDecision() {
		tag = decidedTagStyle.Render("[" + conv.Status() + "]")
	}
	when := timeStyle.Render(" - " + history.FormatRelativeTime(conv.Updated()))

	problemWidth := width - lipgloss.Width(tag) - lipgloss.Width(when) - 4
	if problemWidth < 10 {
		problemWidth = 10
	}

	return fmt.Sprintf("%s%s %s%s", cursor, style.Render(history.Truncate(conv.Problem, problemWidth)), tag, when)
}

func (m HomeModel) renderForm(width int) string {
	problemField := fieldStyle
	optionsField := fieldStyle
	if m.focusIndex == 0 {
		problemField = fieldFocusedStyle
	} else {
		optionsField = fieldFocusedStyle
	}

	lines := []string{
		sectionTitleStyle.Render("New decision"),
		"",
		inputLabelStyle.Render("Problem"),
		problemField.Render(m.problem.View()),
		"",
		inputLabelStyle.Render("Options"),
		optionsField.Render(m.options.View()),
		hintStyle.Render(fmt.Sprintf("At least %d options. Blank lines are ignored.", forms.MinOptions)),
	}

	if m.formErr != "" {
		lines = append(lines, "", inlineErrorStyle.Render("⚠ "+m.formErr))
	}
	if m.submitting {
		lines = append(lines, "", m.spinner.View()+loadingStyle.Render(" Asking the first question..."))
	}

	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
