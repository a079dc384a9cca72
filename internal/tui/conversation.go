package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/router"
	"github.com/diogo/choicemate/internal/session"
)

type (
	conversationLoadedMsg struct {
		conv  *history.Conversation
		found bool
		err   error
	}
	conversationUpdatedMsg struct {
		conv *history.Conversation
		err  error
	}
	explainedMsg struct {
		resp *models.ExplainResponse
		err  error
	}
	copiedMsg struct {
		err error
	}
)

// ConversationModel is the conversation page: the form for the current round,
// or the decision and its explanation once the questionnaire is done.
type ConversationModel struct {
	deps Deps
	id   string

	conv     *history.Conversation
	loading  bool
	notFound bool
	err      error
	stage    session.Stage

	weights weightsForm
	ratings ratingsForm

	viewport    viewport.Model
	explanation *models.ExplainResponse
	showRaw     bool

	inlineErr string
	feedback  string
	busy      bool
	busyLabel string
	spinner   spinner.Model

	width  int
	height int
	ready  bool
}

// NewConversationModel creates the page for conversation id
func NewConversationModel(deps Deps, id string) ConversationModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return ConversationModel{
		deps:     deps,
		id:       id,
		loading:  true,
		spinner:  s,
		viewport: viewport.New(80, 20),
	}
}

// Init loads the conversation from the store
func (m ConversationModel) Init() tea.Cmd {
	return m.load()
}

func (m ConversationModel) load() tea.Cmd {
	store := m.deps.Service.Store()
	id := m.id
	return func() tea.Msg {
		conv, found, err := store.Get(id)
		return conversationLoadedMsg{conv: conv, found: found, err: err}
	}
}

// Update handles messages and updates the model
func (m ConversationModel) Update(msg tea.Msg) (ConversationModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = m.contentWidth() - 4
		m.viewport.Height = max(5, m.height-10)
		m.refreshViewport()
		return m, nil

	case conversationLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.notFound = msg.err == nil && !msg.found
		if !msg.found {
			return m, nil
		}
		// keep what the user has typed unless another writer moved the conversation on
		if sameRevision(m.conv, msg.conv) {
			m.conv = msg.conv
			return m, nil
		}
		m.setConversation(msg.conv)
		return m, nil

	case storageChangedMsg:
		if m.busy {
			return m, nil
		}
		return m, m.load()

	case conversationUpdatedMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleError(msg.err)
		}
		m.inlineErr = ""
		m.setConversation(msg.conv)
		return m, nil

	case explainedMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleError(msg.err)
		}
		m.explanation = msg.resp
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.feedback = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.feedback = "Explanation copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ConversationModel) handleKey(msg tea.KeyMsg) (ConversationModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.feedback = ""

	if msg.Type == tea.KeyEsc {
		return m, navigate(m.deps.Router, router.Home)
	}
	if m.loading || m.conv == nil {
		if msg.String() == "q" {
			return m, quit
		}
		return m, nil
	}

	switch m.stage {
	case session.StageWeights:
		if msg.Type == tea.KeyEnter {
			return m.submitWeights()
		}
		m.weights = m.weights.update(msg)
		return m, nil

	case session.StageRatings:
		if msg.Type == tea.KeyEnter || msg.String() == "ctrl+s" {
			return m.submitRatings()
		}
		var cmd tea.Cmd
		m.ratings, cmd = m.ratings.update(msg)
		return m, cmd

	case session.StageDecision:
		switch msg.String() {
		case "e":
			return m.explain()
		case "r":
			m.showRaw = !m.showRaw
			m.refreshViewport()
			return m, nil
		case "c":
			if m.explanation == nil {
				m.feedback = "Nothing to copy yet. Press e to explain the decision."
				return m, nil
			}
			text := render.ExplanationText(m.explanation)
			copyFn := m.deps.Copy
			return m, func() tea.Msg { return copiedMsg{err: copyFn(text)} }
		case "q":
			return m, quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if msg.String() == "q" {
		return m, quit
	}
	return m, nil
}

func (m *ConversationModel) setConversation(conv *history.Conversation) {
	m.conv = conv
	m.stage = session.StageOf(conv)

	q := session.CurrentQuestion(conv.Messages)
	switch m.stage {
	case session.StageWeights:
		m.weights = newWeightsForm(q, forms.StoredWeights(conv.State))
	case session.StageRatings:
		m.ratings = newRatingsForm(q, forms.StoredRatings(conv.State))
	}
	m.refreshViewport()
}

// sameRevision reports whether next is the revision cur already shows
func sameRevision(cur, next *history.Conversation) bool {
	if cur == nil || next == nil {
		return false
	}
	return cur.ID == next.ID &&
		cur.UpdatedAt == next.UpdatedAt &&
		cur.Round == next.Round &&
		session.StageOf(cur) == session.StageOf(next)
}

func (m ConversationModel) submitWeights() (ConversationModel, tea.Cmd) {
	if err := m.weights.validate(); err != nil {
		m.inlineErr = err.Error()
		return m, nil
	}
	weights := m.weights.value()
	return m.request("Sending weights...", func(ctx context.Context, svc *session.Service, id string) tea.Msg {
		conv, err := svc.SubmitWeights(ctx, id, weights)
		return conversationUpdatedMsg{conv: conv, err: err}
	})
}

func (m ConversationModel) submitRatings() (ConversationModel, tea.Cmd) {
	ratings, err := m.ratings.parse()
	if err != nil {
		m.inlineErr = err.Error()
		var ve *apierrors.ValidationError
		if errors.As(err, &ve) {
			var cmd tea.Cmd
			m.ratings, cmd = m.ratings.focusField(ve.Field)
			return m, cmd
		}
		return m, nil
	}
	return m.request("Computing the decision...", func(ctx context.Context, svc *session.Service, id string) tea.Msg {
		conv, err := svc.SubmitRatings(ctx, id, ratings)
		return conversationUpdatedMsg{conv: conv, err: err}
	})
}

func (m ConversationModel) explain() (ConversationModel, tea.Cmd) {
	return m.request("Writing an explanation...", func(ctx context.Context, svc *session.Service, id string) tea.Msg {
		resp, err := svc.Explain(ctx, id)
		return explainedMsg{resp: resp, err: err}
	})
}

// request runs one backend call; only one can be in flight at a time
func (m ConversationModel) request(label string, fn func(context.Context, *session.Service, string) tea.Msg) (ConversationModel, tea.Cmd) {
	m.busy = true
	m.busyLabel = label
	m.inlineErr = ""

	svc := m.deps.Service
	id := m.id
	m.deps.Logger.Debug("request started", zap.String("id", id), zap.String("stage", m.stage.String()))
	call := func() tea.Msg {
		return fn(context.Background(), svc, id)
	}
	return m, tea.Batch(m.spinner.Tick, call)
}

func (m ConversationModel) handleError(err error) (ConversationModel, tea.Cmd) {
	if session.Classify(err) == session.SeverityInline {
		m.inlineErr = err.Error()
		return m, nil
	}
	return m, func() tea.Msg { return alertMsg{err: err} }
}

func (m *ConversationModel) refreshViewport() {
	if m.conv == nil || m.stage != session.StageDecision {
		return
	}
	var sb strings.Builder
	sb.WriteString(render.ConversationMarkdown(m.conv, m.showRaw))
	if m.explanation != nil {
		sb.WriteString("\n")
		sb.WriteString(render.ExplanationMarkdown(m.explanation))
	}
	opts := m.deps.Render.WithWidth(m.viewport.Width - 2)
	m.viewport.SetContent(render.MarkdownOrPlain(sb.String(), opts))
}

func (m ConversationModel) contentWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

// Conversation returns the loaded conversation
func (m ConversationModel) Conversation() *history.Conversation {
	return m.conv
}

// Stage returns what the page currently offers
func (m ConversationModel) Stage() session.Stage {
	return m.stage
}

// View renders the conversation page
func (m ConversationModel) View() string {
	width := m.contentWidth()

	switch {
	case m.loading:
		return loadingStyle.Render("  Loading conversation...")
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	case m.notFound:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(fmt.Sprintf("  Conversation %s not found", m.id)),
			hintStyle.Render("  Press Esc to go back"),
		)
	}

	sections := []string{m.renderHeader(width)}

	var shortcuts []shortcut
	switch m.stage {
	case session.StageWeights:
		sections = append(sections, m.weights.view(width))
		shortcuts = []shortcut{{"↑↓", "Dimension"}, {"←→", "Adjust"}, {"Enter", "Continue"}, {"Esc", "Back"}}
	case session.StageRatings:
		if panel := m.renderFacts(width); panel != "" {
			sections = append(sections, panel)
		}
		sections = append(sections, m.ratings.view(width))
		shortcuts = []shortcut{{"Tab", "Next cell"}, {"Enter", "Get decision"}, {"Esc", "Back"}}
	case session.StageDecision:
		sections = append(sections, panelStyle.Width(width).Render(m.viewport.View()))
		shortcuts = []shortcut{{"e", "Explain"}, {"c", "Copy"}, {"r", "Raw JSON"}, {"↑↓", "Scroll"}, {"Esc", "Back"}}
	default:
		sections = append(sections, panelStyle.Width(width).Render(
			hintStyle.Render("Waiting for the next question from the backend.")))
		shortcuts = []shortcut{{"Esc", "Back"}, {"q", "Quit"}}
	}

	if m.inlineErr != "" {
		sections = append(sections, inlineErrorStyle.Render("⚠ "+m.inlineErr))
	}
	if m.busy {
		sections = append(sections, m.spinner.View()+loadingStyle.Render(" "+m.busyLabel))
	}
	if m.feedback != "" {
		sections = append(sections, feedbackStyle.Render(m.feedback))
	}

	sections = append(sections, renderStatusBar(width, shortcuts))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConversationModel) renderHeader(width int) string {
	status := progressTagStyle.Render(m.conv.Status())
	if m.conv.HasDecision() {
		status = decidedTagStyle.Render(m.conv.Status())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center,
			titleStyle.Render(history.Truncate(m.conv.Problem, width-30)),
			hintStyle.Render("  •  "),
			status,
		),
		subtitleStyle.Render(strings.Join(m.conv.Options, " / ")),
	)
	return headerStyle.Width(width).Render(content)
}

// renderFacts shows what the backend assumed or filled in, when anything
func (m ConversationModel) renderFacts(width int) string {
	if len(m.conv.Assumptions) == 0 && len(m.conv.FactsCompletion) == 0 {
		return ""
	}

	lines := []string{sectionTitleStyle.Render("Assumptions")}
	for _, a := range m.conv.Assumptions {
		lines = append(lines, itemStyle.Render("• "+a))
	}
	for _, f := range m.conv.FactsCompletion {
		line := fmt.Sprintf("%s · %s = %s (%s)", f.Option, f.Dimension, models.FormatNumber(f.FilledValue), f.Source)
		if f.IsDefault() {
			lines = append(lines, filledStyle.Render(line))
		} else {
			lines = append(lines, itemStyle.Render(line))
		}
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
