package tui

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/router"
	"github.com/diogo/choicemate/internal/session"
)

// Message types shared by the pages
type (
	// routeMsg is delivered when the router's fragment changes
	routeMsg struct {
		route router.Route
	}
	// storageChangedMsg is delivered when another process writes the store
	storageChangedMsg struct{}
	// alertMsg asks the app to show a blocking error
	alertMsg struct {
		err error
	}
)

// Deps are the collaborators the TUI needs
type Deps struct {
	Service *session.Service
	Router  *router.Router
	Logger  *zap.Logger
	Render  render.Options

	// Changes signals external writes to the store; may be nil
	Changes <-chan struct{}

	// Copy writes text to the clipboard; defaults to the system clipboard
	Copy func(string) error
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Router == nil {
		d.Router = router.New("")
	}
	if d.Render == (render.Options{}) {
		d.Render = render.DefaultOptions()
	}
	if d.Copy == nil {
		d.Copy = clipboard.WriteAll
	}
	return d
}

// Model is the root TUI model. It owns the router subscription and shows the
// page selected by the current route.
type Model struct {
	deps   Deps
	routes chan router.Route
	unsub  func()

	route router.Route
	home  HomeModel
	conv  ConversationModel

	alert error

	width  int
	height int
}

// NewModel creates the root model at the router's current route
func NewModel(deps Deps) Model {
	deps = deps.withDefaults()

	routes := make(chan router.Route, 8)
	unsub := deps.Router.Subscribe(func(r router.Route) {
		routes <- r
	})

	m := Model{
		deps:   deps,
		routes: routes,
		unsub:  unsub,
		route:  deps.Router.Current(),
		home:   NewHomeModel(deps),
	}
	if m.route.IsConversation() {
		m.conv = NewConversationModel(deps, m.route.ConversationID)
	}
	return m
}

// Init starts the current page and the route and storage listeners
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForRoute(m.routes),
		waitForChange(m.deps.Changes),
	}
	if m.route.IsConversation() {
		cmds = append(cmds, m.conv.Init())
	} else {
		cmds = append(cmds, m.home.Init())
	}
	return tea.Batch(cmds...)
}

// waitForRoute blocks until the router reports a change
func waitForRoute(ch <-chan router.Route) tea.Cmd {
	return func() tea.Msg {
		return routeMsg{route: <-ch}
	}
}

// waitForChange blocks until the store changes on disk
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storageChangedMsg{}
	}
}

// navigate moves the router. It runs as a command because listeners push
// into the routes channel read by the event loop.
func navigate(r *router.Router, route router.Route) tea.Cmd {
	return func() tea.Msg {
		r.Navigate(route.Fragment())
		return nil
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.unsub()
			return m, tea.Quit
		}
		if m.alert != nil {
			switch msg.Type {
			case tea.KeyEnter, tea.KeyEsc:
				m.alert = nil
			}
			return m, nil
		}

	case alertMsg:
		m.deps.Logger.Warn("request failed", zap.Error(msg.err))
		m.alert = msg.err
		return m, nil

	case quitMsg:
		m.unsub()
		return m, tea.Quit

	case routeMsg:
		m.deps.Logger.Debug("route changed", zap.String("route", msg.route.String()))
		m.route = msg.route
		cmds := []tea.Cmd{waitForRoute(m.routes)}
		if m.route.IsConversation() {
			m.conv = NewConversationModel(m.deps, m.route.ConversationID)
			cmds = append(cmds, m.conv.Init(), m.resize())
		} else {
			m.home = NewHomeModel(m.deps)
			cmds = append(cmds, m.home.Init(), m.resize())
		}
		return m, tea.Batch(cmds...)

	case storageChangedMsg:
		var cmd tea.Cmd
		if m.route.IsConversation() {
			m.conv, cmd = m.conv.Update(msg)
		} else {
			m.home, cmd = m.home.Update(msg)
		}
		return m, tea.Batch(cmd, waitForChange(m.deps.Changes))
	}

	var cmd tea.Cmd
	if m.route.IsConversation() {
		m.conv, cmd = m.conv.Update(msg)
	} else {
		m.home, cmd = m.home.Update(msg)
	}
	return m, cmd
}

// resize replays the last window size to a freshly created page
func (m Model) resize() tea.Cmd {
	if m.width == 0 {
		return nil
	}
	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
	return func() tea.Msg { return size }
}

// View renders the active page, with the alert on top when one is pending
func (m Model) View() string {
	var page string
	if m.route.IsConversation() {
		page = m.conv.View()
	} else {
		page = m.home.View()
	}

	if m.alert == nil {
		return page
	}

	alert := renderAlert(m.alert, m.width)
	if m.width == 0 || m.height == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, page, alert)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, alert)
}

// Route returns the route being shown
func (m Model) Route() router.Route {
	return m.route
}

// Alert returns the pending blocking error, if any
func (m Model) Alert() error {
	return m.alert
}

// quitMsg asks the app to exit
type quitMsg struct{}

func quit() tea.Msg { return quitMsg{} }

// Run starts the TUI at the router's current route
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(deps)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
