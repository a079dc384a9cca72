// Package tui provides the terminal user interface for choicemate.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/render"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorBest      lipgloss.Color
	colorFilled    lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	panelStyle        lipgloss.Style
	sectionTitleStyle lipgloss.Style

	// List items
	itemStyle         lipgloss.Style
	itemSelectedStyle lipgloss.Style
	cursorStyle       lipgloss.Style
	decidedTagStyle   lipgloss.Style
	progressTagStyle  lipgloss.Style
	timeStyle         lipgloss.Style

	// Forms
	inputLabelStyle   lipgloss.Style
	fieldStyle        lipgloss.Style
	fieldFocusedStyle lipgloss.Style
	sliderFullStyle   lipgloss.Style
	sliderEmptyStyle  lipgloss.Style
	inlineErrorStyle  lipgloss.Style

	bestStyle   lipgloss.Style
	filledStyle lipgloss.Style

	loadingStyle lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	errorStyle      lipgloss.Style
	alertStyle      lipgloss.Style
	alertTitleStyle lipgloss.Style
	feedbackStyle   lipgloss.Style
)

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorBest = theme.Best
	colorFilled = theme.Filled
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2).
		MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2)

	sectionTitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	itemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	itemSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	cursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	decidedTagStyle = lipgloss.NewStyle().
		Foreground(colorBest)

	progressTagStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	timeStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	fieldStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorTextMute).
		Padding(0, 1)

	fieldFocusedStyle = fieldStyle.
		BorderForeground(colorAccent)

	sliderFullStyle = lipgloss.NewStyle().
		Foreground(colorPrimary)

	sliderEmptyStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	inlineErrorStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	bestStyle = lipgloss.NewStyle().
		Foreground(colorBest).
		Bold(true)

	filledStyle = lipgloss.NewStyle().
		Foreground(colorFilled)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		MarginTop(1)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	alertStyle = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorError).
		Background(colorSurface).
		Foreground(colorText).
		Padding(1, 3)

	alertTitleStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true).
		MarginBottom(1)

	feedbackStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)
}

// shortcut is one key hint in a status bar
type shortcut struct {
	key  string
	desc string
}

// renderStatusBar renders the bottom status bar with shortcuts
func renderStatusBar(width int, shortcuts []shortcut) string {
	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// FormatError returns a styled error message with the API error details
// (status, endpoint and response payload) when present.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if payload := apierrors.GetPayload(err); payload != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(payload, "\n", "\n  "))))
	} else {
		switch {
		case apierrors.IsNotConfigured(err):
			sb.WriteString(dimStyle.Render("\n  Hint: set it with 'choicemate config set api_base_url <url>'"))
		case apierrors.IsNetworkError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: Check that the backend is running and reachable"))
		case apierrors.IsTimeoutError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or raise timeout_seconds"))
		}
	}

	return sb.String()
}

// renderAlert renders a blocking error box
func renderAlert(err error, width int) string {
	boxWidth := width - 8
	if boxWidth > 72 {
		boxWidth = 72
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		alertTitleStyle.Render("Something went wrong"),
		FormatError(err),
		"",
		hintStyle.Render("Press Enter or Esc to dismiss"),
	)
	return alertStyle.Width(boxWidth).Render(content)
}
