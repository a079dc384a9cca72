package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/models"
)

// weightsForm is the round 1 slider form: one 1-5 slider per dimension
type weightsForm struct {
	prompt string
	dims   []models.QuestionDimension
	values models.Weights
	cursor int
}

func newWeightsForm(q *models.Question, stored models.Weights) weightsForm {
	if q == nil {
		return weightsForm{values: models.Weights{}}
	}
	return weightsForm{
		prompt: q.Prompt,
		dims:   q.Dimensions,
		values: forms.InitialWeights(q.Dimensions, stored),
	}
}

func (f weightsForm) update(msg tea.KeyMsg) weightsForm {
	if len(f.dims) == 0 {
		return f
	}

	switch key := msg.String(); key {
	case "up", "k", "shift+tab":
		f.cursor = (f.cursor - 1 + len(f.dims)) % len(f.dims)
	case "down", "j", "tab":
		f.cursor = (f.cursor + 1) % len(f.dims)
	case "left", "h", "-":
		f.step(-1)
	case "right", "l", "+", "=":
		f.step(1)
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			dim := f.dims[f.cursor]
			f.values[dim.Key] = forms.ClampWeight(dim, float64(key[0]-'0'))
		}
	}
	return f
}

func (f *weightsForm) step(delta int) {
	dim := f.dims[f.cursor]
	f.values[dim.Key] = forms.StepWeight(dim, f.values[dim.Key], delta)
}

// value returns a copy of the current weights
func (f weightsForm) value() models.Weights {
	out := make(models.Weights, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f weightsForm) validate() error {
	return forms.ValidateWeights(f.dims, f.values)
}

func (f weightsForm) view(width int) string {
	lines := []string{sectionTitleStyle.Render("How much does each dimension matter?")}
	if f.prompt != "" {
		lines = append(lines, subtitleStyle.Render(f.prompt))
	}
	lines = append(lines, "")

	labelWidth := 0
	for _, d := range f.dims {
		labelWidth = max(labelWidth, lipgloss.Width(dimLabel(d)))
	}

	for i, d := range f.dims {
		cursor := "  "
		label := itemStyle.Render(padRight(dimLabel(d), labelWidth))
		if i == f.cursor {
			cursor = cursorStyle.Render("> ")
			label = itemSelectedStyle.Render(padRight(dimLabel(d), labelWidth))
		}

		lo, hi := d.Bounds()
		v := f.values[d.Key]
		lines = append(lines, fmt.Sprintf("%s%s  %s %s  %s",
			cursor,
			label,
			renderSlider(v, lo, hi),
			itemSelectedStyle.Render(models.FormatNumber(v)),
			hintStyle.Render(fmt.Sprintf("(%s-%s)", models.FormatNumber(lo), models.FormatNumber(hi))),
		))
	}

	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderSlider(v, lo, hi float64) string {
	steps := int(hi - lo)
	if steps <= 0 {
		steps = 1
	}
	filled := int(v - lo)
	filled = max(0, min(filled, steps))

	var sb strings.Builder
	sb.WriteString(sliderFullStyle.Render(strings.Repeat("■", filled+1)))
	sb.WriteString(sliderEmptyStyle.Render(strings.Repeat("□", steps-filled)))
	return sb.String()
}

func dimLabel(d models.QuestionDimension) string {
	if d.Label != "" {
		return d.Label
	}
	return string(d.Key)
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
