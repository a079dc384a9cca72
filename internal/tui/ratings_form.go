package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/models"
)

const ratingCellWidth = 5

// ratingsForm is the round 2 matrix: one text cell per option and dimension.
// Cells hold free text until submit so a blank cell can mean "unknown".
type ratingsForm struct {
	question *models.Question
	cells    [][]textinput.Model
	row, col int
}

func newRatingsForm(q *models.Question, stored models.OptionRatings) ratingsForm {
	f := ratingsForm{question: q}
	if q == nil {
		return f
	}

	grid := forms.InitialRatings(q, stored)
	f.cells = make([][]textinput.Model, len(q.Options))
	for i, opt := range q.Options {
		f.cells[i] = make([]textinput.Model, len(q.Dimensions))
		for j, dim := range q.Dimensions {
			in := textinput.New()
			in.Prompt = ""
			in.Placeholder = "-"
			in.CharLimit = 6
			in.Width = ratingCellWidth
			in.SetValue(grid.Get(opt, dim.Key))
			f.cells[i][j] = in
		}
	}
	if len(f.cells) > 0 && len(f.cells[0]) > 0 {
		f.cells[0][0].Focus()
	}
	return f
}

func (f ratingsForm) empty() bool {
	return len(f.cells) == 0 || len(f.cells[0]) == 0
}

func (f ratingsForm) update(msg tea.KeyMsg) (ratingsForm, tea.Cmd) {
	if f.empty() {
		return f, nil
	}

	rows, cols := len(f.cells), len(f.cells[0])
	switch msg.String() {
	case "tab":
		idx := (f.row*cols + f.col + 1) % (rows * cols)
		return f.focus(idx/cols, idx%cols)
	case "shift+tab":
		idx := (f.row*cols + f.col - 1 + rows*cols) % (rows * cols)
		return f.focus(idx/cols, idx%cols)
	case "up":
		return f.focus((f.row-1+rows)%rows, f.col)
	case "down":
		return f.focus((f.row+1)%rows, f.col)
	}

	var cmd tea.Cmd
	f.cells[f.row][f.col], cmd = f.cells[f.row][f.col].Update(msg)
	return f, cmd
}

func (f ratingsForm) focus(row, col int) (ratingsForm, tea.Cmd) {
	f.cells[f.row][f.col].Blur()
	f.row, f.col = row, col
	return f, f.cells[row][col].Focus()
}

// focusField moves focus to the "option.dimension" cell named by a validation error
func (f ratingsForm) focusField(field string) (ratingsForm, tea.Cmd) {
	if f.empty() {
		return f, nil
	}
	for i, opt := range f.question.Options {
		for j, dim := range f.question.Dimensions {
			if opt+"."+string(dim.Key) == field {
				return f.focus(i, j)
			}
		}
	}
	return f, nil
}

// grid returns the text of every cell
func (f ratingsForm) grid() forms.RatingsGrid {
	grid := make(forms.RatingsGrid)
	if f.question == nil {
		return grid
	}
	for i, opt := range f.question.Options {
		for j, dim := range f.question.Dimensions {
			grid.Set(opt, dim.Key, f.cells[i][j].Value())
		}
	}
	return grid
}

func (f ratingsForm) parse() (models.OptionRatings, error) {
	return forms.ParseRatings(f.question, f.grid())
}

func (f ratingsForm) view(width int) string {
	if f.question == nil {
		return ""
	}

	lines := []string{sectionTitleStyle.Render("Rate each option from 1 to 5")}
	if f.question.Prompt != "" {
		lines = append(lines, subtitleStyle.Render(f.question.Prompt))
	}
	lines = append(lines, hintStyle.Render("Leave a cell blank if you don't know; cost and risk: higher is worse"), "")

	optWidth := 6
	for _, opt := range f.question.Options {
		optWidth = max(optWidth, lipgloss.Width(opt))
	}
	optWidth = min(optWidth, 24)

	colWidth := ratingCellWidth + 4
	for _, d := range f.question.Dimensions {
		colWidth = max(colWidth, lipgloss.Width(dimLabel(d))+2)
	}

	header := []string{padRight("", optWidth+2)}
	for _, d := range f.question.Dimensions {
		header = append(header, statusKeyStyle.Render(padRight(dimLabel(d), colWidth)))
	}
	lines = append(lines, strings.Join(header, ""))

	for i, opt := range f.question.Options {
		name := padRight(truncateRunes(opt, optWidth), optWidth)
		row := []string{itemStyle.Render(name) + "  "}
		for j := range f.question.Dimensions {
			style := fieldStyle
			if i == f.row && j == f.col {
				style = fieldFocusedStyle
			}
			cell := style.Width(ratingCellWidth + 2).Render(f.cells[i][j].View())
			row = append(row, lipgloss.NewStyle().Width(colWidth).Render(cell))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center, row...))
	}

	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
