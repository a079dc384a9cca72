package render

import (
	"strings"

	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
)

// bestMark follows the recommended option in tables
const bestMark = " ✅"

// DecisionMarkdown renders the decision view: recommendation, weights and the
// per-option breakdown. Missing values read "-". raw adds the decision JSON.
func DecisionMarkdown(view *models.DecisionView, raw bool) string {
	if view == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Decision\n\n")

	if view.BestOption != "" {
		sb.WriteString("Recommended option: **")
		sb.WriteString(escapeCell(view.BestOption))
		sb.WriteString("**\n\n")
	}
	if view.Confidence != "" {
		sb.WriteString("Confidence: ")
		sb.WriteString(view.Confidence)
		sb.WriteString("\n\n")
	}

	dims := models.Dimensions()

	if view.HasWeights {
		sb.WriteString("### Weights\n\n")
		writeRow(&sb, dimNames(dims, ""))
		writeSeparator(&sb, len(dims))
		cells := make([]string, len(dims))
		for i, d := range dims {
			cells[i] = view.Weights[d]
		}
		writeRow(&sb, cells)
		sb.WriteString("\n")
	}

	if len(view.PerOption) > 0 {
		sb.WriteString("### Score breakdown\n\n")
		header := append([]string{"option", "score"}, dimNames(dims, " rating")...)
		header = append(header, dimNames(dims, " contrib")...)
		writeRow(&sb, header)
		writeSeparator(&sb, len(header))

		for _, row := range view.PerOption {
			name := escapeCell(row.Option)
			if view.IsBest(row.Option) {
				name += bestMark
			}
			cells := []string{name, row.Score}
			for _, d := range dims {
				cells = append(cells, row.Ratings[d])
			}
			for _, d := range dims {
				cells = append(cells, row.Contributions[d])
			}
			writeRow(&sb, cells)
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("_No per-option breakdown provided._\n\n")
	}

	if raw && len(view.Raw) > 0 {
		sb.WriteString("### Raw decision\n\n```json\n")
		sb.WriteString(indentJSON(view.Raw))
		sb.WriteString("\n```\n")
	}

	return sb.String()
}

// AssumptionsMarkdown renders the assumptions list and the facts the backend
// completed. Default-filled rows are marked. Empty input renders nothing.
func AssumptionsMarkdown(assumptions []string, facts []models.FactsCompletionItem) string {
	if len(assumptions) == 0 && len(facts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Assumptions & completed facts\n\n")

	if len(assumptions) > 0 {
		for _, a := range assumptions {
			sb.WriteString("- ")
			sb.WriteString(a)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(facts) > 0 {
		writeRow(&sb, []string{"option", "dimension", "filled value", "source"})
		writeSeparator(&sb, 4)
		for _, f := range facts {
			source := escapeCell(f.Source)
			if f.IsDefault() {
				source = "**" + source + "**"
			}
			writeRow(&sb, []string{
				escapeCell(f.Option),
				string(f.Dimension),
				models.FormatNumber(f.FilledValue),
				source,
			})
		}
		sb.WriteString("\n_source=default means the backend filled in the neutral value._\n")
	}

	return sb.String()
}

// ExplanationMarkdown renders an explanation with its highlights and follow-ups
func ExplanationMarkdown(resp *models.ExplainResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Explanation\n\n")
	sb.WriteString(strings.TrimSpace(resp.Explanation))
	sb.WriteString("\n")

	writeList(&sb, "Highlights", resp.Highlights)
	writeList(&sb, "Follow-ups", resp.Followups)
	return sb.String()
}

// ExplanationText is the plain-text form copied to the clipboard
func ExplanationText(resp *models.ExplainResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(resp.Explanation))
	for _, h := range resp.Highlights {
		sb.WriteString("\n- ")
		sb.WriteString(h)
	}
	if len(resp.Followups) > 0 {
		sb.WriteString("\n\nFollow-ups:")
		for _, f := range resp.Followups {
			sb.WriteString("\n- ")
			sb.WriteString(f)
		}
	}
	return sb.String()
}

// ConversationMarkdown renders the conversation page without its forms
func ConversationMarkdown(conv *history.Conversation, rawDecision bool) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(conv.Problem)
	sb.WriteString("\n\n")
	sb.WriteString("Options: ")
	sb.WriteString(strings.Join(conv.Options, " / "))
	sb.WriteString("  \n")
	sb.WriteString("Status: ")
	sb.WriteString(conv.Status())
	sb.WriteString("\n\n")

	if s := AssumptionsMarkdown(conv.Assumptions, conv.FactsCompletion); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	if view := models.ParseDecision(conv.Decision); view != nil {
		sb.WriteString(DecisionMarkdown(view, rawDecision))
	}
	return sb.String()
}

// QuestionMarkdown describes the question a conversation is waiting on,
// with the values the form would start from.
func QuestionMarkdown(q *models.Question) string {
	if q == nil {
		return ""
	}

	var sb strings.Builder
	switch {
	case q.IsWeights():
		sb.WriteString("## Round 1: weights\n\n")
	case q.IsRatings():
		sb.WriteString("## Round 2: ratings\n\n")
	default:
		sb.WriteString("## Next question\n\n")
	}
	if q.Prompt != "" {
		sb.WriteString(q.Prompt)
		sb.WriteString("\n\n")
	}

	if q.IsRatings() {
		header := []string{"option"}
		for _, d := range q.Dimensions {
			header = append(header, string(d.Key))
		}
		writeRow(&sb, header)
		writeSeparator(&sb, len(header))
		for _, opt := range q.Options {
			cells := []string{escapeCell(opt)}
			for _, d := range q.Dimensions {
				cell := ""
				if v, ok := q.Defaults[opt][d.Key]; ok {
					cell = models.FormatNumber(v)
				}
				cells = append(cells, cell)
			}
			writeRow(&sb, cells)
		}
		return sb.String()
	}

	writeRow(&sb, []string{"dimension", "label", "range", "default"})
	writeSeparator(&sb, 4)
	for _, d := range q.Dimensions {
		lo, hi := d.Bounds()
		def := ""
		if d.Default != 0 {
			def = models.FormatNumber(d.Default)
		}
		writeRow(&sb, []string{
			string(d.Key),
			escapeCell(d.Label),
			models.FormatNumber(lo) + "-" + models.FormatNumber(hi),
			def,
		})
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n### ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
}

func dimNames(dims []models.DimensionKey, suffix string) []string {
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = string(d) + suffix
	}
	return out
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		if c == "" {
			c = "-"
		}
		sb.WriteString(c)
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func writeSeparator(sb *strings.Builder, n int) {
	sb.WriteString("|")
	for i := 0; i < n; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
