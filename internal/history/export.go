package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/choicemate/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
)

// ParseExportFormat accepts a format name or a file extension
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "md", "markdown":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	case "yaml", "yml":
		return ExportFormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (use markdown, json or yaml)", s)
}

// Export loads a conversation and renders it in format
func (s *Store) Export(id string, format ExportFormat) ([]byte, error) {
	conv, err := s.MustGet(id)
	if err != nil {
		return nil, err
	}
	return Export(conv, format)
}

// Export renders conv in format
func Export(conv *Conversation, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatMarkdown:
		return []byte(ToMarkdown(conv)), nil
	case ExportFormatJSON:
		return json.MarshalIndent(conv, "", "  ")
	case ExportFormatYAML:
		return ToYAML(conv)
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// ToYAML renders conv as YAML with the same field names as the stored JSON
func ToYAML(conv *Conversation) ([]byte, error) {
	data, err := json.Marshal(conv)
	if err != nil {
		return nil, err
	}
	// decode into generic values so opaque state/decision come out as YAML, not bytes
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// ToMarkdown renders conv as a readable Markdown document
func ToMarkdown(conv *Conversation) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(conv.Problem)
	sb.WriteString("\n\n")

	sb.WriteString("**Options:** ")
	sb.WriteString(strings.Join(conv.Options, " / "))
	sb.WriteString("\n")
	sb.WriteString("**Status:** ")
	sb.WriteString(conv.Status())
	sb.WriteString("\n")
	sb.WriteString("**Created:** ")
	sb.WriteString(conv.Created().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString("**Updated:** ")
	sb.WriteString(conv.Updated().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")

	if view := models.ParseDecision(conv.Decision); view != nil {
		sb.WriteString("**Recommendation:** ")
		if view.BestOption != "" {
			sb.WriteString(view.BestOption)
		} else {
			sb.WriteString("-")
		}
		sb.WriteString("\n")
	}

	if len(conv.Assumptions) > 0 {
		sb.WriteString("\n## Assumptions\n\n")
		for _, a := range conv.Assumptions {
			sb.WriteString("- ")
			sb.WriteString(a)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n---\n\n")

	for i, msg := range conv.Messages {
		role := "System"
		if msg.Role == models.RoleUser {
			role = "User"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if msg.TS != 0 {
			sb.WriteString(" (")
			sb.WriteString(msg.Time().Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		sb.WriteString(MessageText(msg.Content))
		sb.WriteString("\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// MessageText renders message content as plain text
func MessageText(c MessageContent) string {
	switch c.Type {
	case models.ContentQuestion:
		if c.Question == nil {
			return "(empty question)"
		}
		var sb strings.Builder
		sb.WriteString(c.Question.Prompt)
		for _, d := range c.Question.Dimensions {
			sb.WriteString("\n- ")
			sb.WriteString(d.Label)
			sb.WriteString(" (")
			sb.WriteString(string(d.Key))
			sb.WriteString(")")
		}
		return sb.String()
	case models.ContentWeights:
		return "Weights: " + formatWeights(c.Weights)
	case models.ContentOptionRatings:
		var sb strings.Builder
		sb.WriteString("Ratings:")
		options := make([]string, 0, len(c.OptionRatings))
		for opt := range c.OptionRatings {
			options = append(options, opt)
		}
		sort.Strings(options)
		for _, opt := range options {
			sb.WriteString("\n- ")
			sb.WriteString(opt)
			sb.WriteString(": ")
			sb.WriteString(formatRatings(c.OptionRatings[opt]))
		}
		return sb.String()
	case models.ContentDecision:
		if c.Summary != "" {
			return c.Summary
		}
		return models.DecisionSummary(c.Decision)
	}
	return c.Text
}

func formatWeights(w models.Weights) string {
	parts := make([]string, 0, len(w))
	for _, dim := range models.Dimensions() {
		if v, ok := w[dim]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", dim, models.FormatNumber(v)))
		}
	}
	return strings.Join(parts, ", ")
}

func formatRatings(r models.Ratings) string {
	parts := make([]string, 0, len(r))
	for _, dim := range models.Dimensions() {
		v, ok := r[dim]
		if !ok {
			continue
		}
		cell := "-"
		if v != nil {
			cell = models.FormatNumber(*v)
		}
		parts = append(parts, fmt.Sprintf("%s=%s", dim, cell))
	}
	return strings.Join(parts, ", ")
}

// SearchResult represents a search match in conversations
type SearchResult struct {
	Conversation *Conversation
	MatchSnippet string // Snippet where the term was found
	MatchField   string // "problem", "option" or "assumption"
}

// Search finds conversations whose problem, options or assumptions contain query
func (s *Store) Search(query string) ([]*SearchResult, error) {
	conversations, err := s.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []*SearchResult

	for _, conv := range conversations {
		if strings.Contains(strings.ToLower(conv.Problem), queryLower) {
			results = append(results, &SearchResult{
				Conversation: conv,
				MatchSnippet: extractSnippet(conv.Problem, query, 60),
				MatchField:   "problem",
			})
			continue
		}
		if hit := firstContaining(conv.Options, queryLower); hit != "" {
			results = append(results, &SearchResult{Conversation: conv, MatchSnippet: hit, MatchField: "option"})
			continue
		}
		if hit := firstContaining(conv.Assumptions, queryLower); hit != "" {
			results = append(results, &SearchResult{
				Conversation: conv,
				MatchSnippet: extractSnippet(hit, query, 60),
				MatchField:   "assumption",
			})
		}
	}

	return results, nil
}

func firstContaining(items []string, queryLower string) string {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), queryLower) {
			return item
		}
	}
	return ""
}

// extractSnippet extracts a snippet around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx == -1 || len(content) <= maxLen {
		return Truncate(content, maxLen)
	}

	half := maxLen / 2
	start := idx - half
	end := idx + len(query) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(content) {
		end = len(content)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := strings.ToValidUTF8(content[start:end], "")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

// FormatRelativeTime formats a time as a relative string like "2h ago" or "yesterday"
func FormatRelativeTime(t time.Time) string {
	return formatRelativeTime(t, time.Now())
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		if months < 12 {
			return fmt.Sprintf("%d months ago", months)
		}
		return t.Format("2006-01-02")
	}
}
