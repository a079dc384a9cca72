package history

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diogo/choicemate/internal/router"
)

// minPrefixLen is the shortest id prefix accepted as a reference
const minPrefixLen = 4

// Resolver resolves user-friendly references to conversation IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a new alias resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a user-friendly reference to a conversation ID
//
// Supported references:
//   - "@last" - most recently updated conversation
//   - "@first" - oldest conversation in the list
//   - "1", "2", "3" - by index (1-based, most recent first)
//   - "#/conversation/<id>" - a route fragment
//   - full id, or a unique id prefix of at least 4 characters
//   - "substring" - match on the problem text (error if multiple matches)
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	if strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") {
		route := router.Parse(ref)
		if !route.IsConversation() {
			return "", fmt.Errorf("%s does not point at a conversation", ref)
		}
		ref = route.ConversationID
	}

	conversations, err := r.store.List()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return conversations[0].ID, nil
	case "@first":
		return conversations[len(conversations)-1].ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(conversations) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(conversations))
		}
		return conversations[index-1].ID, nil
	}

	for _, conv := range conversations {
		if conv.ID == ref {
			return conv.ID, nil
		}
	}

	if len(ref) >= minPrefixLen {
		var byPrefix []*Conversation
		for _, conv := range conversations {
			if strings.HasPrefix(conv.ID, ref) {
				byPrefix = append(byPrefix, conv)
			}
		}
		if len(byPrefix) == 1 {
			return byPrefix[0].ID, nil
		}
		if len(byPrefix) > 1 {
			return "", fmt.Errorf("id prefix '%s' is ambiguous (%d conversations)", ref, len(byPrefix))
		}
	}

	refLower := strings.ToLower(ref)
	var matches []*Conversation
	for _, conv := range conversations {
		if strings.Contains(strings.ToLower(conv.Problem), refLower) {
			matches = append(matches, conv)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	default:
		var problems []string
		for _, m := range matches {
			problems = append(problems, fmt.Sprintf("'%s'", Truncate(m.Problem, 40)))
		}
		return "", fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
			ref, strings.Join(problems, ", "))
	}
}

// ResolveWithInfo resolves a reference and returns the conversation
func (r *Resolver) ResolveWithInfo(ref string) (*Conversation, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return r.store.MustGet(id)
}

// ListAliases returns information about supported aliases
func ListAliases() string {
	return `Supported references:
  @last                 Most recently updated conversation
  @first                Oldest conversation
  1, 2, 3               By index (1-based, from most recent)
  #/conversation/<id>   Route fragment
  <id> or <prefix>      Conversation ID or a unique prefix (4+ chars)
  "text"                Search by problem substring`
}

// Truncate shortens s to max runes, adding "..." when cut
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
