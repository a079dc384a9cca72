package history

import (
	"strings"
	"testing"
)

func setupResolver(t *testing.T) *Resolver {
	t.Helper()
	store, _ := newTestStore(t)

	convs := []*Conversation{
		sampleConversation("aaaa1111-0000-4000-8000-000000000001", 100),
		sampleConversation("aaaa2222-0000-4000-8000-000000000002", 300),
		sampleConversation("bbbb3333-0000-4000-8000-000000000003", 200),
	}
	convs[0].Problem = "Which laptop to buy"
	convs[1].Problem = "Should I move to Lisbon"
	convs[2].Problem = "Which car to buy"

	if err := store.SaveAll(convs); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	return NewResolver(store)
}

func TestResolver_Resolve(t *testing.T) {
	r := setupResolver(t)

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{"@last", "aaaa2222-0000-4000-8000-000000000002", ""},
		{"@LAST", "aaaa2222-0000-4000-8000-000000000002", ""},
		{"@first", "aaaa1111-0000-4000-8000-000000000001", ""},
		{"1", "aaaa2222-0000-4000-8000-000000000002", ""},
		{"2", "bbbb3333-0000-4000-8000-000000000003", ""},
		{"3", "aaaa1111-0000-4000-8000-000000000001", ""},
		{"4", "", "out of range"},
		{"0", "", "out of range"},
		{"aaaa1111-0000-4000-8000-000000000001", "aaaa1111-0000-4000-8000-000000000001", ""},
		{"bbbb", "bbbb3333-0000-4000-8000-000000000003", ""},
		{"aaaa", "", "ambiguous"},
		{"#/conversation/bbbb3333-0000-4000-8000-000000000003", "bbbb3333-0000-4000-8000-000000000003", ""},
		{"#/conversation/aaaa2222", "aaaa2222-0000-4000-8000-000000000002", ""},
		{"#/", "", "does not point at a conversation"},
		{"lisbon", "aaaa2222-0000-4000-8000-000000000002", ""},
		{"  laptop  ", "aaaa1111-0000-4000-8000-000000000001", ""},
		{"which", "", "multiple conversations match"},
		{"submarine", "", "no conversation matching"},
		{"", "", "empty reference"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want containing %q", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolver_EmptyStore(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := NewResolver(store).Resolve("@last")
	if err == nil || !strings.Contains(err.Error(), "no conversations") {
		t.Errorf("expected 'no conversations' error, got %v", err)
	}
}

func TestResolver_ResolveWithInfo(t *testing.T) {
	r := setupResolver(t)

	conv, err := r.ResolveWithInfo("lisbon")
	if err != nil {
		t.Fatalf("ResolveWithInfo failed: %v", err)
	}
	if conv.Problem != "Should I move to Lisbon" {
		t.Errorf("Problem = %q", conv.Problem)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"ações e opções", 8, "ações..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
