// Package history provides local conversation history storage.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/storage"
)

// StorageKey is the single key holding every conversation as a JSON array
const StorageKey = "choicemate_conversations_v1"

// MessageContent is the tagged payload of a message. Type selects which of
// the other fields are set.
type MessageContent struct {
	Type          string               `json:"type"`
	Question      *models.Question     `json:"question,omitempty"`
	Weights       models.Weights       `json:"weights,omitempty"`
	OptionRatings models.OptionRatings `json:"option_ratings,omitempty"`
	Summary       string               `json:"summary,omitempty"`
	Decision      json.RawMessage      `json:"decision,omitempty"`

	// Text holds content stored as a plain string instead of an object
	Text string `json:"-"`
}

type messageContentJSON MessageContent

// MarshalJSON writes plain-text content back as a string
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Type == "" && c.Text != "" {
		return json.Marshal(c.Text)
	}
	return json.Marshal(messageContentJSON(c))
}

// UnmarshalJSON accepts either a tagged object or a plain string
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*c = MessageContent{}
		return json.Unmarshal(trimmed, &c.Text)
	}
	var v messageContentJSON
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	v.Decision = models.NormalizeJSON(v.Decision)
	*c = MessageContent(v)
	return nil
}

// Message is one entry of a conversation log
type Message struct {
	ID      string         `json:"id"`
	Role    string         `json:"role"` // "system" or "user"
	Content MessageContent `json:"content"`
	TS      int64          `json:"ts"` // epoch millis
}

// Time returns the message timestamp
func (m Message) Time() time.Time {
	return time.UnixMilli(m.TS)
}

// IsQuestion reports whether m is a system question
func (m Message) IsQuestion() bool {
	return m.Role == models.RoleSystem && m.Content.Type == models.ContentQuestion && m.Content.Question != nil
}

// IsDecision reports whether m carries a decision
func (m Message) IsDecision() bool {
	return m.Content.Type == models.ContentDecision
}

// Conversation is one decision session with the backend.
// State and Decision are kept exactly as the backend returned them.
type Conversation struct {
	ID              string                       `json:"conversationId"`
	CreatedAt       int64                        `json:"createdAt"`
	UpdatedAt       int64                        `json:"updatedAt"`
	Problem         string                       `json:"problem"`
	Options         []string                     `json:"options"`
	State           json.RawMessage              `json:"state"`
	Round           int                          `json:"round"`
	Decision        json.RawMessage              `json:"decision"`
	FactsCompletion []models.FactsCompletionItem `json:"factsCompletion"`
	Assumptions     []string                     `json:"assumptions"`
	Messages        []Message                    `json:"messages"`
}

// Created returns the creation time
func (c *Conversation) Created() time.Time {
	return time.UnixMilli(c.CreatedAt)
}

// Updated returns the last update time
func (c *Conversation) Updated() time.Time {
	return time.UnixMilli(c.UpdatedAt)
}

// HasDecision reports whether the backend has produced a decision
func (c *Conversation) HasDecision() bool {
	return c != nil && !models.IsNullJSON(c.Decision)
}

// Status is the short tag shown in conversation lists
func (c *Conversation) Status() string {
	if c.HasDecision() {
		return "decided"
	}
	return fmt.Sprintf("in progress · round %d", c.Round)
}

// Clone returns a deep copy of c
func (c *Conversation) Clone() *Conversation {
	data, err := json.Marshal(c)
	if err != nil {
		cp := *c
		return &cp
	}
	var out Conversation
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *c
		return &cp
	}
	out.normalize()
	return &out
}

func (c *Conversation) normalize() {
	c.State = models.NormalizeJSON(c.State)
	c.Decision = models.NormalizeJSON(c.Decision)
	if c.Options == nil {
		c.Options = []string{}
	}
	if c.FactsCompletion == nil {
		c.FactsCompletion = []models.FactsCompletionItem{}
	}
	if c.Assumptions == nil {
		c.Assumptions = []string{}
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
}

// Store manages conversation persistence on top of a key/value backend.
// Writes are last-write-wins; the mutex only serializes this process.
type Store struct {
	kv storage.KV
	mu sync.Mutex
}

// NewStore creates a store backed by kv
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// KV returns the underlying backend
func (s *Store) KV() storage.KV {
	return s.kv
}

// Load returns every stored conversation in storage order. A missing key or
// corrupt data yields an empty list; only backend failures are errors.
func (s *Store) Load() ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]*Conversation, error) {
	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	if !ok || raw == "" {
		return []*Conversation{}, nil
	}

	var list []*Conversation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []*Conversation{}, nil
	}

	out := make([]*Conversation, 0, len(list))
	for _, c := range list {
		if c == nil {
			continue
		}
		c.normalize()
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) save(list []*Conversation) error {
	if list == nil {
		list = []*Conversation{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save conversations: %w", err)
	}
	return nil
}

// SaveAll replaces the stored list
func (s *Store) SaveAll(list []*Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(list)
}

// Upsert replaces the conversation with the same id, or appends it
func (s *Store) Upsert(conv *Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, c := range list {
		if c.ID == conv.ID {
			list[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, conv)
	}
	return s.save(list)
}

// Get returns the conversation with id, or false when there is none
func (s *Store) Get(id string) (*Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, false, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, true, nil
		}
	}
	return nil, false, nil
}

// MustGet is like Get but reports a missing conversation as an error
func (s *Store) MustGet(id string) (*Conversation, error) {
	conv, ok, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apierrors.ErrConversationNotFound, id)
	}
	return conv, nil
}

// Update runs a read-modify-write over the whole list
func (s *Store) Update(fn func([]*Conversation) []*Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	return s.save(fn(list))
}

// Delete removes the conversation with id
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}

	kept := list[:0]
	found := false
	for _, c := range list {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return fmt.Errorf("%w: %s", apierrors.ErrConversationNotFound, id)
	}
	return s.save(kept)
}

// Clear removes every conversation
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	return nil
}

// List returns all conversations, most recently updated first
func (s *Store) List() ([]*Conversation, error) {
	list, err := s.Load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt > list[j].UpdatedAt
	})
	return list, nil
}
