package models

import (
	"bytes"
	"encoding/json"
)

// Answer is the last_answer payload of a questionnaire request.
// Exactly one field is set: Weights after round 1, OptionRatings after round 2.
type Answer struct {
	Weights       Weights       `json:"weights,omitempty"`
	OptionRatings OptionRatings `json:"option_ratings,omitempty"`
}

// QuestionnaireRequest advances the questionnaire by one round.
// A new session sends a nil State and a nil LastAnswer, both serialized as null.
type QuestionnaireRequest struct {
	Problem    string          `json:"problem"`
	Options    []string        `json:"options"`
	State      json.RawMessage `json:"state"`
	LastAnswer *Answer         `json:"last_answer"`
}

// FactsCompletionItem records a fact the backend filled in on the user's behalf
type FactsCompletionItem struct {
	Option      string       `json:"option"`
	Dimension   DimensionKey `json:"dimension"`
	FilledValue float64      `json:"filled_value"`
	Source      string       `json:"source"`
}

// IsDefault reports whether the backend used its neutral default
func (f FactsCompletionItem) IsDefault() bool {
	return f.Source == SourceDefault
}

// QuestionnaireResponse is the backend's answer to a questionnaire request.
// State and Decision are opaque and kept verbatim.
type QuestionnaireResponse struct {
	Round           int                   `json:"round"`
	Question        *Question             `json:"question"`
	State           json.RawMessage       `json:"state"`
	Decision        json.RawMessage       `json:"decision"`
	FactsCompletion []FactsCompletionItem `json:"facts_completion"`
	Assumptions     []string              `json:"assumptions"`
}

// HasDecision reports whether the response carries a decision
func (r *QuestionnaireResponse) HasDecision() bool {
	return r != nil && !IsNullJSON(r.Decision)
}

// ExplainMessage is a flattened conversation message sent for explanation
type ExplainMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExplainStyle tunes the generated explanation
type ExplainStyle struct {
	Tone   string `json:"tone"`
	Length string `json:"length"`
}

// DefaultExplainStyle is the style the client asks for unless configured otherwise
func DefaultExplainStyle() ExplainStyle {
	return ExplainStyle{Tone: "clear", Length: "medium"}
}

// ExplainRequest asks the backend to explain a decision
type ExplainRequest struct {
	Problem         string                `json:"problem"`
	Options         []string              `json:"options"`
	Facts           json.RawMessage       `json:"facts"`
	Decision        json.RawMessage       `json:"decision"`
	FactsCompletion []FactsCompletionItem `json:"facts_completion"`
	Assumptions     []string              `json:"assumptions"`
	Messages        []ExplainMessage      `json:"messages"`
	Style           ExplainStyle          `json:"style"`
}

// ExplainResponse is the natural-language explanation of a decision
type ExplainResponse struct {
	Explanation string   `json:"explanation"`
	Highlights  []string `json:"highlights"`
	Followups   []string `json:"followups"`
}

// DecideRequest asks the backend to score complete facts directly
type DecideRequest struct {
	Problem string          `json:"problem"`
	Options []string        `json:"options"`
	Facts   json.RawMessage `json:"facts"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	OK bool `json:"ok"`
}

// IsNullJSON reports whether raw is absent or the JSON literal null
func IsNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// NormalizeJSON maps absent and null values to nil so they marshal as null
func NormalizeJSON(raw json.RawMessage) json.RawMessage {
	if IsNullJSON(raw) {
		return nil
	}
	return raw
}
