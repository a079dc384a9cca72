package session

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
)

// Stage is what the conversation page should offer next
type Stage int

const (
	// StageWaiting: nothing to answer (unexpected round/question pairing)
	StageWaiting Stage = iota
	StageWeights
	StageRatings
	StageDecision
)

func (s Stage) String() string {
	switch s {
	case StageWeights:
		return "weights"
	case StageRatings:
		return "ratings"
	case StageDecision:
		return "decision"
	}
	return "waiting"
}

// CurrentQuestion returns the question of the latest system question message
func CurrentQuestion(messages []history.Message) *models.Question {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsQuestion() {
			return messages[i].Content.Question
		}
	}
	return nil
}

// StageOf decides which form or view a conversation is at
func StageOf(conv *history.Conversation) Stage {
	if conv == nil {
		return StageWaiting
	}
	q := CurrentQuestion(conv.Messages)
	switch {
	case conv.Round == 1 && q.IsWeights():
		return StageWeights
	case conv.Round == 2 && q.IsRatings():
		return StageRatings
	case conv.Round >= 3 && conv.HasDecision():
		return StageDecision
	}
	return StageWaiting
}

// Facts returns state.facts, or an empty object when there is none
func Facts(state json.RawMessage) json.RawMessage {
	if !models.IsNullJSON(state) {
		if f := gjson.GetBytes(state, "facts"); f.Exists() && f.Type != gjson.Null {
			return json.RawMessage(f.Raw)
		}
	}
	return json.RawMessage(`{}`)
}

// Severity is how an error should be surfaced
type Severity int

const (
	SeverityNone Severity = iota
	// SeverityInline: show next to the form and let the user correct it
	SeverityInline
	// SeverityAlert: blocking message that must be dismissed
	SeverityAlert
)

// Classify maps an error to how it is surfaced: 400/422 and local validation
// inline, everything else as an alert.
func Classify(err error) Severity {
	switch {
	case err == nil:
		return SeverityNone
	case apierrors.IsInline(err):
		return SeverityInline
	}
	return SeverityAlert
}
