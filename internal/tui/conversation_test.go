package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/session"
)

func loadedConversation(t *testing.T, f *tuiFixture, id string) ConversationModel {
	t.Helper()
	m := NewConversationModel(f.deps, id)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	loaded, ok := findMsg[conversationLoadedMsg](execCmd(m.Init()))
	if !ok {
		t.Fatal("Init() did not load the conversation")
	}
	m, _ = m.Update(loaded)
	return m
}

// submit presses key and feeds the resulting backend message back in
func submit(t *testing.T, m ConversationModel, key tea.KeyMsg) (ConversationModel, []tea.Msg) {
	t.Helper()
	m, cmd := m.Update(key)
	if !m.busy {
		t.Fatal("page should be busy while the request runs")
	}
	msgs := execCmd(cmd)
	for _, msg := range msgs {
		switch msg.(type) {
		case conversationUpdatedMsg, explainedMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			msgs = append(msgs, execCmd(next)...)
		}
	}
	return m, msgs
}

func TestConversationModel_NotFound(t *testing.T) {
	f := newTUIFixture(t)
	m := loadedConversation(t, f, "missing")

	if !m.notFound {
		t.Fatal("notFound should be set")
	}
	if !strings.Contains(m.View(), "not found") {
		t.Error("not found message missing")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	execCmd(cmd)
	if got := f.router.Fragment(); got != "#/" {
		t.Errorf("Esc should go home, fragment = %q", got)
	}
}

func TestConversationModel_WeightsStage(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)

	if m.Stage() != session.StageWeights {
		t.Fatalf("stage = %v, want weights", m.Stage())
	}
	if got := m.weights.values[models.DimImpact]; got != 3 {
		t.Errorf("initial impact weight = %v, want default 3", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight}) // clamps at 5
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(keyRunes("1"))

	if got := m.weights.values[models.DimImpact]; got != 5 {
		t.Errorf("impact = %v, want 5", got)
	}
	if got := m.weights.values[models.DimCost]; got != 1 {
		t.Errorf("cost = %v, want 1", got)
	}
	if !strings.Contains(m.View(), "How much does each dimension matter?") {
		t.Error("weights form not rendered")
	}

	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	answer := f.mock.QuestionnaireRequests[1].LastAnswer
	if answer == nil || answer.Weights[models.DimImpact] != 5 || answer.Weights[models.DimCost] != 1 {
		t.Fatalf("unexpected weights answer: %+v", answer)
	}
	if m.busy {
		t.Error("busy should be cleared after the response")
	}
	if m.Stage() != session.StageRatings {
		t.Errorf("stage = %v, want ratings", m.Stage())
	}
	if m.Conversation().Round != 2 {
		t.Errorf("round = %d, want 2", m.Conversation().Round)
	}
}

func TestConversationModel_RatingsValidation(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)
	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// Stay.impact out of range
	m, _ = m.Update(keyRunes("9"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil && m.busy {
		t.Fatal("invalid ratings should not be sent")
	}
	if !strings.Contains(m.inlineErr, forms.MsgRatingRange) {
		t.Errorf("inlineErr = %q, want range message", m.inlineErr)
	}
	if len(f.mock.QuestionnaireRequests) != 2 {
		t.Errorf("got %d requests, want 2", len(f.mock.QuestionnaireRequests))
	}

	// Leave.cost is not a number; focus jumps to it
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(keyRunes("4"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(keyRunes("abc"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if !strings.Contains(m.inlineErr, forms.MsgRatingNotNumber) {
		t.Errorf("inlineErr = %q, want not-a-number message", m.inlineErr)
	}
	if !strings.Contains(m.inlineErr, "Leave.cost") {
		t.Errorf("inlineErr = %q, want the cell name", m.inlineErr)
	}
	if m.ratings.row != 1 || m.ratings.col != 1 {
		t.Errorf("focus = (%d,%d), want (1,1)", m.ratings.row, m.ratings.col)
	}
}

func TestConversationModel_FullFlow(t *testing.T) {
	f := newTUIFixture(t)
	f.mock.ExplainVal = &models.ExplainResponse{
		Explanation: "Leave scores higher on impact.",
		Highlights:  []string{"impact weighted 4"},
	}
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)

	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(keyRunes("2"))
	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	answer := f.mock.QuestionnaireRequests[2].LastAnswer
	if answer == nil || answer.OptionRatings == nil {
		t.Fatal("ratings answer not sent")
	}
	if v := answer.OptionRatings["Stay"][models.DimImpact]; v == nil || *v != 2 {
		t.Errorf("Stay.impact = %v, want 2", v)
	}
	if v := answer.OptionRatings["Leave"][models.DimCost]; v != nil {
		t.Errorf("blank cell should be sent as null, got %v", *v)
	}

	if m.Stage() != session.StageDecision {
		t.Fatalf("stage = %v, want decision", m.Stage())
	}
	view := m.View()
	if !strings.Contains(view, "Leave") || !strings.Contains(view, "decided") {
		t.Error("decision view missing recommendation or status")
	}

	// copy before explaining only gives feedback
	m, cmd := m.Update(keyRunes("c"))
	if cmd != nil || !strings.Contains(m.feedback, "Nothing to copy") {
		t.Errorf("unexpected copy without explanation: feedback=%q", m.feedback)
	}

	m, _ = submit(t, m, keyRunes("e"))
	if m.explanation == nil || m.explanation.Explanation != "Leave scores higher on impact." {
		t.Fatalf("explanation = %+v", m.explanation)
	}
	if len(f.mock.ExplainRequests) != 1 {
		t.Fatalf("got %d explain requests", len(f.mock.ExplainRequests))
	}

	m, cmd = m.Update(keyRunes("c"))
	copied, ok := findMsg[copiedMsg](execCmd(cmd))
	if !ok || copied.err != nil {
		t.Fatalf("copy failed: %+v", copied)
	}
	m, _ = m.Update(copied)
	if len(f.copied) != 1 || !strings.HasPrefix(f.copied[0], "Leave scores higher on impact.") {
		t.Errorf("copied = %q", f.copied)
	}
	if !strings.Contains(m.feedback, "copied") {
		t.Errorf("feedback = %q", m.feedback)
	}

	// explanations are not persisted
	stored, _, _ := f.store.Get(conv.ID)
	if len(stored.Messages) != 5 {
		t.Errorf("stored %d messages, want 5", len(stored.Messages))
	}
}

func TestConversationModel_ToggleRaw(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)
	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.showRaw {
		t.Fatal("raw JSON should start hidden")
	}
	m, _ = m.Update(keyRunes("r"))
	if !m.showRaw {
		t.Error("r should show the raw decision")
	}
}

func TestConversationModel_ErrorSeverity(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantInline bool
	}{
		{"422 shown inline", apierrors.NewAPIErrorWithPayload(422, models.EndpointQuestionnaireNext, "weights invalid", nil), true},
		{"400 shown inline", apierrors.NewAPIError(400, models.EndpointQuestionnaireNext, "bad request"), true},
		{"500 alerts", apierrors.NewAPIError(500, models.EndpointQuestionnaireNext, "boom"), false},
		{"not configured alerts", apierrors.NewNotConfiguredError(models.EndpointQuestionnaireNext), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTUIFixture(t)
			conv := f.create(t)
			m := loadedConversation(t, f, conv.ID)

			f.mock.QuestionnaireErr = tt.err
			m, msgs := submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

			updated, ok := findMsg[conversationUpdatedMsg](msgs)
			if !ok || updated.err == nil {
				t.Fatal("expected a failed update")
			}
			_, alerted := findMsg[alertMsg](msgs)

			if tt.wantInline {
				if m.inlineErr == "" || alerted {
					t.Errorf("want inline error, got inline=%q alert=%v", m.inlineErr, alerted)
				}
			} else if m.inlineErr != "" || !alerted {
				t.Errorf("want alert, got inline=%q alert=%v", m.inlineErr, alerted)
			}

			if m.Stage() != session.StageWeights {
				t.Errorf("stage = %v, want weights after failure", m.Stage())
			}
			stored, _, _ := f.store.Get(conv.ID)
			if len(stored.Messages) != 1 {
				t.Errorf("failed request stored %d messages", len(stored.Messages))
			}
		})
	}
}

// reload feeds a storage change through the page and back
func reload(t *testing.T, m ConversationModel) ConversationModel {
	t.Helper()
	m, cmd := m.Update(storageChangedMsg{})
	loaded, ok := findMsg[conversationLoadedMsg](execCmd(cmd))
	if !ok {
		t.Fatal("storage change did not reload the conversation")
	}
	m, _ = m.Update(loaded)
	return m
}

func TestConversationModel_StorageChangeKeepsTypedRatings(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)
	m, _ = submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(keyRunes("5"))
	if got := m.ratings.grid().Get("Stay", models.DimImpact); got != "5" {
		t.Fatalf("typed cell = %q, want 5", got)
	}

	// a failed submit leaves the stored conversation as it was
	f.mock.QuestionnaireErr = apierrors.NewAPIError(503, models.EndpointQuestionnaireNext, "unavailable")
	m, msgs := submit(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := findMsg[alertMsg](msgs); !ok {
		t.Fatal("a 503 should raise an alert")
	}
	m = reload(t, m)

	if got := m.ratings.grid().Get("Stay", models.DimImpact); got != "5" {
		t.Errorf("typed cell after unchanged reload = %q, want 5", got)
	}
	if m.Stage() != session.StageRatings {
		t.Errorf("stage = %v, want ratings", m.Stage())
	}
}

func TestConversationModel_StorageChangeFollowsOtherWriter(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})

	// another process answers round 1
	if _, err := f.svc.SubmitWeights(context.Background(), conv.ID, models.Weights{
		models.DimImpact: 4, models.DimCost: 3, models.DimRisk: 3, models.DimReversibility: 3,
	}); err != nil {
		t.Fatalf("SubmitWeights() error = %v", err)
	}
	m = reload(t, m)

	if m.Stage() != session.StageRatings {
		t.Errorf("stage = %v, want ratings after the other write", m.Stage())
	}
	if m.Conversation().Round != 2 {
		t.Errorf("round = %d, want 2", m.Conversation().Round)
	}
}

func TestConversationModel_KeysIgnoredWhileBusy(t *testing.T) {
	f := newTUIFixture(t)
	conv := f.create(t)
	m := loadedConversation(t, f, conv.ID)

	m.busy = true
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("no request should start while one is in flight")
	}
	if len(f.mock.QuestionnaireRequests) != 1 {
		t.Errorf("got %d requests, want 1", len(f.mock.QuestionnaireRequests))
	}
}

func TestWeightsForm_Bounds(t *testing.T) {
	form := newWeightsForm(testWeightsQuestion, models.Weights{models.DimRisk: 9})

	if got := form.values[models.DimRisk]; got != 5 {
		t.Errorf("stored weight should be clamped, got %v", got)
	}

	form = form.update(tea.KeyMsg{Type: tea.KeyLeft})
	form = form.update(tea.KeyMsg{Type: tea.KeyLeft})
	form = form.update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := form.values[models.DimImpact]; got != 1 {
		t.Errorf("impact = %v, want clamp at 1", got)
	}

	form = form.update(tea.KeyMsg{Type: tea.KeyUp})
	if form.cursor != len(testWeightsQuestion.Dimensions)-1 {
		t.Errorf("cursor should wrap to the last dimension, got %d", form.cursor)
	}
	if err := form.validate(); err != nil {
		t.Errorf("validate() = %v", err)
	}

	v := form.value()
	v[models.DimImpact] = 99
	if form.values[models.DimImpact] == 99 {
		t.Error("value() should return a copy")
	}
}

func TestRatingsForm_StoredRatingsWin(t *testing.T) {
	q := *testRatingsQuestion
	q.Defaults = map[string]map[models.DimensionKey]float64{
		"Stay": {models.DimImpact: 3, models.DimCost: 3},
	}
	four := 4.0

	withDefaults := newRatingsForm(&q, nil)
	if got := withDefaults.grid().Get("Stay", models.DimCost); got != "3" {
		t.Errorf("default cell = %q, want 3", got)
	}

	stored := newRatingsForm(&q, models.OptionRatings{"Stay": {models.DimImpact: &four, models.DimCost: nil}})
	if got := stored.grid().Get("Stay", models.DimImpact); got != "4" {
		t.Errorf("stored cell = %q, want 4", got)
	}
	if got := stored.grid().Get("Stay", models.DimCost); got != "" {
		t.Errorf("null stored cell = %q, want blank", got)
	}
}
