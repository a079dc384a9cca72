package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/choicemate/internal/api"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/router"
	"github.com/diogo/choicemate/internal/session"
	"github.com/diogo/choicemate/internal/storage"
)

var testWeightsQuestion = &models.Question{
	Type:   models.QuestionWeightsSliders,
	Prompt: "How important is each dimension?",
	Dimensions: []models.QuestionDimension{
		{Key: models.DimImpact, Label: "Impact", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimCost, Label: "Cost", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimRisk, Label: "Risk", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimReversibility, Label: "Reversibility", Min: models.Float(1), Max: models.Float(5), Default: 3},
	},
}

var testRatingsQuestion = &models.Question{
	Type:    models.QuestionRatingsMatrix,
	Prompt:  "Rate each option",
	Options: []string{"Stay", "Leave"},
	Dimensions: []models.QuestionDimension{
		{Key: models.DimImpact, Label: "Impact"},
		{Key: models.DimCost, Label: "Cost"},
	},
}

const testDecision = `{"best_option":"Leave","confidence":"medium","score_breakdown":{"weights":{"impact":4,"cost":3,"risk":3,"reversibility":3},"per_option":[{"option":"Stay","score":2.5},{"option":"Leave","score":3.5}]}}`

func testResponses() []*models.QuestionnaireResponse {
	return []*models.QuestionnaireResponse{
		{Round: 1, Question: testWeightsQuestion, State: json.RawMessage(`{"facts":{}}`)},
		{Round: 2, Question: testRatingsQuestion, State: json.RawMessage(`{"facts":{"weights":{"impact":4}}}`)},
		{
			Round:       3,
			State:       json.RawMessage(`{"facts":{"weights":{"impact":4}}}`),
			Decision:    json.RawMessage(testDecision),
			Assumptions: []string{"Missing ratings were set to 3"},
			FactsCompletion: []models.FactsCompletionItem{
				{Option: "Stay", Dimension: models.DimRisk, FilledValue: 3, Source: models.SourceDefault},
			},
		},
	}
}

type tuiFixture struct {
	mock   *api.MockClient
	svc    *session.Service
	store  *history.Store
	router *router.Router
	copied []string
	deps   Deps
}

func newTUIFixture(t *testing.T) *tuiFixture {
	t.Helper()

	f := &tuiFixture{
		mock:   &api.MockClient{QuestionnaireResponses: testResponses()},
		store:  history.NewStore(storage.NewMemoryKV()),
		router: router.New(""),
	}

	clock := time.Now().Add(-time.Hour)
	ids := 0
	f.svc = session.New(f.mock, f.store,
		session.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		session.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
	)

	f.deps = Deps{
		Service: f.svc,
		Router:  f.router,
		Copy: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	}.withDefaults()
	return f
}

// create stores a conversation through the service, as the home page would
func (f *tuiFixture) create(t *testing.T) *history.Conversation {
	t.Helper()
	conv, err := f.svc.Create(context.Background(), "Change jobs?", []string{"Stay", "Leave"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return conv
}

// execCmd runs cmd and everything it batches, returning the messages produced.
// Spinner ticks are dropped.
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, execCmd(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
