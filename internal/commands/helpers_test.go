package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/api"
	"github.com/diogo/choicemate/internal/config"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/session"
	"github.com/diogo/choicemate/internal/storage"
	"github.com/diogo/choicemate/internal/tui"
)

var weightsQuestion = &models.Question{
	Type:   models.QuestionWeightsSliders,
	Prompt: "How important is each dimension?",
	Dimensions: []models.QuestionDimension{
		{Key: models.DimImpact, Label: "Impact", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimCost, Label: "Cost", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimRisk, Label: "Risk", Min: models.Float(1), Max: models.Float(5), Default: 3},
		{Key: models.DimReversibility, Label: "Reversibility", Min: models.Float(1), Max: models.Float(5), Default: 3},
	},
}

var ratingsQuestion = &models.Question{
	Type:    models.QuestionRatingsMatrix,
	Prompt:  "Rate each option",
	Options: []string{"Stay", "Leave"},
	Dimensions: []models.QuestionDimension{
		{Key: models.DimImpact, Label: "Impact"},
		{Key: models.DimCost, Label: "Cost"},
	},
}

const decisionJSON = `{"best_option":"Leave","confidence":"medium","score_breakdown":{"weights":{"impact":5,"cost":2,"risk":3,"reversibility":3},"per_option":[{"option":"Stay","score":2.5},{"option":"Leave","score":3.5}]}}`

func questionnaireResponses() []*models.QuestionnaireResponse {
	return []*models.QuestionnaireResponse{
		{Round: 1, Question: weightsQuestion, State: json.RawMessage(`{"facts":{}}`)},
		{Round: 2, Question: ratingsQuestion, State: json.RawMessage(`{"facts":{"weights":{"impact":5,"cost":2,"risk":3,"reversibility":3}}}`)},
		{
			Round:       3,
			State:       json.RawMessage(`{"facts":{"weights":{"impact":5,"cost":2,"risk":3,"reversibility":3},"option_ratings":{"Stay":{"impact":2},"Leave":{"impact":5}}}}`),
			Decision:    json.RawMessage(decisionJSON),
			Assumptions: []string{"Missing ratings were set to 3"},
			FactsCompletion: []models.FactsCompletionItem{
				{Option: "Stay", Dimension: models.DimCost, FilledValue: 3, Source: models.SourceDefault},
			},
		},
	}
}

// fakeTUI records the app launches instead of taking over the terminal
type fakeTUI struct {
	runs []tui.Deps
	err  error
}

func (f *fakeTUI) Run(_ context.Context, deps tui.Deps) error {
	f.runs = append(f.runs, deps)
	return f.err
}

type testEnv struct {
	deps   *Dependencies
	mock   *api.MockClient
	store  *history.Store
	ui     *fakeTUI
	copied []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	env := &testEnv{
		mock:  &api.MockClient{QuestionnaireResponses: questionnaireResponses(), BaseURLVal: "http://backend.test"},
		store: history.NewStore(storage.NewMemoryKV()),
		ui:    &fakeTUI{},
	}

	clock := time.Now().Add(-time.Hour)
	ids := 0
	svc := session.New(env.mock, env.store,
		session.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		session.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("conv-%04d", ids)
		}),
	)

	env.deps = &Dependencies{
		Config:  &cfg,
		Logger:  zap.NewNop(),
		Client:  env.mock,
		Store:   env.store,
		Service: svc,
		TUI:     env.ui,
		Copy: func(s string) error {
			env.copied = append(env.copied, s)
			return nil
		},
		IsTTY: func() bool { return false },
		Width: func() int { return 80 },
	}
	return env
}

// run executes the CLI with args and returns what it wrote to stdout and stderr
func (e *testEnv) run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(e.deps)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// decided drives a conversation through both rounds
func (e *testEnv) decided(t *testing.T) string {
	t.Helper()
	if _, _, err := e.run("new", "Change jobs?", "Stay", "Leave"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := e.run("weights", "@last", "impact=5", "cost=2"); err != nil {
		t.Fatalf("weights: %v", err)
	}
	if _, _, err := e.run("rate", "@last", "Stay.impact=2", "Leave.impact=5"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	list, err := e.store.List()
	if err != nil || len(list) == 0 {
		t.Fatalf("no stored conversation: %v", err)
	}
	return list[0].ID
}
