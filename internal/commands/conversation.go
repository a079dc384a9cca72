package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/router"
	"github.com/diogo/choicemate/internal/session"
	"github.com/diogo/choicemate/internal/storage"
	"github.com/diogo/choicemate/internal/tui"
)

// resolveConversation turns a user reference into a stored conversation
func resolveConversation(deps *Dependencies, ref string) (*history.Conversation, error) {
	store, err := deps.store()
	if err != nil {
		return nil, err
	}
	return history.NewResolver(store).ResolveWithInfo(ref)
}

// requireStage fails unless conv is waiting on the wanted answer
func requireStage(conv *history.Conversation, want session.Stage) (*models.Question, error) {
	if got := session.StageOf(conv); got != want {
		return nil, fmt.Errorf("conversation %s is at the %s stage, not %s", shortID(conv.ID), got, want)
	}
	return session.CurrentQuestion(conv.Messages), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewOpenCmd creates the command that launches the interactive app
func NewOpenCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "open [reference]",
		Short: "Open the interactive app, optionally at a conversation",
		Long: `Open the interactive app. Without a reference it starts on the list of
conversations. A reference may be a route fragment such as
'#/conversation/<id>' or any conversation reference.

` + history.ListAliases(),
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) > 0 {
				ref = args[0]
			}
			return runOpen(cmd, deps, ref)
		},
	}
}

// routeFor maps an open reference to the route the app starts at
func routeFor(deps *Dependencies, ref string) (router.Route, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return router.Home, nil
	}
	// Fragments are taken as-is; the page reports unknown ids itself
	if strings.HasPrefix(ref, "#") {
		return router.Parse(ref), nil
	}
	conv, err := resolveConversation(deps, ref)
	if err != nil {
		return router.Route{}, err
	}
	return router.Conversation(conv.ID), nil
}

func runOpen(cmd *cobra.Command, deps *Dependencies, ref string) error {
	route, err := routeFor(deps, ref)
	if err != nil {
		return err
	}

	svc, err := deps.service()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var changes <-chan struct{}
	if path := svc.Store().KV().Path(); path != "" {
		ch, err := storage.Watch(ctx, path, history.StorageKey)
		if err != nil {
			deps.Logger.Warn("storage watch unavailable", zap.String("path", path), zap.Error(err))
		} else {
			changes = ch
		}
	}

	deps.Logger.Debug("starting tui", zap.String("route", route.String()))
	return deps.TUI.Run(ctx, tui.Deps{
		Service: svc,
		Router:  router.New(route.Fragment()),
		Logger:  deps.Logger,
		Render:  deps.renderOptions(),
		Changes: changes,
		Copy:    deps.Copy,
	})
}

// NewNewCmd creates the command that starts a conversation
func NewNewCmd(deps *Dependencies) *cobra.Command {
	var (
		problem string
		options []string
		open    bool
	)

	cmd := &cobra.Command{
		Use:   "new [problem] [option...]",
		Short: "Start a new decision",
		Long: `Start a new decision from a problem statement and at least two options.
The problem and options can be given as flags or as arguments.

Examples:
  choicemate new "Change jobs?" Stay Leave
  choicemate new --problem "Which laptop?" --option Air --option Pro`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if problem == "" && len(args) > 0 {
				problem, args = args[0], args[1:]
			}
			options = append(options, args...)

			// Validate locally before any request
			cleanProblem, cleanOptions, err := forms.ValidateNew(problem, options)
			if err != nil {
				return err
			}

			svc, err := deps.service()
			if err != nil {
				return err
			}

			conv, err := withSpinner(cmd, deps, "Starting conversation", func() (*history.Conversation, error) {
				return svc.Create(cmd.Context(), cleanProblem, cleanOptions)
			})
			if err != nil {
				return err
			}

			printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Created conversation %s", conv.ID))
			if open && deps.IsTTY() {
				return runOpen(cmd, deps, router.Conversation(conv.ID).Fragment())
			}
			printNext(cmd, deps, conv)
			return nil
		},
	}

	cmd.Flags().StringVarP(&problem, "problem", "p", "", "The decision to make")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "An option to choose from (repeatable)")
	cmd.Flags().BoolVar(&open, "open", false, "Continue in the interactive app")
	return cmd
}

// printNext shows what the conversation is waiting on and how to answer it
func printNext(cmd *cobra.Command, deps *Dependencies, conv *history.Conversation) {
	id := shortID(conv.ID)
	switch stage := session.StageOf(conv); stage {
	case session.StageWeights:
		printMarkdown(cmd, deps, render.QuestionMarkdown(session.CurrentQuestion(conv.Messages)))
		fmt.Fprintf(cmd.ErrOrStderr(), "\nAnswer with: choicemate weights %s impact=5 cost=3 ...\n", id)
	case session.StageRatings:
		printMarkdown(cmd, deps, render.QuestionMarkdown(session.CurrentQuestion(conv.Messages)))
		fmt.Fprintf(cmd.ErrOrStderr(), "\nAnswer with: choicemate rate %s '<option>.impact=4' ...\n", id)
	case session.StageDecision:
		printMarkdown(cmd, deps, render.ConversationMarkdown(conv, false))
		fmt.Fprintf(cmd.ErrOrStderr(), "\nExplain with: choicemate explain %s\n", id)
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Conversation %s is waiting on the backend (round %d)\n", id, conv.Round)
	}
}

// NewWeightsCmd creates the command that answers round 1
func NewWeightsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "weights <reference> [dimension=value...]",
		Short: "Answer the weights question",
		Long: `Submit how much each dimension matters. Dimensions not given keep their
stored or default value; values are clamped to the question's range.

Example:
  choicemate weights @last impact=5 cost=2 risk=4 reversibility=1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}
			q, err := requireStage(conv, session.StageWeights)
			if err != nil {
				return err
			}

			base := forms.InitialWeights(q.Dimensions, forms.StoredWeights(conv.State))
			weights, err := forms.ParseWeightAssignments(base, args[1:])
			if err != nil {
				return err
			}
			for _, dim := range q.Dimensions {
				if v, ok := weights[dim.Key]; ok {
					weights[dim.Key] = forms.ClampWeight(dim, v)
				}
			}
			if err := forms.ValidateWeights(q.Dimensions, weights); err != nil {
				return err
			}

			svc, err := deps.service()
			if err != nil {
				return err
			}
			conv, err = withSpinner(cmd, deps, "Submitting weights", func() (*history.Conversation, error) {
				return svc.SubmitWeights(cmd.Context(), conv.ID, weights)
			})
			if err != nil {
				return err
			}

			printNext(cmd, deps, conv)
			return nil
		},
	}
}

// NewRateCmd creates the command that answers round 2
func NewRateCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <reference> [option.dimension=value...]",
		Short: "Answer the ratings question and get a decision",
		Long: `Rate each option on each dimension from 1 to 5. Cells left out keep their
stored or default value; an empty value ("Stay.cost=") leaves the cell blank
so the backend fills it in.

Example:
  choicemate rate @last Stay.impact=2 Leave.impact=5 Leave.risk=4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}
			q, err := requireStage(conv, session.StageRatings)
			if err != nil {
				return err
			}

			grid := forms.InitialRatings(q, forms.StoredRatings(conv.State))
			if err := forms.ParseRatingAssignments(grid, q.Options, args[1:]); err != nil {
				return err
			}
			ratings, err := forms.ParseRatings(q, grid)
			if err != nil {
				return err
			}

			svc, err := deps.service()
			if err != nil {
				return err
			}
			conv, err = withSpinner(cmd, deps, "Computing decision", func() (*history.Conversation, error) {
				return svc.SubmitRatings(cmd.Context(), conv.ID, ratings)
			})
			if err != nil {
				return err
			}

			printNext(cmd, deps, conv)
			return nil
		},
	}
}

// NewExplainCmd creates the command that explains a decision
func NewExplainCmd(deps *Dependencies) *cobra.Command {
	var copyFlag bool

	cmd := &cobra.Command{
		Use:   "explain <reference>",
		Short: "Explain a conversation's decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}

			svc, err := deps.service()
			if err != nil {
				return err
			}
			resp, err := withSpinner(cmd, deps, "Explaining", func() (*models.ExplainResponse, error) {
				return svc.Explain(cmd.Context(), conv.ID)
			})
			if err != nil {
				return err
			}

			printMarkdown(cmd, deps, render.ExplanationMarkdown(resp))

			if copyFlag || deps.Config.CopyToClipboard {
				if err := deps.Copy(render.ExplanationText(resp)); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				printSuccess(cmd.ErrOrStderr(), "Copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyFlag, "copy", "c", false, "Copy the explanation to the clipboard")
	return cmd
}

// NewDecideCmd creates the command that recomputes a decision from stored facts
func NewDecideCmd(deps *Dependencies) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "decide <reference>",
		Short: "Recompute the decision from the conversation's facts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}

			svc, err := deps.service()
			if err != nil {
				return err
			}
			decision, err := withSpinner(cmd, deps, "Deciding", func() ([]byte, error) {
				return svc.Decide(cmd.Context(), conv.ID)
			})
			if err != nil {
				return err
			}

			printMarkdown(cmd, deps, render.DecisionMarkdown(models.ParseDecision(decision), raw))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Include the raw decision JSON")
	return cmd
}
