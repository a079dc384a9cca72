// Package commands provides CLI commands for choicemate.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// annotationInteractive marks commands that take over the terminal
const annotationInteractive = "interactive"

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationInteractive] == "true"
}

// opensApp reports whether a one-shot command was asked to continue in the app
func opensApp(cmd *cobra.Command) bool {
	open, err := cmd.Flags().GetBool("open")
	return err == nil && open
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "choicemate",
		Short: "Decision assistant for the terminal",
		Long: `choicemate walks you through a decision: describe the problem and the
options, weigh what matters, rate each option, and get a recommendation
from the decision backend together with an explanation.

Examples:
  choicemate                                Open the interactive app
  choicemate new "Change jobs?" Stay Leave  Start a conversation
  choicemate weights @last impact=5 cost=2  Answer round 1
  choicemate rate @last Stay.impact=3       Answer round 2 and decide
  choicemate explain @last --copy           Explain the decision
  choicemate open '#/conversation/<id>'     Open a conversation in the app`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Annotations:   map[string]string{annotationInteractive: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			deps.defaults()
			return deps.setup(isInteractive(cmd) || (opensApp(cmd) && deps.IsTTY()))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if deps.Logger != nil {
				_ = deps.Logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "choicemate %s (built %s)\n", Version, BuildTime)
				return nil
			}

			// Piped output has no use for the app
			if !deps.IsTTY() {
				return cmd.Help()
			}
			return runOpen(cmd, deps, "")
		},
	}

	rootCmd.PersistentFlags().BoolVar(&deps.Verbose, "verbose", false, "Enable debug logging")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(NewOpenCmd(deps))
	rootCmd.AddCommand(NewNewCmd(deps))
	rootCmd.AddCommand(NewWeightsCmd(deps))
	rootCmd.AddCommand(NewRateCmd(deps))
	rootCmd.AddCommand(NewExplainCmd(deps))
	rootCmd.AddCommand(NewDecideCmd(deps))
	rootCmd.AddCommand(NewHistoryCmd(deps))
	rootCmd.AddCommand(NewConfigCmd(deps))
	rootCmd.AddCommand(NewPingCmd(deps))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	deps := NewDependencies()
	cmd, err := NewRootCmd(deps).ExecuteC()
	closeErr := deps.Close()
	if err != nil {
		name := "choicemate"
		if cmd != nil {
			name = cmd.Name()
		}
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, name))
		os.Exit(1)
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(closeErr, "close storage"))
		os.Exit(1)
	}
}
