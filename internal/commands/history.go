package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/session"
)

// NewHistoryCmd creates the history command and its subcommands
func NewHistoryCmd(deps *Dependencies) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage stored conversations",
		Long: `List, show, search, export and delete stored conversations.

` + history.ListAliases(),
	}

	historyCmd.AddCommand(newHistoryListCmd(deps))
	historyCmd.AddCommand(newHistoryShowCmd(deps))
	historyCmd.AddCommand(newHistoryDeleteCmd(deps))
	historyCmd.AddCommand(newHistoryClearCmd(deps))
	historyCmd.AddCommand(newHistoryExportCmd(deps))
	historyCmd.AddCommand(newHistorySearchCmd(deps))
	return historyCmd
}

func newHistoryListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.store()
			if err != nil {
				return err
			}

			conversations, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(conversations) == 0 {
				fmt.Fprintln(out, "No conversations found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "#\tID\tPROBLEM\tOPTIONS\tSTATUS\tUPDATED")
			_, _ = fmt.Fprintln(w, "-\t--\t-------\t-------\t------\t-------")

			for i, conv := range conversations {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					i+1,
					shortID(conv.ID),
					history.Truncate(conv.Problem, 40),
					len(conv.Options),
					conv.Status(),
					history.FormatRelativeTime(conv.Updated()),
				)
			}

			return w.Flush()
		},
	}
}

func newHistoryShowCmd(deps *Dependencies) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <reference>",
		Short: "Show a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}

			md := render.ConversationMarkdown(conv, raw)
			if stage := session.StageOf(conv); stage == session.StageWeights || stage == session.StageRatings {
				md += "\n" + render.QuestionMarkdown(session.CurrentQuestion(conv.Messages))
			}
			printMarkdown(cmd, deps, md)

			fmt.Fprintf(cmd.ErrOrStderr(), "\nID: %s\nCreated: %s\nUpdated: %s\nMessages: %d\n",
				conv.ID,
				conv.Created().Format("2006-01-02 15:04:05"),
				conv.Updated().Format("2006-01-02 15:04:05"),
				len(conv.Messages),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Include the raw decision JSON")
	return cmd
}

func newHistoryDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <reference>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}

			if err := deps.Store.Delete(conv.ID); err != nil {
				return fmt.Errorf("failed to delete: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation: %s (%s)\n", conv.ID, history.Truncate(conv.Problem, 40))
			return nil
		},
	}
}

func newHistoryClearCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.store()
			if err != nil {
				return err
			}

			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
			return nil
		},
	}
}

func newHistoryExportCmd(deps *Dependencies) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <reference>",
		Short: "Export a conversation as markdown, JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(deps, args[0])
			if err != nil {
				return err
			}

			// Infer from the output extension when no format was given
			if format == "" && output != "" {
				if _, err := history.ParseExportFormat(filepath.Ext(output)); err == nil {
					format = filepath.Ext(output)
				}
			}
			exportFormat, err := history.ParseExportFormat(format)
			if err != nil {
				return err
			}

			data, err := history.Export(conv, exportFormat)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			printSuccess(cmd.ErrOrStderr(), "Exported to "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: markdown, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newHistorySearchCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search problems, options and assumptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.store()
			if err != nil {
				return err
			}

			results, err := store.Search(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No conversations match %s.\n", strconv.Quote(args[0]))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tPROBLEM\tFIELD\tMATCH")
			for _, r := range results {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					shortID(r.Conversation.ID),
					history.Truncate(r.Conversation.Problem, 40),
					r.MatchField,
					r.MatchSnippet,
				)
			}
			return w.Flush()
		},
	}
}
