package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/choicemate/internal/config"
	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/tui"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change choicemate settings. Settings are stored as JSON in the
config directory ($CHOICEMATE_HOME or ~/.choicemate).`,
	}

	configCmd.AddCommand(newConfigShowCmd(deps))
	configCmd.AddCommand(newConfigSetCmd(deps))
	configCmd.AddCommand(newConfigPathCmd())
	configCmd.AddCommand(newConfigThemesCmd())
	return configCmd
}

func newConfigShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(deps.Config, "", "  ")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(data))

			base := deps.Config.BaseURL()
			if base == "" {
				base = "(not configured)"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\nBackend: %s\n", base)
			return nil
		},
	}
}

func newConfigSetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: "Change a setting and save it.\n\nKeys:\n  " +
			strings.Join(config.Keys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Start from the file, not the environment-adjusted view
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if args[0] == "tui_theme" {
				if _, ok := render.GetTUIThemeByName(args[1]); !ok {
					return fmt.Errorf("unknown theme %q (available: %s)", args[1], strings.Join(render.TUIThemeNames(), ", "))
				}
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			*deps.Config = cfg
			if args[0] == "tui_theme" {
				render.SetTUITheme(cfg.TUITheme)
				tui.UpdateTheme()
			}

			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List markdown and interface themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Markdown styles (markdown.style):")
			for _, t := range render.AvailableThemes() {
				fmt.Fprintf(out, "  %-12s %s\n", t.Name, t.Description)
			}
			fmt.Fprintln(out, "\nInterface themes (tui_theme):")
			for _, t := range render.AvailableTUIThemes() {
				fmt.Fprintf(out, "  %-12s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}
}
