package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/models"
)

// NewPingCmd creates the command that checks the backend is reachable
func NewPingCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the decision backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.client()
			if err != nil {
				return err
			}

			start := time.Now()
			health, err := withSpinner(cmd, deps, "Contacting "+client.BaseURL(), func() (*models.HealthResponse, error) {
				return client.Health(cmd.Context())
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			deps.Logger.Debug("health check", zap.Bool("ok", health.OK), zap.Duration("elapsed", elapsed))

			if !health.OK {
				return fmt.Errorf("backend at %s reported it is not healthy", client.BaseURL())
			}
			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Backend at %s is healthy (%s)", client.BaseURL(), elapsed.Round(time.Millisecond)))
			return nil
		},
	}
}
