package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

type healthReport struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Latency string `json:"latency"`
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the formbuilder service is up",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		status, err := formsClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health check against %s: %w", serviceURL, err)
		}
		report := healthReport{
			Service: serviceURL,
			Status:  status,
			Latency: time.Since(start).Round(time.Millisecond).String(),
		}

		switch {
		case jsonOutput:
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		case status == "ok":
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", status)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", ui.RenderError(status))
		}
		if status != "ok" {
			return fmt.Errorf("service reports %q", status)
		}
		return nil
	},
}
