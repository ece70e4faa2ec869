package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/client"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var (
	serviceURL string
	profile    string
	jsonOutput bool
	noColor    bool

	formsClient client.FormsClient
)

func defaultServiceURL() string {
	if s := os.Getenv("FORMBUILDER_URL"); s != "" {
		return s
	}
	if u := activeProfile().URL; u != "" {
		return u
	}
	return "http://localhost:3000"
}

var rootCmd = &cobra.Command{
	Use:           "formctl <command>",
	Short:         "Build forms, fill them in and read their submissions",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor(os.Stdout) {
			ui.ForceNoColor()
		}
		url := serviceURL
		if profile != "" {
			p, err := lookupProfile(profile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("url") {
				url = p.URL
			}
		}
		formsClient = client.NewHTTPClient(url)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serviceURL, "url", defaultServiceURL(), "formbuilder service URL")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "named profile from the profiles file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "forms", Title: "Forms:"},
		&cobra.Group{ID: "builder", Title: "Builder:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Forms
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(exportCmd)

	// Builder
	rootCmd.AddCommand(paletteCmd)
	rootCmd.AddCommand(builderCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
