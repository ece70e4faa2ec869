package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var formsCmd = &cobra.Command{
	Use:     "forms",
	Short:   "List, show and create form definitions",
	GroupID: "forms",
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every form definition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		forms, err := formsClient.ListForms(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), forms)
		}
		printFormList(cmd.OutOrStdout(), forms)
		return nil
	},
}

var formsShowCmd = &cobra.Command{
	Use:   "show <form-id>",
	Short: "Show a form definition and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := formsClient.GetForm(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), def)
		}
		printForm(cmd.OutOrStdout(), def)
		return nil
	},
}

var formsCreateCmd = &cobra.Command{
	Use:   "create --file <script.yaml>",
	Short: "Create a form from a builder script",
	Long: `Create a form by replaying a YAML builder script through the
drag-and-drop engine and publishing the result:

  name: Contact
  fields:
    - kind: text
      label: Full name
    - kind: number
      label: Age
      required: false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		sc, err := builder.LoadScript(f)
		if err != nil {
			return err
		}
		state, err := sc.Build()
		if err != nil {
			return err
		}
		def, err := state.Publish(context.Background(), formsClient)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), def)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Created form %s (%s)\n", ui.RenderOK("✓"), def.Name, def.ID)
		return nil
	},
}

func init() {
	formsCreateCmd.Flags().StringP("file", "f", "", "builder script (YAML); kinds: "+kindList())
	_ = formsCreateCmd.MarkFlagRequired("file")

	formsCmd.AddCommand(formsListCmd, formsShowCmd, formsCreateCmd)
}
