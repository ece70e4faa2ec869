package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/client"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var paletteCmd = &cobra.Command{
	Use:     "palette",
	Short:   "List the field kinds that can be dropped into a form",
	GroupID: "builder",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := formsClient.Palette(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tKIND\tNAME")
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ui.RenderMuted(it.ID), ui.RenderKind(it.Kind), it.Name)
		}
		return tw.Flush()
	},
}

var builderCmd = &cobra.Command{
	Use:     "builder",
	Short:   "Compose forms in builder sessions",
	GroupID: "builder",
}

var builderSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active builder sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roster, err := formsClient.ListSessions(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), roster)
		}
		printRoster(cmd.OutOrStdout(), roster)
		return nil
	},
}

var builderNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Start a builder session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := formsClient.CreateSession(context.Background(), args[0])
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a builder session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := formsClient.GetSession(context.Background(), args[0])
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <name>",
	Short: "Rename the form being built",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := formsClient.RenameSession(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderDropCmd = &cobra.Command{
	Use:   "drop <session-id> <kind|field-id>",
	Short: "Drop a palette kind or an existing field onto a target",
	Long: `Drop a palette kind or an existing field onto a target.

A kind (text, password, number, datetime) adds a new field: at the end when
dropped on the field area, or at the target field's position. A field id
moves that field to the target field's position.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		over, _ := cmd.Flags().GetString("over")
		res, err := formsClient.Drop(context.Background(), args[0], builder.DragEnd{
			Active: dragSource(args[1]),
			Over:   over,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		if !res.Changed {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderMuted("Drop had no effect."))
		}
		printSession(cmd.OutOrStdout(), &res.Session)
		return nil
	},
}

var builderLabelCmd = &cobra.Command{
	Use:   "label <session-id> <field-id> <label>",
	Short: "Change a field's label",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[2]
		sess, err := formsClient.UpdateField(context.Background(), args[0], args[1],
			&client.UpdateFieldRequest{Label: &label})
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderRequireCmd = &cobra.Command{
	Use:   "require <session-id> <field-id>",
	Short: "Mark a field as required (or optional with --off)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		off, _ := cmd.Flags().GetBool("off")
		required := !off
		sess, err := formsClient.UpdateField(context.Background(), args[0], args[1],
			&client.UpdateFieldRequest{Required: &required})
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderRmFieldCmd = &cobra.Command{
	Use:   "rm-field <session-id> <field-id>",
	Short: "Remove a field from a builder session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := formsClient.DeleteField(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		return showSession(cmd, sess)
	},
}

var builderPublishCmd = &cobra.Command{
	Use:   "publish <session-id>",
	Short: "Create a form from a builder session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := formsClient.PublishSession(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), def)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Published form %s (%s)\n", ui.RenderOK("✓"), def.Name, def.ID)
		return nil
	},
}

var builderDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Discard a builder session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := formsClient.DeleteSession(context.Background(), args[0]); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
		}
		return nil
	},
}

// dragSource maps a kind name to its palette source id. Anything else is
// taken as the id of an existing field.
func dragSource(arg string) string {
	if k, err := model.ParseFieldKind(arg); err == nil {
		return builder.NewSourceID(k)
	}
	return arg
}

func showSession(cmd *cobra.Command, sess *model.BuilderSession) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), sess)
	}
	printSession(cmd.OutOrStdout(), sess)
	return nil
}

func init() {
	builderDropCmd.Flags().String("over", builder.ContainerID, "drop target: the field area or a field id")
	builderRequireCmd.Flags().Bool("off", false, "make the field optional")

	builderCmd.AddCommand(
		builderSessionsCmd,
		builderNewCmd,
		builderShowCmd,
		builderRenameCmd,
		builderDropCmd,
		builderLabelCmd,
		builderRequireCmd,
		builderRmFieldCmd,
		builderPublishCmd,
		builderDeleteCmd,
	)
}
