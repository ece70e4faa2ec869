package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/export"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export forms and their submissions as JSONL",
	GroupID: "forms",
	Long: `Export form definitions and their submissions as JSON lines: a header,
then each form followed by its records.

Without a destination the export is written to stdout. --file, --git-repo
and --s3-bucket may be combined; every destination receives the same data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formIDs, _ := cmd.Flags().GetStringSlice("form")
		ctx := context.Background()

		dests, err := exportDestinations(ctx, cmd)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return export.WriteJSONL(ctx, formsClient, formIDs, cmd.OutOrStdout())
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		if err := export.Run(ctx, formsClient, formIDs, dests, logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported to %d destination(s)\n", ui.RenderOK("✓"), len(dests))
		return nil
	},
}

func exportDestinations(ctx context.Context, cmd *cobra.Command) ([]export.Destination, error) {
	file, _ := cmd.Flags().GetString("file")
	gitRepo, _ := cmd.Flags().GetString("git-repo")
	gitFile, _ := cmd.Flags().GetString("git-file")
	gitBranch, _ := cmd.Flags().GetString("git-branch")
	bucket, _ := cmd.Flags().GetString("s3-bucket")
	key, _ := cmd.Flags().GetString("s3-key")
	region, _ := cmd.Flags().GetString("s3-region")
	endpoint, _ := cmd.Flags().GetString("s3-endpoint")

	var dests []export.Destination
	if file != "" {
		dests = append(dests, export.NewFileDestination(file))
	}
	if gitRepo != "" {
		dests = append(dests, export.NewGitDestination(gitRepo, gitFile, gitBranch))
	}
	if bucket != "" {
		d, err := export.NewS3Destination(ctx, bucket, key, region, endpoint)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	} else if cmd.Flags().Changed("s3-key") || cmd.Flags().Changed("s3-endpoint") {
		return nil, errors.New("--s3-key and --s3-endpoint need --s3-bucket")
	}
	return dests, nil
}

func init() {
	exportCmd.Flags().StringSlice("form", nil, "form ids to export (default all)")
	exportCmd.Flags().String("file", "", "write the export to this file")
	exportCmd.Flags().String("git-repo", "", "commit the export in this local clone and push it")
	exportCmd.Flags().String("git-file", "forms.jsonl", "file path inside the git repository")
	exportCmd.Flags().String("git-branch", "main", "git branch to commit to")
	exportCmd.Flags().String("s3-bucket", "", "upload the export to this S3 bucket")
	exportCmd.Flags().String("s3-key", "formbuilder/export.jsonl", "S3 object key")
	exportCmd.Flags().String("s3-region", "us-east-1", "S3 region")
	exportCmd.Flags().String("s3-endpoint", "", "custom S3 endpoint (e.g. MinIO)")
}
