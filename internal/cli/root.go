package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
)

// Execute runs the command line and releases telemetry, the metrics server
// and the database whether or not the command succeeded.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := &App{}

	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)

	return errors.Join(err, app.close(ctx))
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modelscope_downloader",
		Short: "Download models from ModelScope",
		Long: `modelscope_downloader fetches every file of a ModelScope model repository,
resuming partially downloaded files and downloading them concurrently.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(app.output); err != nil {
				return err
			}

			ctx, err := app.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cmd.SetContext(ctx)

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&app.output, "output", "o", outputTable, "output format (table, yaml)")

	cmd.AddCommand(
		newDownloadCmd(app),
		newDownloadFileCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newListCmd(app),
		newHistoryCmd(app),
	)

	return cmd
}
