package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/italolelis/modelscope_downloader/internal/downloader"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
	"github.com/italolelis/modelscope_downloader/internal/notifier"
	"github.com/spf13/cobra"
)

func newDownloadCmd(app *App) *cobra.Command {
	var modelID, saveDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every file of a model",
		Long: `Download every file of a model into <save-dir>/<model-id>.

Files that are already complete are skipped and partial files are resumed,
so running the command again retries whatever failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd.Context(), app, cmd, modelID, app.saveDir(saveDir))
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model id, e.g. Qwen/Qwen2-0.5B")
	cmd.Flags().StringVarP(&saveDir, "save-dir", "s", "", "directory to save models in (default: $SAVE_DIR or ~/.modelscope/models)")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func newDownloadFileCmd(app *App) *cobra.Command {
	var modelID, filePath, saveDir string

	cmd := &cobra.Command{
		Use:   "download-file",
		Short: "Download a single file of a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownloadFile(cmd.Context(), app, cmd, modelID, filePath, app.saveDir(saveDir))
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model id, e.g. Qwen/Qwen2-0.5B")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "path of the file inside the model, e.g. config.json")
	cmd.Flags().StringVarP(&saveDir, "save-dir", "s", "", "directory to save models in (default: $SAVE_DIR or ~/.modelscope/models)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *App) saveDir(flag string) string {
	if flag != "" {
		return flag
	}

	return a.cfg.SaveDir
}

func runDownload(ctx context.Context, app *App, cmd *cobra.Command, modelID, saveDir string) error {
	ctx = logctx.With(ctx, "repo_id", modelID)
	logger := logctx.LoggerFromContext(ctx)

	d, err := app.downloader()
	if err != nil {
		return err
	}

	modelDir := downloader.ModelDir(saveDir, modelID)
	fmt.Fprintf(cmd.OutOrStdout(), "Downloading model %s to: %s\n", modelID, modelDir)

	outcome := notifier.Outcome{RepoID: modelID, Dir: modelDir}

	err = d.Download(ctx, modelID, saveDir)
	if err != nil {
		outcome.Err = err

		var agg *downloader.AggregateError
		if errors.As(err, &agg) {
			outcome.Failed, outcome.Total = len(agg.Failures), agg.Total
		}

		app.notify(ctx, outcome)

		return err
	}

	logger.Info("model downloaded", "path", modelDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Model %s downloaded to: %s\n", modelID, modelDir)
	app.notify(ctx, outcome)

	return nil
}

func runDownloadFile(ctx context.Context, app *App, cmd *cobra.Command, modelID, filePath, saveDir string) error {
	ctx = logctx.With(ctx, "repo_id", modelID, "file_path", filePath)

	d, err := app.downloader()
	if err != nil {
		return err
	}

	modelDir := downloader.ModelDir(saveDir, modelID)
	fmt.Fprintf(cmd.OutOrStdout(), "Downloading file %s from model %s to: %s\n", filePath, modelID, modelDir)

	outcome := notifier.Outcome{RepoID: modelID, File: filePath, Dir: modelDir}

	if err := d.DownloadFile(ctx, modelID, filePath, saveDir); err != nil {
		outcome.Err = err
		app.notify(ctx, outcome)

		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "File %s downloaded to: %s\n", filePath, modelDir)
	app.notify(ctx, outcome)

	return nil
}
