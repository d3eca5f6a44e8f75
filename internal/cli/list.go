package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/italolelis/modelscope_downloader/internal/registry"
	"github.com/italolelis/modelscope_downloader/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// TabWidth is the padding used for table output.
const TabWidth = 3

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models downloaded to known save directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := app.registry().ListModels()
			if err != nil {
				return fmt.Errorf("failed to list models: %w", err)
			}

			return printModels(cmd.OutOrStdout(), app.output, models)
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var modelID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the outcome of past file downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := app.history()
			if err != nil {
				return err
			}

			if repo == nil {
				return fmt.Errorf("download history is disabled (HISTORY_ENABLED=false)")
			}

			records, err := repo.GetDownloads(cmd.Context(), modelID)
			if err != nil {
				return fmt.Errorf("failed to read download history: %w", err)
			}

			return printHistory(cmd.OutOrStdout(), app.output, records)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "only show files of this model")

	return cmd
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (table, yaml)", format)
	}
}

func printModels(w io.Writer, format string, models []registry.Model) error {
	if format == outputYAML {
		return writeYAML(w, models)
	}

	if len(models) == 0 {
		_, err := fmt.Fprintln(w, "No local models found.")

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	for i, m := range models {
		_, _ = fmt.Fprintf(tw, "%02d. %s\t%s\n", i+1, m.ID, m.Path)
	}

	return tw.Flush()
}

func printHistory(w io.Writer, format string, records []storage.DownloadRecord) error {
	if format == outputYAML {
		return writeYAML(w, records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No downloads recorded.")

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MODEL\tFILE\tSTATUS\tMODE\tWRITTEN\tSIZE\tWHEN\tERROR")

	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.RepoID, r.FilePath, r.Status, r.Mode, r.Written, r.Size, r.DownloadedAt.Local().Format("2006-01-02 15:04:05"), r.Error)
	}

	return tw.Flush()
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}

	return enc.Close()
}
