package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/elongatd/internal/app"
	"github.com/ibeckermayer/elongatd/internal/importer"
	"github.com/ibeckermayer/elongatd/internal/types"
)

func newCaptureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture <status-url>...",
		Short: "Load status pages, extract their threads and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			var failed []error
			var captured []*types.Thread
			for _, u := range args {
				t, err := a.Capture(cmd.Context(), u)
				switch {
				case errors.Is(err, app.ErrNotActionable):
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: not a thread (%d posts)\n", u, len(t.Posts))
				case err != nil:
					failed = append(failed, err)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", u, err)
				default:
					captured = append(captured, t)
					if !jsonMode(cmd) {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  @%s  %d posts  %s likes\n",
							t.ThreadID, t.Author.Username, len(t.Posts), humanize.Comma(int64(t.TotalMetrics.Likes)))
					}
				}
			}

			if jsonMode(cmd) {
				if err := writeJSON(cmd, captured); err != nil {
					return err
				}
			}
			if len(failed) > 0 {
				// each failure was printed next to its URL
				return reportedError{errors.Join(failed...)}
			}
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [payload.json|capture.har]...",
		Short: "Normalize saved payloads and store the threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, _ := cmd.Flags().GetBool("cached")
			if !cached && len(args) == 0 {
				return writeCommandError(cmd, fmt.Errorf("pass payload files or --cached"))
			}

			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			var results []importer.Result
			if cached {
				results, err = a.ImportCached(cmd.Context())
			} else {
				results, err = a.Import(cmd.Context(), args)
			}
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode(cmd) {
				return writeJSON(cmd, results)
			}
			for _, r := range results {
				line := fmt.Sprintf("%-8s %s", r.Status, r.Path)
				if r.ThreadID != "" {
					line += fmt.Sprintf("  %s (%d posts)", r.ThreadID, r.Posts)
				}
				if r.Err != nil {
					line += "  " + r.Err.Error()
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			counts := importer.Counts(results)
			fmt.Fprintf(cmd.OutOrStdout(), "%d saved, %d skipped, %d failed\n",
				counts[importer.StatusSaved], counts[importer.StatusSkipped], counts[importer.StatusFailed])
			return nil
		},
	}
	cmd.Flags().Bool("cached", false, "replay every payload in the capture cache")
	return cmd
}
