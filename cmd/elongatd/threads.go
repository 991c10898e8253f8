package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/elongatd/internal/render"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Print a stored thread as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			t, err := a.Thread(cmd.Context(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return writeJSON(cmd, t)
			}
			md, err := render.ThreadMarkdown(t)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <thread-id>",
		Short: "Report whether a thread and its blog are stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			e, err := a.Exists(cmd.Context(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return writeJSON(cmd, e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "thread: %t\nblog: %t\n", e.Thread, e.Blog)
			return nil
		},
	}
}

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List the most recently stored threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			threads, err := a.Latest(cmd.Context(), limit)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return writeJSON(cmd, threads)
			}
			for _, t := range threads {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  @%-16s %3d posts  updated %s\n    %s\n",
					t.ThreadID, t.Author.Username, t.PostCount, humanize.Time(t.UpdatedAt), excerpt(t.FirstPost.Text, 100))
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "number of threads to list")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <thread-id>",
		Short: "Remove a stored thread and its blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			if err := a.Delete(cmd.Context(), args[0]); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", strconv.Quote(args[0]))
			return nil
		},
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
