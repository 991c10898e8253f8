package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/elongatd/internal/app"
)

func newBlogifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blogify <thread-id>",
		Short: "Rewrite a stored thread into a blog post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			b, err := a.Blogify(cmd.Context(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return writeJSON(cmd, b)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", b.Title, b.Summary)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <thread-id>",
		Short: "Write a stored thread or its blog to a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := app.ExportThread
			if blog, _ := cmd.Flags().GetBool("blog"); blog {
				kind = app.ExportBlog
			}
			open, _ := cmd.Flags().GetBool("open")

			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			path, err := a.Export(cmd.Context(), args[0], kind)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if open {
				if err := a.OpenLatestExport(); err != nil {
					return writeCommandError(cmd, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("blog", false, "export the blog instead of the raw thread")
	cmd.Flags().Bool("open", false, "open the file after writing it")
	return cmd
}
