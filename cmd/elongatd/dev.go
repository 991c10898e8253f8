package main

import (
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/elongatd/internal/auth"
	browseropts "github.com/ibeckermayer/elongatd/internal/browser"
	"github.com/ibeckermayer/elongatd/internal/config"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache|export>",
		Short:     "Open the config file, cache directory or latest export",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "cache", "export"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error

			switch args[0] {
			case "config":
				path, err = config.ConfigPath()
			case "cache":
				path, err = config.CacheDir()
			case "export":
				a, err := openApp(cmd)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				defer a.Close()
				if err := a.OpenLatestExport(); err != nil {
					return writeCommandError(cmd, err)
				}
				return nil
			default:
				return writeCommandError(cmd, fmt.Errorf("unknown target: %s", args[0]))
			}
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("failed to get path: %w", err))
			}

			if err := browser.OpenFile(path); err != nil {
				return writeCommandError(cmd, fmt.Errorf("failed to open: %w", err))
			}
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored X session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			m := auth.NewManager(auth.NewCookieStore(cfg.Capture.CookieFile))
			if err := m.Logout(); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cfg.Capture.CookieFile)
			return nil
		},
	}
}

func newBotTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open bot.sannysoft.com to audit the capture browser's fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().Msg("opening bot.sannysoft.com with stealth browser options")

			ctx, cancel := browseropts.NewContext(cmd.Context(), false) // non-headless so you can see it
			defer cancel()

			go func() {
				if err := chromedp.Run(ctx, chromedp.Navigate("https://bot.sannysoft.com")); err != nil {
					log.Error().Err(err).Msg("failed to navigate")
				}
			}()

			fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to end program...")
			fmt.Scanln()
			return nil
		},
	}
}
