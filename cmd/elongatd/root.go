package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/elongatd/internal/app"
	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/logger"
)

const appName = "elongatd"

type configKey struct{}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Capture X threads and turn them into blog posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			level := cfg.Logging.Level
			if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
				level = flag
			}
			logger.Setup(logger.Options{
				Level:  level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(appName + " version {{.Version}}\n")

	cmd.PersistentFlags().String("config", "", "config file (default: $"+config.EnvConfigPath+" or the user config dir)")
	cmd.PersistentFlags().String("log-level", "", "override logging.level")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		newCaptureCmd(),
		newImportCmd(),
		newShowCmd(),
		newExistsCmd(),
		newLatestCmd(),
		newDeleteCmd(),
		newBlogifyCmd(),
		newExportCmd(),
		newWatchCmd(),
		newOpenCmd(),
		newLogoutCmd(),
		newBotTestCmd(),
	)

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// openApp builds the App from the config loaded by the root command
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := configFrom(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.Open(cfg)
}

func jsonMode(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportedError is an error already written to stderr
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
	return reportedError{err}
}
