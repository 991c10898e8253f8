package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-capture the configured status URLs on a schedule",
		Long: "Re-captures every [watch] status_urls entry each interval_hours, refreshing " +
			"stored metrics. SIGHUP reloads the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer a.Close()

			if once, _ := cmd.Flags().GetBool("once"); once {
				if err := a.Watch(cmd.Context()); err != nil {
					return writeCommandError(cmd, err)
				}
				return nil
			}

			sched, err := a.StartWatch()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			for _, j := range sched.ListJobs() {
				log.Info().Str("job", j.Name).Time("next_run", j.NextRun).Msg("scheduled")
			}

			signals := make(chan os.Signal, 2)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(signals)

			for sig := range signals {
				if sig != syscall.SIGHUP {
					break
				}
				// interval and timezone changes need a restart
				if err := a.ReloadConfig(); err != nil {
					log.Error().Err(err).Msg("failed to reload config")
				}
			}

			<-sched.Stop().Done()
			return nil
		},
	}
	cmd.Flags().Bool("once", false, "capture once and exit")
	return cmd
}
