package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vpnserver/internal/database"
	"vpnserver/internal/housekeeping"
	"vpnserver/internal/log"
)

func newHousekeepingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "housekeeping",
		Short: "Delete expired connection log and TOTP log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := log.NewWithWriter(cmd.ErrOrStderr(), cfg.Environment, cfg.Logging.Level)
			ctx := cmd.Context()

			pool, db, err := database.Open(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer pool.Close()
			defer db.Close()

			sweeper, err := housekeeping.NewFromConfig(ctx, cfg, db, logger)
			if err != nil {
				return err
			}
			result, err := sweeper.Sweep(ctx, time.Now().UTC())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "connection_log %d\ntotp_log %d\n", result.ConnectionLogDeleted, result.TotpLogDeleted)
			return err
		},
	}
}
