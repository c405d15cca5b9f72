package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"vpnserver/internal/database"
	"vpnserver/internal/log"
	"vpnserver/internal/repository"
	"vpnserver/internal/status"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var verbose, live bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print active connections and pool utilization per profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := log.NewWithWriter(cmd.ErrOrStderr(), cfg.Environment, "warn")
			ctx := cmd.Context()

			liveQuery := live || cfg.OpenVPN.LiveQuery
			var open status.OpenConnectionLister
			if !liveQuery {
				pool, db, err := database.Open(ctx, cfg.Postgres)
				if err != nil {
					return err
				}
				defer pool.Close()
				defer db.Close()
				open = repository.NewConnectionRepository(db)
			}

			source := status.NewSource(cfg.OpenVPN, liveQuery, open, logger)
			return runStatus(ctx, cmd.OutOrStdout(), status.NewReporter(cfg.Profiles(), source), verbose)
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "list every connection")
	cmd.Flags().BoolVar(&live, "live", false, "query the OpenVPN management interfaces instead of the connection log")
	return cmd
}

type reporter interface {
	Report(ctx context.Context) ([]status.ProfileStatus, error)
}

func runStatus(ctx context.Context, w io.Writer, r reporter, verbose bool) error {
	statuses, err := r.Report(ctx)
	if err != nil {
		return err
	}
	return status.Render(w, statuses, verbose)
}
