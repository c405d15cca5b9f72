package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vpnserver/internal/log"
	"vpnserver/internal/openvpn"
)

func newKillCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <common-name>",
		Short: "Disconnect a certificate from every OpenVPN process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := log.NewWithWriter(cmd.ErrOrStderr(), cfg.Environment, "warn")

			management := openvpn.NewManagementClient(cfg.OpenVPN.DialTimeout, cfg.OpenVPN.ReadTimeout)
			manager := openvpn.NewServerManager(cfg.Profiles().List(), management, logger)
			return runKill(cmd.Context(), cmd.OutOrStdout(), manager, args[0])
		},
	}
}

type clientKiller interface {
	KillClient(ctx context.Context, commonName string) (int, error)
}

func runKill(ctx context.Context, w io.Writer, k clientKiller, commonName string) error {
	n, err := k.KillClient(ctx, commonName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d client(s) killed\n", n)
	return err
}
