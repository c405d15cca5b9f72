// Package cli implements the vpnctl operator commands.
package cli

import (
	"github.com/spf13/cobra"

	"vpnserver/internal/config"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.AppConfig, error) {
	return config.LoadFile(o.configPath)
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "vpnctl",
		Short:         "Operate the VPN server api",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: search ./config.yaml, ./config, /etc/vpn-server-api)")

	root.AddCommand(
		newStatusCommand(opts),
		newHousekeepingCommand(opts),
		newKillCommand(opts),
		newTokenCommand(opts),
		newHashSecretCommand(),
	)
	return root
}
