package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vpnserver/internal/security"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		principal string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an api consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if _, ok := cfg.Security.APIConsumers[principal]; !ok {
				return fmt.Errorf("unknown api consumer %q", principal)
			}
			if ttl <= 0 {
				ttl = cfg.Security.JWTTTL
			}

			token, err := security.GenerateToken(cfg.Security.JWTSecret, principal, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "api consumer name, e.g. vpn-server-node")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default security.jwtttl)")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func newHashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Encode an api consumer secret as argon2id for the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("secret must not be empty")
			}
			encoded, err := security.HashSecret(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return err
		},
	}
}
