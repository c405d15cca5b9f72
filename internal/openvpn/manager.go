package openvpn

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vpnserver/internal/config"
)

type Killer interface {
	Kill(ctx context.Context, addr, commonName string) (int, error)
}

// ServerManager sends commands to every OpenVPN process of every profile.
type ServerManager struct {
	profiles []config.ProfileConfig
	client   Killer
	log      zerolog.Logger
}

func NewServerManager(profiles []config.ProfileConfig, client Killer, log zerolog.Logger) *ServerManager {
	return &ServerManager{profiles: profiles, client: client, log: log}
}

// KillClient disconnects commonName wherever it is connected and returns the
// total number of clients killed. Unreachable processes are logged and
// skipped.
func (s *ServerManager) KillClient(ctx context.Context, commonName string) (int, error) {
	var (
		g      errgroup.Group
		killed atomic.Int64
	)
	for _, profile := range s.profiles {
		for i := range profile.VPNProtoPorts {
			g.Go(func() error {
				addr := net.JoinHostPort(profile.ManagementIP, strconv.Itoa(ManagementPort(profile.ProfileNumber, i)))
				n, err := s.client.Kill(ctx, addr, commonName)
				if err != nil {
					s.log.Warn().
						Err(err).
						Str("profile_id", profile.ID).
						Str("addr", addr).
						Msg("kill failed, skipping process")
					return nil
				}
				killed.Add(int64(n))
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	total := int(killed.Load())
	s.log.Info().
		Str("common_name", commonName).
		Int("clients_killed", total).
		Msg("kill client")
	return total, nil
}
