package status

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vpnserver/internal/config"
	"vpnserver/internal/models"
	"vpnserver/internal/openvpn"
)

// ConnectionInfo is one active client of a profile.
type ConnectionInfo struct {
	CommonName     string   `json:"common_name"`
	VirtualAddress []string `json:"virtual_address"`
}

// LiveConnectionSource lists the active clients of each given profile, keyed
// by profile id. Every requested profile has an entry, possibly empty.
type LiveConnectionSource interface {
	ConnectionList(ctx context.Context, profiles []config.ProfileConfig) (map[string][]ConnectionInfo, error)
}

type OpenConnectionLister interface {
	OpenConnections(ctx context.Context, profileID string) ([]models.Connection, error)
}

// StorageSource reports the open rows of the connection log. Rows that carry
// a disconnect time are skipped even if the lister returns them.
type StorageSource struct {
	connections OpenConnectionLister
}

func NewStorageSource(connections OpenConnectionLister) *StorageSource {
	return &StorageSource{connections: connections}
}

func (s *StorageSource) ConnectionList(ctx context.Context, profiles []config.ProfileConfig) (map[string][]ConnectionInfo, error) {
	out := make(map[string][]ConnectionInfo, len(profiles))
	for _, profile := range profiles {
		rows, err := s.connections.OpenConnections(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("open connections of %s: %w", profile.ID, err)
		}
		list := make([]ConnectionInfo, 0, len(rows))
		for _, row := range rows {
			if !row.Open() {
				continue
			}
			addrs := []string{row.IP4}
			if row.IP6 != "" {
				addrs = append(addrs, row.IP6)
			}
			list = append(list, ConnectionInfo{CommonName: row.CommonName, VirtualAddress: addrs})
		}
		out[profile.ID] = list
	}
	return out, nil
}

type ManagementQuerier interface {
	ConnectionList(ctx context.Context, addr string) ([]openvpn.ClientInfo, error)
}

// ManagementSource queries every OpenVPN process of every profile over its
// management interface. Unreachable processes are logged and skipped.
type ManagementSource struct {
	management ManagementQuerier
	log        zerolog.Logger
}

func NewManagementSource(management ManagementQuerier, log zerolog.Logger) *ManagementSource {
	return &ManagementSource{management: management, log: log}
}

func (s *ManagementSource) ConnectionList(ctx context.Context, profiles []config.ProfileConfig) (map[string][]ConnectionInfo, error) {
	results := make([][][]openvpn.ClientInfo, len(profiles))

	var g errgroup.Group
	for i, profile := range profiles {
		results[i] = make([][]openvpn.ClientInfo, len(profile.VPNProtoPorts))
		for j := range profile.VPNProtoPorts {
			g.Go(func() error {
				addr := net.JoinHostPort(profile.ManagementIP, strconv.Itoa(openvpn.ManagementPort(profile.ProfileNumber, j)))
				clients, err := s.management.ConnectionList(ctx, addr)
				if err != nil {
					s.log.Warn().
						Err(err).
						Str("profile_id", profile.ID).
						Str("addr", addr).
						Msg("management interface unreachable, skipping")
					return nil
				}
				results[i][j] = clients
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]ConnectionInfo, len(profiles))
	for i, profile := range profiles {
		list := []ConnectionInfo{}
		for _, clients := range results[i] {
			for _, client := range clients {
				list = append(list, ConnectionInfo{
					CommonName:     client.CommonName,
					VirtualAddress: client.VirtualAddresses(),
				})
			}
		}
		out[profile.ID] = list
	}
	return out, nil
}
