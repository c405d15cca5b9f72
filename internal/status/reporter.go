// Package status computes per-profile utilization of the VPN address pools.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"vpnserver/internal/config"
)

// perProcessReserved is the number of pool addresses each OpenVPN process
// keeps for itself (network, gateway, broadcast).
const perProcessReserved = 3

var ErrIPv6Range = errors.New("range is not an IPv4 prefix")

// MaxClientLimit is the number of clients the IPv4 range of the profile can
// hold across all of its processes.
func MaxClientLimit(profile config.ProfileConfig) (int, error) {
	prefix, err := netip.ParsePrefix(profile.Range)
	if err != nil {
		return 0, fmt.Errorf("parse range %q: %w", profile.Range, err)
	}
	if !prefix.Addr().Is4() {
		return 0, ErrIPv6Range
	}
	return 1<<(32-prefix.Bits()) - perProcessReserved*len(profile.VPNProtoPorts), nil
}

type ProfileStatus struct {
	ProfileID      string           `json:"profile_id"`
	ActiveCount    int              `json:"active_connection_count"`
	MaxClientLimit int              `json:"max_client_limit"`
	Utilization    int              `json:"percentage_in_use"`
	Misconfigured  bool             `json:"misconfigured"`
	Error          string           `json:"error,omitempty"`
	Connections    []ConnectionInfo `json:"connections"`
}

type Reporter struct {
	profiles *config.Profiles
	source   LiveConnectionSource
}

func NewReporter(profiles *config.Profiles, source LiveConnectionSource) *Reporter {
	return &Reporter{profiles: profiles, source: source}
}

// Report returns one entry per configured profile in profile number order.
// A profile whose capacity cannot be computed is marked misconfigured; the
// others are still reported.
func (r *Reporter) Report(ctx context.Context) ([]ProfileStatus, error) {
	profiles := r.profiles.List()
	connections, err := r.source.ConnectionList(ctx, profiles)
	if err != nil {
		return nil, err
	}

	out := make([]ProfileStatus, 0, len(profiles))
	for _, profile := range profiles {
		list := connections[profile.ID]
		if list == nil {
			list = []ConnectionInfo{}
		}
		status := ProfileStatus{
			ProfileID:   profile.ID,
			ActiveCount: len(list),
			Connections: list,
		}

		limit, err := MaxClientLimit(profile)
		switch {
		case err != nil:
			status.Misconfigured = true
			status.Error = err.Error()
		case limit <= 0:
			status.MaxClientLimit = limit
			status.Misconfigured = true
			status.Error = "range too small for the number of processes"
		default:
			status.MaxClientLimit = limit
			status.Utilization = status.ActiveCount * 100 / limit
		}
		out = append(out, status)
	}
	return out, nil
}

// Render writes the line oriented report used by vpnctl status.
func Render(w io.Writer, statuses []ProfileStatus, verbose bool) error {
	for _, s := range statuses {
		usage := fmt.Sprintf("%d%%", s.Utilization)
		if s.Misconfigured {
			usage = "misconfigured"
		}
		if _, err := fmt.Fprintf(w, "%s,%d,%d,%s\n", s.ProfileID, s.ActiveCount, s.MaxClientLimit, usage); err != nil {
			return err
		}
		if !verbose {
			continue
		}
		for _, c := range s.Connections {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", s.ProfileID, c.CommonName, strings.Join(c.VirtualAddress, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}
