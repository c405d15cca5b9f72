package status

import (
	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/openvpn"
)

// NewSource picks the connection source: the management interfaces when
// liveQuery is set, otherwise the open rows of the connection log.
func NewSource(cfg config.OpenVPNConfig, liveQuery bool, open OpenConnectionLister, log zerolog.Logger) LiveConnectionSource {
	if liveQuery {
		return NewManagementSource(openvpn.NewManagementClient(cfg.DialTimeout, cfg.ReadTimeout), log)
	}
	return NewStorageSource(open)
}
