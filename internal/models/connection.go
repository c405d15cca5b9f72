package models

import "time"

// Connection is one accounting row. DisconnectedAt is nil while the
// session is still open.
type Connection struct {
	ID               int64
	ProfileID        string
	CommonName       string
	IP4              string
	IP6              string
	ConnectedAt      time.Time
	DisconnectedAt   *time.Time
	BytesTransferred *int64
}

func (c Connection) Open() bool {
	return c.DisconnectedAt == nil
}

// ConnectionLogEntry is a connection row with the user owning its
// certificate. UserID is empty once the certificate has been removed.
type ConnectionLogEntry struct {
	Connection
	UserID string
}
