package repository

import (
	"context"
	"database/sql"
	"time"

	"vpnserver/internal/models"
)

type ConnectionRepository struct {
	db DBTX
}

func NewConnectionRepository(db DBTX) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// ClientConnect appends an open accounting row. Existing open rows for the
// same common name are left untouched.
func (r *ConnectionRepository) ClientConnect(ctx context.Context, profileID, commonName, ip4, ip6 string, connectedAt time.Time) error {
	const query = `
		INSERT INTO connection_log (profile_id, common_name, ip4, ip6, connected_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, profileID, commonName, ip4, ip6, connectedAt.UTC())
	return err
}

// ClientDisconnect closes the open row matching the full connect tuple and
// reports whether any row matched.
func (r *ConnectionRepository) ClientDisconnect(
	ctx context.Context,
	profileID, commonName, ip4, ip6 string,
	connectedAt, disconnectedAt time.Time,
	bytesTransferred int64,
) (bool, error) {
	const query = `
		UPDATE connection_log
		SET disconnected_at = $6, bytes_transferred = $7
		WHERE profile_id = $1
		  AND common_name = $2
		  AND ip4 = $3
		  AND ip6 = $4
		  AND connected_at = $5
		  AND disconnected_at IS NULL
	`

	res, err := r.db.ExecContext(ctx, query,
		profileID,
		commonName,
		ip4,
		ip6,
		connectedAt.UTC(),
		disconnectedAt.UTC(),
		bytesTransferred,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ConnectionRepository) OpenConnections(ctx context.Context, profileID string) ([]models.Connection, error) {
	const query = `
		SELECT id, profile_id, common_name, ip4, ip6, connected_at, disconnected_at, bytes_transferred
		FROM connection_log
		WHERE profile_id = $1 AND disconnected_at IS NULL
		ORDER BY connected_at, id
	`
	return r.list(ctx, query, profileID)
}

// ClosedBefore lists the rows CleanConnectionLog would delete for the same
// threshold.
func (r *ConnectionRepository) ClosedBefore(ctx context.Context, before time.Time) ([]models.Connection, error) {
	const query = `
		SELECT id, profile_id, common_name, ip4, ip6, connected_at, disconnected_at, bytes_transferred
		FROM connection_log
		WHERE disconnected_at IS NOT NULL AND disconnected_at < $1
		ORDER BY disconnected_at, id
	`
	return r.list(ctx, query, before.UTC())
}

func (r *ConnectionRepository) CleanConnectionLog(ctx context.Context, before time.Time) (int64, error) {
	const query = `
		DELETE FROM connection_log
		WHERE disconnected_at IS NOT NULL AND disconnected_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LogAt lists the sessions that held ipAddress, as IPv4 or IPv6, at the
// given instant. A session still open at that instant matches as well.
func (r *ConnectionRepository) LogAt(ctx context.Context, at time.Time, ipAddress string) ([]models.ConnectionLogEntry, error) {
	const query = `
		SELECT l.id, l.profile_id, l.common_name, l.ip4, l.ip6, l.connected_at, l.disconnected_at, l.bytes_transferred,
		       COALESCE(c.user_id, '')
		FROM connection_log l
		LEFT JOIN certificates c ON c.common_name = l.common_name
		WHERE (l.ip4 = $1 OR l.ip6 = $1)
		  AND l.connected_at <= $2
		  AND (l.disconnected_at IS NULL OR l.disconnected_at >= $2)
		ORDER BY l.connected_at, l.id
	`

	rows, err := r.db.QueryContext(ctx, query, ipAddress, at.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.ConnectionLogEntry{}
	for rows.Next() {
		var entry models.ConnectionLogEntry
		if entry.Connection, err = scanConnection(rows, &entry.UserID); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ConnectionRepository) list(ctx context.Context, query string, args ...any) ([]models.Connection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	connections := []models.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// scanConnection reads the connection_log columns in table order followed
// by any extra destinations.
func scanConnection(rows *sql.Rows, extra ...any) (models.Connection, error) {
	var (
		c              models.Connection
		disconnectedAt sql.NullTime
		bytes          sql.NullInt64
	)
	dest := append([]any{
		&c.ID,
		&c.ProfileID,
		&c.CommonName,
		&c.IP4,
		&c.IP6,
		&c.ConnectedAt,
		&disconnectedAt,
		&bytes,
	}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return models.Connection{}, err
	}
	if disconnectedAt.Valid {
		t := disconnectedAt.Time.UTC()
		c.DisconnectedAt = &t
	}
	if bytes.Valid {
		b := bytes.Int64
		c.BytesTransferred = &b
	}
	c.ConnectedAt = c.ConnectedAt.UTC()
	return c, nil
}
