// Package housekeeping removes expired rows from the connection and TOTP logs.
package housekeeping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"vpnserver/internal/config"
	"vpnserver/internal/metrics"
	"vpnserver/internal/models"
)

const (
	DefaultConnectionRetention = 32 * 24 * time.Hour
	DefaultTotpRetention       = 5 * time.Minute
)

type ConnectionLogCleaner interface {
	ClosedBefore(ctx context.Context, before time.Time) ([]models.Connection, error)
	CleanConnectionLog(ctx context.Context, before time.Time) (int64, error)
}

type TotpLogCleaner interface {
	CleanTotpLog(ctx context.Context, before time.Time) (int64, error)
}

// Archiver receives the connection rows about to be deleted.
type Archiver interface {
	PutArchive(ctx context.Context, key string, body []byte) error
}

type Result struct {
	ConnectionLogDeleted int64
	TotpLogDeleted       int64
	ArchiveKey           string
}

type Sweeper struct {
	connections         ConnectionLogCleaner
	totp                TotpLogCleaner
	archiver            Archiver
	connectionRetention time.Duration
	totpRetention       time.Duration
	log                 zerolog.Logger
}

// NewSweeper builds a sweeper. archiver may be nil, in which case rows are
// deleted without being archived.
func NewSweeper(
	connections ConnectionLogCleaner,
	totp TotpLogCleaner,
	archiver Archiver,
	cfg config.HousekeepingConfig,
	log zerolog.Logger,
) *Sweeper {
	s := &Sweeper{
		connections:         connections,
		totp:                totp,
		archiver:            archiver,
		connectionRetention: cfg.ConnectionRetention,
		totpRetention:       cfg.TotpRetention,
		log:                 log,
	}
	if s.connectionRetention <= 0 {
		s.connectionRetention = DefaultConnectionRetention
	}
	if s.totpRetention <= 0 {
		s.totpRetention = DefaultTotpRetention
	}
	return s
}

// Sweep deletes connection rows disconnected strictly before
// now-connectionRetention and TOTP rows recorded strictly before
// now-totpRetention. Open connection rows are never touched.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	var result Result
	connectionsBefore := now.Add(-s.connectionRetention)
	totpBefore := now.Add(-s.totpRetention)

	if s.archiver != nil {
		key, err := s.archive(ctx, now, connectionsBefore)
		if err != nil {
			return result, err
		}
		result.ArchiveKey = key
	}

	n, err := s.connections.CleanConnectionLog(ctx, connectionsBefore)
	if err != nil {
		return result, fmt.Errorf("clean connection log: %w", err)
	}
	result.ConnectionLogDeleted = n
	metrics.SweptRowsTotal.WithLabelValues("connection_log").Add(float64(n))

	n, err = s.totp.CleanTotpLog(ctx, totpBefore)
	if err != nil {
		return result, fmt.Errorf("clean totp log: %w", err)
	}
	result.TotpLogDeleted = n
	metrics.SweptRowsTotal.WithLabelValues("totp_log").Add(float64(n))

	s.log.Info().
		Int64("connection_log", result.ConnectionLogDeleted).
		Int64("totp_log", result.TotpLogDeleted).
		Str("archive", result.ArchiveKey).
		Msg("housekeeping sweep finished")

	return result, nil
}

type archiveRecord struct {
	ProfileID        string    `json:"profile_id"`
	CommonName       string    `json:"common_name"`
	IP4              string    `json:"ip4"`
	IP6              string    `json:"ip6"`
	ConnectedAt      time.Time `json:"connected_at"`
	DisconnectedAt   time.Time `json:"disconnected_at"`
	BytesTransferred *int64    `json:"bytes_transferred"`
}

func (s *Sweeper) archive(ctx context.Context, now, before time.Time) (string, error) {
	rows, err := s.connections.ClosedBefore(ctx, before)
	if err != nil {
		return "", fmt.Errorf("list expired connections: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		record := archiveRecord{
			ProfileID:        row.ProfileID,
			CommonName:       row.CommonName,
			IP4:              row.IP4,
			IP6:              row.IP6,
			ConnectedAt:      row.ConnectedAt,
			BytesTransferred: row.BytesTransferred,
		}
		if row.DisconnectedAt != nil {
			record.DisconnectedAt = *row.DisconnectedAt
		}
		if err := enc.Encode(record); err != nil {
			return "", fmt.Errorf("encode archive record: %w", err)
		}
	}

	key := ArchiveKey(now, ksuid.New())
	if err := s.archiver.PutArchive(ctx, key, buf.Bytes()); err != nil {
		return "", fmt.Errorf("archive connection log: %w", err)
	}
	return key, nil
}

// ArchiveKey lays archives out by sweep date.
func ArchiveKey(now time.Time, id ksuid.KSUID) string {
	return fmt.Sprintf("connection-log/%s/%s.jsonl", now.UTC().Format("2006/01/02"), id.String())
}
