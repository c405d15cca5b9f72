package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCN = "0123456789abcdef0123456789abcdef"

func TestClientConnect(t *testing.T) {
	db, mock := newMock(t)
	connectedAt := time.Unix(1_700_000_000, 0).UTC()

	mock.ExpectExec(q("INSERT INTO connection_log (profile_id, common_name, ip4, ip6, connected_at)")).
		WithArgs("office", testCN, "10.0.0.2", "fd00::2", connectedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewConnectionRepository(db).ClientConnect(context.Background(), "office", testCN, "10.0.0.2", "fd00::2", connectedAt)
	require.NoError(t, err)
}

func TestClientConnect_DuplicateIsPlainInsert(t *testing.T) {
	db, mock := newMock(t)
	connectedAt := time.Unix(1_700_000_000, 0).UTC()
	repo := NewConnectionRepository(db)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(q("INSERT INTO connection_log")).
			WithArgs("office", testCN, "10.0.0.2", "fd00::2", connectedAt).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}

	require.NoError(t, repo.ClientConnect(context.Background(), "office", testCN, "10.0.0.2", "fd00::2", connectedAt))
	require.NoError(t, repo.ClientConnect(context.Background(), "office", testCN, "10.0.0.2", "fd00::2", connectedAt))
}

func TestClientDisconnect(t *testing.T) {
	connectedAt := time.Unix(1_700_000_000, 0).UTC()
	disconnectedAt := connectedAt.Add(time.Hour)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"matched", 1, true},
		{"no open row", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(q("SET disconnected_at = $6, bytes_transferred = $7")).
				WithArgs("office", testCN, "10.0.0.2", "fd00::2", connectedAt, disconnectedAt, int64(4096)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			matched, err := NewConnectionRepository(db).ClientDisconnect(
				context.Background(), "office", testCN, "10.0.0.2", "fd00::2", connectedAt, disconnectedAt, 4096)
			require.NoError(t, err)
			assert.Equal(t, tc.want, matched)
		})
	}
}

func TestClientDisconnect_DBError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE connection_log")).WillReturnError(errors.New("db down"))

	_, err := NewConnectionRepository(db).ClientDisconnect(
		context.Background(), "office", testCN, "10.0.0.2", "fd00::2", time.Unix(1, 0), time.Unix(2, 0), 0)
	assert.EqualError(t, err, "db down")
}

func TestOpenConnections(t *testing.T) {
	db, mock := newMock(t)
	connectedAt := time.Unix(1_700_000_000, 0).UTC()

	mock.ExpectQuery(q("WHERE profile_id = $1 AND disconnected_at IS NULL")).
		WithArgs("office").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "common_name", "ip4", "ip6", "connected_at", "disconnected_at", "bytes_transferred"}).
			AddRow(int64(1), "office", testCN, "10.0.0.2", "fd00::2", connectedAt, nil, nil))

	got, err := NewConnectionRepository(db).OpenConnections(context.Background(), "office")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Open())
	assert.Nil(t, got[0].BytesTransferred)
	assert.Equal(t, "fd00::2", got[0].IP6)
}

func TestClosedBefore(t *testing.T) {
	db, mock := newMock(t)
	before := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	connectedAt := before.Add(-2 * time.Hour)
	disconnectedAt := before.Add(-time.Hour)

	mock.ExpectQuery(q("WHERE disconnected_at IS NOT NULL AND disconnected_at < $1")).
		WithArgs(before).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "common_name", "ip4", "ip6", "connected_at", "disconnected_at", "bytes_transferred"}).
			AddRow(int64(9), "office", testCN, "10.0.0.2", "fd00::2", connectedAt, disconnectedAt, int64(512)))

	got, err := NewConnectionRepository(db).ClosedBefore(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].DisconnectedAt)
	assert.True(t, got[0].DisconnectedAt.Equal(disconnectedAt))
	require.NotNil(t, got[0].BytesTransferred)
	assert.Equal(t, int64(512), *got[0].BytesTransferred)
}

func TestCleanConnectionLog_KeysOnDisconnectedAt(t *testing.T) {
	db, mock := newMock(t)
	before := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(q("DELETE FROM connection_log")+`\s+WHERE disconnected_at IS NOT NULL AND disconnected_at < \$1`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewConnectionRepository(db).CleanConnectionLog(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCleanTotpLog(t *testing.T) {
	db, mock := newMock(t)
	before := time.Date(2026, 10, 14, 9, 25, 0, 0, time.UTC)

	mock.ExpectExec(q("DELETE FROM totp_log WHERE date_time < $1")).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := NewTotpRepository(db).CleanTotpLog(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLogAt(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	connectedAt := at.Add(-time.Hour)
	disconnectedAt := at.Add(time.Hour)

	mock.ExpectQuery(q("WHERE (l.ip4 = $1 OR l.ip6 = $1)")).
		WithArgs("10.0.0.2", at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "common_name", "ip4", "ip6", "connected_at", "disconnected_at", "bytes_transferred", "user_id"}).
			AddRow(int64(4), "office", testCN, "10.0.0.2", "fd00::2", connectedAt, disconnectedAt, int64(2048), "alice").
			AddRow(int64(5), "office", "ffffffffffffffffffffffffffffffff", "10.0.0.2", "fd00::3", at, nil, nil, ""))

	got, err := NewConnectionRepository(db).LogAt(context.Background(), at, "10.0.0.2")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "alice", got[0].UserID)
	assert.Equal(t, testCN, got[0].CommonName)
	assert.False(t, got[0].Open())
	require.NotNil(t, got[0].BytesTransferred)
	assert.Equal(t, int64(2048), *got[0].BytesTransferred)

	assert.Empty(t, got[1].UserID)
	assert.True(t, got[1].Open())
}

func TestLogAt_NoMatch(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("LEFT JOIN certificates c ON c.common_name = l.common_name")).
		WithArgs("fd00::9", at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "common_name", "ip4", "ip6", "connected_at", "disconnected_at", "bytes_transferred", "user_id"}))

	got, err := NewConnectionRepository(db).LogAt(context.Background(), at, "fd00::9")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
