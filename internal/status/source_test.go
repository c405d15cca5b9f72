package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnserver/internal/config"
	"vpnserver/internal/models"
	"vpnserver/internal/openvpn"
)

type openRows map[string][]models.Connection

func (o openRows) OpenConnections(_ context.Context, profileID string) ([]models.Connection, error) {
	if profileID == "fail" {
		return nil, errors.New("query failed")
	}
	return o[profileID], nil
}

func TestStorageSource(t *testing.T) {
	closedAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	source := NewStorageSource(openRows{
		"internet": {
			{ProfileID: "internet", CommonName: "a", IP4: "10.0.0.2", IP6: "fd00::2"},
			{ProfileID: "internet", CommonName: "b", IP4: "10.0.0.3"},
			{ProfileID: "internet", CommonName: "c", IP4: "10.0.0.4", DisconnectedAt: &closedAt},
		},
	})

	list, err := source.ConnectionList(context.Background(), []config.ProfileConfig{{ID: "internet"}, {ID: "office"}})
	require.NoError(t, err)
	assert.Equal(t, []ConnectionInfo{
		{CommonName: "a", VirtualAddress: []string{"10.0.0.2", "fd00::2"}},
		{CommonName: "b", VirtualAddress: []string{"10.0.0.3"}},
	}, list["internet"])
	assert.Empty(t, list["office"])
	assert.Contains(t, list, "office")

	_, err = source.ConnectionList(context.Background(), []config.ProfileConfig{{ID: "fail"}})
	assert.Error(t, err)
}

type fakeManagement struct {
	mu      sync.Mutex
	clients map[string][]openvpn.ClientInfo
	calls   []string
}

func (f *fakeManagement) ConnectionList(_ context.Context, addr string) ([]openvpn.ClientInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, addr)
	clients, ok := f.clients[addr]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return clients, nil
}

func TestManagementSource(t *testing.T) {
	management := &fakeManagement{clients: map[string][]openvpn.ClientInfo{
		"127.0.0.1:11940": {{CommonName: "a", VirtualAddress: "10.0.0.2", VirtualIPv6Address: "fd00::2"}},
		"127.0.0.1:11941": {{CommonName: "b", VirtualAddress: "10.0.0.130"}},
		// 10.1.0.1:11957 is unreachable
		"10.1.0.1:11956": {{CommonName: "c", VirtualAddress: "10.1.0.2"}},
	}}
	profiles := config.NewProfiles(map[string]config.ProfileConfig{
		"internet": {ProfileNumber: 1, VPNProtoPorts: []string{"udp/1194", "tcp/1194"}},
		"office":   {ProfileNumber: 2, ManagementIP: "10.1.0.1", VPNProtoPorts: []string{"udp/1195", "tcp/1195"}},
	})

	list, err := NewManagementSource(management, zerolog.Nop()).ConnectionList(context.Background(), profiles.List())
	require.NoError(t, err)

	assert.Equal(t, []ConnectionInfo{
		{CommonName: "a", VirtualAddress: []string{"10.0.0.2", "fd00::2"}},
		{CommonName: "b", VirtualAddress: []string{"10.0.0.130"}},
	}, list["internet"])
	assert.Equal(t, []ConnectionInfo{
		{CommonName: "c", VirtualAddress: []string{"10.1.0.2"}},
	}, list["office"])
	assert.ElementsMatch(t, []string{
		"127.0.0.1:11940", "127.0.0.1:11941", "10.1.0.1:11956", "10.1.0.1:11957",
	}, management.calls)
}

func TestManagementSource_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	profiles := []config.ProfileConfig{{ID: "internet", ProfileNumber: 1, ManagementIP: "127.0.0.1", VPNProtoPorts: []string{"udp/1194"}}}
	_, err := NewManagementSource(&fakeManagement{}, zerolog.Nop()).ConnectionList(ctx, profiles)
	assert.ErrorIs(t, err, context.Canceled)
}
