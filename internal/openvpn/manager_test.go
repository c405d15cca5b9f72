package openvpn

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnserver/internal/config"
)

type fakeKiller struct {
	mu     sync.Mutex
	killed map[string]int
	calls  []string
}

func (f *fakeKiller) Kill(_ context.Context, addr, commonName string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, addr+" "+commonName)
	n, ok := f.killed[addr]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return n, nil
}

func testProfiles() []config.ProfileConfig {
	return config.NewProfiles(map[string]config.ProfileConfig{
		"internet": {ProfileNumber: 1, VPNProtoPorts: []string{"udp/1194", "tcp/1194"}},
		"office":   {ProfileNumber: 2, VPNProtoPorts: []string{"udp/1195"}},
	}).List()
}

func TestKillClient(t *testing.T) {
	killer := &fakeKiller{killed: map[string]int{
		"127.0.0.1:11940": 1,
		"127.0.0.1:11941": 0,
		"127.0.0.1:11956": 2,
	}}

	n, err := NewServerManager(testProfiles(), killer, zerolog.Nop()).KillClient(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []string{
		"127.0.0.1:11940 abc",
		"127.0.0.1:11941 abc",
		"127.0.0.1:11956 abc",
	}, killer.calls)
}

func TestKillClient_SkipsUnreachable(t *testing.T) {
	killer := &fakeKiller{killed: map[string]int{"127.0.0.1:11956": 1}}

	n, err := NewServerManager(testProfiles(), killer, zerolog.Nop()).KillClient(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, killer.calls, 3)
}

func TestKillClient_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewServerManager(testProfiles(), &fakeKiller{}, zerolog.Nop()).KillClient(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}
