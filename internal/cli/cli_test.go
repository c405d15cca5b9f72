package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnserver/internal/security"
	"vpnserver/internal/status"
)

const testConfig = `
environment: test
security:
  jwtsecret: test-jwt-secret
  jwtttl: 10m
  apiconsumers:
    vpn-server-node: node-secret
vpnprofiles:
  internet:
    profilenumber: 1
    range: 10.0.0.0/24
    vpnprotoports: [udp/1194]
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := execute("--config", writeConfig(t), "token", "--principal", "vpn-server-node")
	require.NoError(t, err)

	principal, err := security.ParseToken(strings.TrimSpace(out), "test-jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "vpn-server-node", principal)
}

func TestTokenCommand_UnknownPrincipal(t *testing.T) {
	_, err := execute("--config", writeConfig(t), "token", "--principal", "vpn-admin")
	assert.ErrorContains(t, err, "unknown api consumer")
}

func TestTokenCommand_RequiresPrincipal(t *testing.T) {
	_, err := execute("--config", writeConfig(t), "token")
	assert.Error(t, err)
}

func TestTokenCommand_MissingConfig(t *testing.T) {
	_, err := execute("--config", filepath.Join(t.TempDir(), "absent.yaml"), "token", "--principal", "vpn-server-node")
	assert.Error(t, err)
}

func TestHashSecretCommand(t *testing.T) {
	out, err := execute("hash-secret", "node-secret")
	require.NoError(t, err)
	assert.True(t, security.VerifySecret(strings.TrimSpace(out), "node-secret"))
}

type fakeReporter struct {
	statuses []status.ProfileStatus
	err      error
}

func (f fakeReporter) Report(context.Context) ([]status.ProfileStatus, error) {
	return f.statuses, f.err
}

func TestRunStatus(t *testing.T) {
	r := fakeReporter{statuses: []status.ProfileStatus{{
		ProfileID:      "internet",
		ActiveCount:    1,
		MaxClientLimit: 253,
		Connections:    []status.ConnectionInfo{{CommonName: "a", VirtualAddress: []string{"10.0.0.2"}}},
	}}}

	var buf bytes.Buffer
	require.NoError(t, runStatus(context.Background(), &buf, r, true))
	assert.Equal(t, "internet,1,253,0%\ninternet\ta\t10.0.0.2\n", buf.String())
}

func TestRunStatus_Error(t *testing.T) {
	err := runStatus(context.Background(), &bytes.Buffer{}, fakeReporter{err: errors.New("db down")}, false)
	assert.EqualError(t, err, "db down")
}

type fakeKiller struct {
	n   int
	err error
}

func (f fakeKiller) KillClient(context.Context, string) (int, error) {
	return f.n, f.err
}

func TestRunKill(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runKill(context.Background(), &buf, fakeKiller{n: 2}, "0123456789abcdef0123456789abcdef"))
	assert.Equal(t, "2 client(s) killed\n", buf.String())

	err := runKill(context.Background(), &bytes.Buffer{}, fakeKiller{err: context.DeadlineExceeded}, "abc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKillCommand_RequiresCommonName(t *testing.T) {
	_, err := execute("--config", writeConfig(t), "kill")
	assert.Error(t, err)
}
