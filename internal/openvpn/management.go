// Package openvpn queries running OpenVPN processes over their management
// interface.
package openvpn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const basePort = 11940

// ManagementPort is the management port of process processIndex of the
// profile with the given number.
func ManagementPort(profileNumber, processIndex int) int {
	return basePort + 16*(profileNumber-1) + processIndex
}

// ClientInfo is one CLIENT_LIST row of "status 2".
type ClientInfo struct {
	CommonName         string
	RealAddress        string
	VirtualAddress     string
	VirtualIPv6Address string
	BytesReceived      int64
	BytesSent          int64
	ConnectedSince     time.Time
}

// VirtualAddresses returns the non-empty assigned addresses, IPv4 first.
func (c ClientInfo) VirtualAddresses() []string {
	out := make([]string, 0, 2)
	if c.VirtualAddress != "" {
		out = append(out, c.VirtualAddress)
	}
	if c.VirtualIPv6Address != "" {
		out = append(out, c.VirtualIPv6Address)
	}
	return out
}

// ManagementClient talks to one OpenVPN process per call.
type ManagementClient struct {
	dialer      net.Dialer
	readTimeout time.Duration
}

func NewManagementClient(dialTimeout, readTimeout time.Duration) *ManagementClient {
	return &ManagementClient{
		dialer:      net.Dialer{Timeout: dialTimeout},
		readTimeout: readTimeout,
	}
}

// dial opens a management session and consumes the banner. The deadline
// covers the whole session.
func (m *ManagementClient) dial(ctx context.Context, addr string) (net.Conn, *bufio.Reader, error) {
	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if m.readTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(m.readTimeout)); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}

	reader := bufio.NewReader(conn)
	// banner: >INFO:OpenVPN Management Interface ...
	if _, err := reader.ReadString('\n'); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("read banner: %w", err)
	}
	return conn, reader, nil
}

// ConnectionList connects to addr, issues "status 2" and returns the
// connected clients.
func (m *ManagementClient) ConnectionList(ctx context.Context, addr string) ([]ClientInfo, error) {
	conn, reader, err := m.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("status 2\n")); err != nil {
		return nil, fmt.Errorf("write status: %w", err)
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read status: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "END" {
			break
		}
		if strings.HasPrefix(line, "ERROR:") {
			return nil, fmt.Errorf("management interface: %s", line)
		}
		lines = append(lines, line)
	}

	_, _ = conn.Write([]byte("quit\n"))

	return ParseStatus(lines)
}

var killedPattern = regexp.MustCompile(`(\d+) client\(s\) killed`)

// Kill disconnects every client of the process at addr using commonName and
// returns how many were killed. An unknown common name kills zero clients.
func (m *ManagementClient) Kill(ctx context.Context, addr, commonName string) (int, error) {
	conn, reader, err := m.dial(ctx, addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "kill %s\n", commonName); err != nil {
		return 0, fmt.Errorf("write kill: %w", err)
	}

	var line string
	for {
		if line, err = reader.ReadString('\n'); err != nil {
			return 0, fmt.Errorf("read kill: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		// real-time notifications may precede the reply
		if !strings.HasPrefix(line, ">") {
			break
		}
	}

	_, _ = conn.Write([]byte("quit\n"))

	return parseKill(line)
}

// parseKill reads the single reply line of a kill command.
func parseKill(line string) (int, error) {
	switch {
	case strings.HasPrefix(line, "SUCCESS:"):
		match := killedPattern.FindStringSubmatch(line)
		if match == nil {
			return 0, fmt.Errorf("unexpected kill reply: %q", line)
		}
		return strconv.Atoi(match[1])
	case strings.HasPrefix(line, "ERROR:") && strings.HasSuffix(line, "not found"):
		return 0, nil
	default:
		return 0, fmt.Errorf("management interface: %s", line)
	}
}

// ParseStatus extracts CLIENT_LIST rows from "status 2" output. The column
// order comes from the HEADER,CLIENT_LIST row when present.
func ParseStatus(lines []string) ([]ClientInfo, error) {
	columns := map[string]int{
		"Common Name":              1,
		"Real Address":             2,
		"Virtual Address":          3,
		"Virtual IPv6 Address":     4,
		"Bytes Received":           5,
		"Bytes Sent":               6,
		"Connected Since (time_t)": 8,
	}

	clients := []ClientInfo{}
	for _, line := range lines {
		fields := strings.Split(line, ",")
		switch {
		case len(fields) > 1 && fields[0] == "HEADER" && fields[1] == "CLIENT_LIST":
			columns = make(map[string]int, len(fields))
			for i, name := range fields[1:] {
				columns[name] = i
			}
		case fields[0] == "CLIENT_LIST":
			client, err := parseClient(fields, columns)
			if err != nil {
				return nil, err
			}
			clients = append(clients, client)
		}
	}
	return clients, nil
}

func parseClient(fields []string, columns map[string]int) (ClientInfo, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	client := ClientInfo{
		CommonName:         get("Common Name"),
		RealAddress:        get("Real Address"),
		VirtualAddress:     get("Virtual Address"),
		VirtualIPv6Address: get("Virtual IPv6 Address"),
	}
	if client.CommonName == "" {
		return ClientInfo{}, fmt.Errorf("client list row without common name: %q", strings.Join(fields, ","))
	}

	var err error
	if v := get("Bytes Received"); v != "" {
		if client.BytesReceived, err = strconv.ParseInt(v, 10, 64); err != nil {
			return ClientInfo{}, fmt.Errorf("bytes received: %w", err)
		}
	}
	if v := get("Bytes Sent"); v != "" {
		if client.BytesSent, err = strconv.ParseInt(v, 10, 64); err != nil {
			return ClientInfo{}, fmt.Errorf("bytes sent: %w", err)
		}
	}
	if v := get("Connected Since (time_t)"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ClientInfo{}, fmt.Errorf("connected since: %w", err)
		}
		client.ConnectedSince = time.Unix(ts, 0).UTC()
	}
	return client, nil
}
