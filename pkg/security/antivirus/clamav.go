package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"time"
)

// chunkSize stays well below clamd's default StreamMaxLength chunking.
const chunkSize = 64 * 1024

// ClamAVScanner streams content to a clamd daemon with INSTREAM.
type ClamAVScanner struct {
	address string // host:port or a unix socket path
	timeout time.Duration
}

var _ Scanner = (*ClamAVScanner)(nil)

func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{address: address, timeout: timeout}
}

func (c *ClamAVScanner) Name() string { return "clamav" }

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

// Ping checks that clamd answers PONG.
func (c *ClamAVScanner) Ping(ctx context.Context) error {
	reply, err := c.roundTrip(ctx, func(conn net.Conn) error {
		_, err := conn.Write([]byte("zPING\x00"))
		return err
	})
	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("unexpected clamd reply %q", reply)
	}
	return nil
}

func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	result := ScanResult{ScannerName: c.Name()}

	reply, err := c.roundTrip(ctx, func(conn net.Conn) error {
		if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
			return fmt.Errorf("send command: %w", err)
		}
		size := make([]byte, 4)
		for off := 0; off < len(data); off += chunkSize {
			end := min(off+chunkSize, len(data))
			binary.BigEndian.PutUint32(size, uint32(end-off))
			if _, err := conn.Write(size); err != nil {
				return fmt.Errorf("send chunk size: %w", err)
			}
			if _, err := conn.Write(data[off:end]); err != nil {
				return fmt.Errorf("send chunk: %w", err)
			}
		}
		_, err := conn.Write([]byte{0, 0, 0, 0})
		return err
	})
	if err != nil {
		result.Infected = true
		result.Error = err
		return result
	}

	// "stream: OK", "stream: Eicar-Signature FOUND" or "... ERROR"
	status := strings.TrimSpace(strings.TrimPrefix(reply, "stream:"))
	switch {
	case strings.HasSuffix(status, "FOUND"):
		result.Infected = true
		result.ThreatName = strings.TrimSpace(strings.TrimSuffix(status, "FOUND"))
	case status == "OK":
	default:
		result.Infected = true
		result.Error = fmt.Errorf("clamd scan of %s: %s", filename, status)
	}
	return result
}

func (c *ClamAVScanner) roundTrip(ctx context.Context, send func(net.Conn) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, c.network(), c.address)
	if err != nil {
		return "", fmt.Errorf("connect to clamd: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := send(conn); err != nil {
		return "", err
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && reply == "" {
		return "", fmt.Errorf("read clamd reply: %w", err)
	}
	return strings.TrimRight(reply, "\x00\n"), nil
}
