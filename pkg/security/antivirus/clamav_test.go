package antivirus_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"fourwheels-backend/pkg/security/antivirus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClamd answers INSTREAM with FOUND when the stream contains marker.
func fakeClamd(t *testing.T, marker []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveClamd(conn, marker)
		}
	}()
	return ln.Addr().String()
}

func serveClamd(conn net.Conn, marker []byte) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	cmd, err := r.ReadString(0)
	if err != nil {
		return
	}
	switch cmd {
	case "zPING\x00":
		conn.Write([]byte("PONG\x00"))
	case "zINSTREAM\x00":
		var stream bytes.Buffer
		size := make([]byte, 4)
		for {
			if _, err := io.ReadFull(r, size); err != nil {
				return
			}
			n := binary.BigEndian.Uint32(size)
			if n == 0 {
				break
			}
			if _, err := io.CopyN(&stream, r, int64(n)); err != nil {
				return
			}
		}
		if bytes.Contains(stream.Bytes(), marker) {
			conn.Write([]byte("stream: Eicar-Test-Signature FOUND\x00"))
			return
		}
		conn.Write([]byte("stream: OK\x00"))
	}
}

func TestClamAVScanner(t *testing.T) {
	addr := fakeClamd(t, []byte("EICAR"))
	scanner := antivirus.NewClamAVScanner(addr, 5*time.Second)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, scanner.Ping(ctx))
	})

	t.Run("Clean content", func(t *testing.T) {
		res := scanner.Scan(ctx, "faktura.pdf", bytes.Repeat([]byte("%PDF"), 50000))
		assert.True(t, res.Clean())
		assert.Equal(t, "clamav", res.ScannerName)
	})

	t.Run("Infected content", func(t *testing.T) {
		res := scanner.Scan(ctx, "virus.pdf", []byte("%PDF...EICAR..."))
		assert.True(t, res.Infected)
		assert.Equal(t, "Eicar-Test-Signature", res.ThreatName)
		assert.False(t, res.Clean())
	})
}

func TestClamAVScannerFailsClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	res := antivirus.NewClamAVScanner(addr, time.Second).Scan(context.Background(), "a.pdf", []byte("%PDF"))
	assert.True(t, res.Infected)
	assert.Error(t, res.Error)
}

func TestNewWithoutAddressIsNoOp(t *testing.T) {
	s := antivirus.New("", 0)
	assert.Equal(t, "noop", s.Name())
	assert.True(t, s.Scan(context.Background(), "a.pdf", nil).Clean())
}
