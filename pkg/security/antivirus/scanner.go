package antivirus

import (
	"context"
	"time"
)

// ScanResult contains the result of a malware scan.
type ScanResult struct {
	Infected    bool
	ThreatName  string
	ScannerName string
	Error       error
}

// Clean reports whether the content may be forwarded. Any scan error counts
// as infected.
func (r ScanResult) Clean() bool {
	return !r.Infected && r.Error == nil
}

// Scanner checks attachment content before it leaves the server by mail.
// Implementations fail closed: an error sets Infected.
type Scanner interface {
	Scan(ctx context.Context, filename string, data []byte) ScanResult
	Name() string
}

// NoOpScanner accepts everything. Used when no daemon is configured.
type NoOpScanner struct{}

var _ Scanner = NoOpScanner{}

func (NoOpScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	return ScanResult{ScannerName: "noop"}
}

func (NoOpScanner) Name() string { return "noop" }

// New returns a ClamAV scanner for address, or a NoOpScanner when address is empty.
func New(address string, timeout time.Duration) Scanner {
	if address == "" {
		return NoOpScanner{}
	}
	return NewClamAVScanner(address, timeout)
}
