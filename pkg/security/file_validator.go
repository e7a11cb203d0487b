package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrUndetectableType  = errors.New("file type could not be determined")
	ErrContentNotAllowed = errors.New("file content type not allowed")
)

// SniffResult is what the content of an uploaded file turned out to be.
type SniffResult struct {
	DetectedMIME string
	Extension    string
}

// SniffAttachment detects the real type of data from its magic bytes and
// checks it against allowed. application/octet-stream is always rejected:
// it means the content matched nothing known.
func SniffAttachment(data []byte, allowed func(contentType string) bool) (SniffResult, error) {
	if len(data) == 0 {
		return SniffResult{}, ErrEmptyFile
	}

	mt := mimetype.Detect(data)
	result := SniffResult{
		DetectedMIME: baseMIME(mt.String()),
		Extension:    mt.Extension(),
	}

	if mt.Is("application/octet-stream") {
		return result, ErrUndetectableType
	}

	for m := mt; m != nil; m = m.Parent() {
		if allowed(baseMIME(m.String())) {
			return result, nil
		}
	}
	return result, fmt.Errorf("%w: %s", ErrContentNotAllowed, result.DetectedMIME)
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SanitizeFilename keeps the base name of an uploaded file and replaces
// characters that are unsafe in mail headers and file systems. Empty names
// become "zalacznik-N" with N the 1-based position.
func SanitizeFilename(name string, index int) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == 0 {
			return -1
		}
		return r
	}, base)
	base = strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(base, "_"))
	if base == "" {
		return fmt.Sprintf("zalacznik-%d", index+1)
	}
	return base
}
