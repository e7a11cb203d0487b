package attachment

import (
	"fmt"
	"time"
)

const MiB = 1024 * 1024

// File is a candidate attachment. Content may be nil on the client until the
// file is encoded for submission.
type File struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Content     []byte
}

func (f File) key() string {
	return fmt.Sprintf("%s-%d-%d", f.Name, f.Size, f.ModTime.UnixMilli())
}

// Policy bounds the attachment set of a single submission.
type Policy struct {
	MaxCount     int
	MaxFileSize  int64
	MaxTotalSize int64
	AllowedTypes map[string]bool
}

// DefaultPolicy returns the limits of the contact form: 3 files, 15 MB each
// and 15 MB in total, PDF and common photo formats.
func DefaultPolicy() Policy {
	return Policy{
		MaxCount:     3,
		MaxFileSize:  15 * MiB,
		MaxTotalSize: 15 * MiB,
		AllowedTypes: map[string]bool{
			"application/pdf": true,
			"image/jpeg":      true,
			"image/png":       true,
			"image/webp":      true,
			"image/heic":      true,
			"image/heif":      true,
		},
	}
}

// Allowed reports whether contentType may be attached.
func (p Policy) Allowed(contentType string) bool {
	return p.AllowedTypes[contentType]
}

// Apply merges incoming into current, dropping files already present (same
// name, size and modification time). Files beyond MaxCount are truncated and a
// non-fatal *Error is returned with the kept set. A size, type or total
// violation is fatal: current is returned unchanged together with the error.
func (p Policy) Apply(current, incoming []File) ([]File, error) {
	seen := make(map[string]bool, len(current)+len(incoming))
	merged := make([]File, 0, len(current)+len(incoming))
	for _, f := range current {
		seen[f.key()] = true
		merged = append(merged, f)
	}
	for _, f := range incoming {
		if seen[f.key()] {
			continue
		}
		seen[f.key()] = true
		merged = append(merged, f)
	}

	var truncated *Error
	if p.MaxCount > 0 && len(merged) > p.MaxCount {
		merged = merged[:p.MaxCount]
		truncated = &Error{
			Reason:  ReasonTooMany,
			Message: fmt.Sprintf("Możesz dodać maksymalnie %d pliki. Zostawiliśmy pierwsze %d.", p.MaxCount, p.MaxCount),
		}
	}

	if err := p.checkFiles(merged); err != nil {
		return current, err
	}

	if truncated != nil {
		return merged, truncated
	}
	return merged, nil
}

// Check validates an already assembled set. Unlike Apply, exceeding MaxCount
// is an error here because nothing can be dropped on the receiving side.
func (p Policy) Check(files []File) error {
	if p.MaxCount > 0 && len(files) > p.MaxCount {
		return &Error{
			Reason:  ReasonTooMany,
			Message: fmt.Sprintf("Możesz dodać maksymalnie %d pliki.", p.MaxCount),
			fatal:   true,
		}
	}
	return p.checkFiles(files)
}

func (p Policy) checkFiles(files []File) error {
	for _, f := range files {
		if p.MaxFileSize > 0 && f.Size > p.MaxFileSize {
			return &Error{
				Reason:  ReasonTooLarge,
				File:    f.Name,
				Message: fmt.Sprintf("Plik \"%s\" jest zbyt duży (limit %d MB).", f.Name, p.MaxFileSize/MiB),
				fatal:   true,
			}
		}
	}

	for _, f := range files {
		if f.ContentType != "" && !p.Allowed(f.ContentType) {
			return &Error{
				Reason:  ReasonType,
				File:    f.Name,
				Message: fmt.Sprintf("Plik \"%s\" ma nieobsługiwany format. Dozwolone: PDF, JPG, PNG, WEBP.", f.Name),
				fatal:   true,
			}
		}
	}

	if total := TotalSize(files); p.MaxTotalSize > 0 && total > p.MaxTotalSize {
		return &Error{
			Reason:  ReasonTotalSize,
			Message: fmt.Sprintf("Łączny rozmiar załączników to %s (limit %d MB).", FormatSize(total), p.MaxTotalSize/MiB),
			fatal:   true,
		}
	}
	return nil
}

// RemoveAt returns files without the element at i. Out of range indexes
// return the set unchanged.
func RemoveAt(files []File, i int) []File {
	if i < 0 || i >= len(files) {
		return files
	}
	out := make([]File, 0, len(files)-1)
	out = append(out, files[:i]...)
	return append(out, files[i+1:]...)
}

func TotalSize(files []File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// FormatSize renders bytes as megabytes, one decimal from 10 MB upwards and
// two below.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 MB"
	}
	mb := float64(bytes) / MiB
	if bytes >= 10*MiB {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.2f MB", mb)
}
