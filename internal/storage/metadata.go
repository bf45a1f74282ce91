package storage

import (
	"fmt"
	"strings"

	"formbox/internal/model"
)

// MaxFileSize caps a single uploaded file answer.
const MaxFileSize = 25 << 20 // 25 MiB

// NormalizeFile validates the metadata of a file answer before it is stored
// in a response set. Name and URL are required; size and hash are checked
// when present.
func NormalizeFile(f model.FileAnswer) (model.FileAnswer, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return f, fmt.Errorf("file answer missing name")
	}
	if f.URL == "" {
		return f, fmt.Errorf("file answer %q missing url", f.Name)
	}
	if f.Size < 0 {
		return f, fmt.Errorf("file answer %q has negative size", f.Name)
	}
	if f.Size > MaxFileSize {
		return f, fmt.Errorf("file answer %q exceeds %d bytes", f.Name, int64(MaxFileSize))
	}
	if f.SHA256 != "" && len(f.SHA256) != 64 {
		return f, fmt.Errorf("file answer %q has malformed sha256", f.Name)
	}
	return f, nil
}
