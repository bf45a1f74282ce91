package storage

import (
	"strings"
	"testing"

	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFile(t *testing.T) {
	f, err := NormalizeFile(model.FileAnswer{
		Name: "  report.pdf ",
		URL:  "https://files.example/report.pdf",
		Size: 2048,
		MIME: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", f.Name)
}

func TestNormalizeFileRejections(t *testing.T) {
	cases := []struct {
		name string
		file model.FileAnswer
	}{
		{"missing name", model.FileAnswer{URL: "https://x/f"}},
		{"blank name", model.FileAnswer{Name: "   ", URL: "https://x/f"}},
		{"missing url", model.FileAnswer{Name: "f.txt"}},
		{"negative size", model.FileAnswer{Name: "f.txt", URL: "https://x/f", Size: -1}},
		{"oversized", model.FileAnswer{Name: "f.txt", URL: "https://x/f", Size: MaxFileSize + 1}},
		{"bad hash", model.FileAnswer{Name: "f.txt", URL: "https://x/f", SHA256: "abc"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeFile(tc.file)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeFileAcceptsFullHash(t *testing.T) {
	_, err := NormalizeFile(model.FileAnswer{
		Name:   "f.txt",
		URL:    "https://x/f",
		SHA256: strings.Repeat("a", 64),
	})
	assert.NoError(t, err)
}
