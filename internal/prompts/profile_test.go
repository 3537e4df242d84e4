package prompts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := Default()

	assert.Equal(t, "PDF file", p.Label("pdf"))
	assert.Equal(t, "Word document", p.Label("document"))
	assert.Equal(t, "unknown", p.Label("unknown"))

	assert.Equal(t, "Answer users query:\n\nhello\n\n:", p.Prompt("pdf", "hello"))
	assert.Equal(t, "Answer the following Query for the user:\n\nhello\n\n:", p.Prompt("text", "hello"))
	assert.Equal(t, "The provided files do not meet your requirements.", p.Notice(NoticeNoMatch))
	assert.Equal(t, "The provided PDF file is empty.", p.Notice(NoticePDFEmpty))
}

func TestParse_OverridesOnTopOfDefaults(t *testing.T) {
	src := `
labels:
  pdf: Portable document
templates:
  csv: "Summarize this table:\n{text}"
notices:
  no_match: Nothing usable was uploaded.
`
	p, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "Portable document", p.Label("pdf"))
	assert.Equal(t, "Image file", p.Label("image"))
	assert.Equal(t, "Summarize this table:\na,b", p.Prompt("csv", "a,b"))
	assert.Equal(t, "Answer users query:\n\nx\n\n:", p.Prompt("pdf", "x"))
	assert.Equal(t, "Nothing usable was uploaded.", p.Notice(NoticeNoMatch))
	assert.Equal(t, "The provided PDF file is empty.", p.Notice(NoticePDFEmpty))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"invalid yaml", "labels: [unterminated"},
		{"template without placeholder", "templates:\n  pdf: no text here\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestNewStore_MissingFileKeepsDefaults(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "prompts.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "CSV file", s.Current().Label("csv"))
}

func TestNewStore_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels: [broken"), 0644))
	_, err := NewStore(path, nil)
	assert.Error(t, err)
}

func TestStore_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  csv: Table v1\n"), 0644))

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Table v1", s.Current().Label("csv"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("labels:\n  csv: Table v2\n"), 0644))

	assert.Eventually(t, func() bool {
		return s.Current().Label("csv") == "Table v2"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_BadReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  csv: Good\n"), 0644))
	s, err := NewStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("labels: [broken"), 0644))
	assert.Error(t, s.Reload())
	assert.Equal(t, "Good", s.Current().Label("csv"))
}
