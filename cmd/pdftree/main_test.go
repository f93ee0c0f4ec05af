package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfinspect/internal/pdftest"
)

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Minimal().Bytes("/Root 1 0 R"), 0644))
	return path
}

func TestRunText(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-depth", "-1", writePDF(t)}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "<</Pages 2 0 R /Type /Catalog>>\n"))
	assert.Contains(t, out, "  /Pages: 2 0 R (1 page)\n")
	assert.Contains(t, out, "      Indirect reference: 3 0 R (page 1)\n")
	assert.Contains(t, out, "/Parent: 2 0 R (recursive, see depth 1)")
	assert.Contains(t, stderr.String(), "Updating viewer")
}

func TestRunHTML(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-html", "-object", "2", writePDF(t)}, &stdout, io.Discard)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout.String(), `<ul class="pdftree">`))
	assert.Contains(t, stdout.String(), `class="pages"`)
}

func TestRunDecode(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-object", "4", "-decode", writePDF(t)}, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "BT /F1 12 Tf (Hello) Tj ET", stdout.String())
}

func TestRunMissingObject(t *testing.T) {
	err := run(context.Background(), []string{"-object", "40", writePDF(t)}, io.Discard, io.Discard)
	assert.ErrorContains(t, err, "object 40")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, []string{writePDF(t)}, io.Discard, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PDFTREE_DEPTH", "5")
	t.Setenv("PDFTREE_HTML", "true")
	t.Setenv("PDFTREE_STREAM_CACHE", "8")
	t.Setenv("PDFTREE_LOG_LEVEL", "debug")

	cfg, err := loadConfig([]string{"a.pdf"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", cfg.Path)
	assert.Equal(t, 5, cfg.Depth)
	assert.True(t, cfg.HTML)
	assert.Equal(t, 8, cfg.StreamCache)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	cfg, err = loadConfig([]string{"-depth", "1", "-html=false", "a.pdf"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Depth, "flags override the environment")
	assert.False(t, cfg.HTML)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PDFTREE_DEPTH", "not a number")
	t.Setenv("PDFTREE_HTML", "")
	t.Setenv("PDFTREE_STREAM_CACHE", "")
	t.Setenv("PDFTREE_LOG_LEVEL", "")

	cfg, err := loadConfig([]string{"a.pdf"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Depth)
	assert.False(t, cfg.HTML)
	assert.Equal(t, 64, cfg.StreamCache)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no file", nil},
		{"two files", []string{"a.pdf", "b.pdf"}},
		{"decode without object", []string{"-decode", "a.pdf"}},
		{"bad cache size", []string{"-stream-cache", "0", "a.pdf"}},
		{"unknown flag", []string{"-bogus", "a.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestTerminalProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newTerminalProgress(&buf, "Reading PDF file")

	p.SetMessage("Reading the cross-reference table")
	p.SetTotal(2)
	p.SetValue(1)
	p.SetValue(2)
	p.SetTotal(0)
	p.Close()

	out := buf.String()
	assert.Contains(t, out, "Reading PDF file: Reading the cross-reference table 2/2")
	assert.True(t, strings.HasSuffix(out, "\n"))
}
