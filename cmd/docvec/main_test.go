package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "application/pdf"},
		{"notes.txt", "text/plain; charset=utf-8"},
		{"page.html", "text/html; charset=utf-8"},
		{"mystery.bin", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, contentTypeFor(tt.filename))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncate("hello", 10))
	})

	t.Run("long text cut with ellipsis", func(t *testing.T) {
		got := truncate("abcdefghij", 5)
		assert.Equal(t, "abcd…", got)
	})

	t.Run("newlines flattened", func(t *testing.T) {
		assert.Equal(t, "a b c", truncate("a\nb\nc", 10))
	})

	t.Run("multibyte safe", func(t *testing.T) {
		got := truncate("héllo wörld", 6)
		assert.Equal(t, "héllo…", got)
	})
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	run := func(level string) error {
		app := &cli.App{
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		return app.Run([]string{"docvec", "--log-level", level})
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			require.NoError(t, run(level), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := run("loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
