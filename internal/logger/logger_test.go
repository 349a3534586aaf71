package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestConfigure_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dittows.log")

	require.NoError(t, Configure("WARN", "json", path))
	t.Cleanup(func() { _ = Configure("INFO", "text", "stdout") })

	Info("hidden %d", 1)
	Warn("visible %s", "warning")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible warning")
	assert.True(t, strings.Contains(out, `"level":"WARN"`), "json encoder expected, got %q", out)
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	SetLevel("ERROR")
	t.Cleanup(func() { SetLevel("INFO") })

	SetLevel("nope")
	assert.True(t, Enabled(LevelError))
	assert.False(t, Enabled(LevelWarn))
}
