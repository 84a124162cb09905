package clihelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderArgs(t *testing.T) {
	got := ParseHeaderArgs([]string{"Authorization: Bearer abc123", "X-Custom:  value  ", "malformed-no-colon"})
	assert.Equal(t, "Bearer abc123", got["Authorization"])
	assert.Equal(t, "value", got["X-Custom"])
	assert.Len(t, got, 2)
}

func TestRandomUserAgentReturnsKnownValue(t *testing.T) {
	ua := RandomUserAgent()
	assert.Contains(t, userAgents, ua)
}

func TestRenewOutputPathSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video-(1).mp4"), []byte("x"), 0o644))

	got := RenewOutputPath(base)
	assert.Equal(t, filepath.Join(dir, "video-(2).mp4"), got)
}

func TestParseResolution(t *testing.T) {
	w, h, ok := ParseResolution("1280x720")
	require.True(t, ok)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	_, _, ok = ParseResolution("not-a-resolution")
	assert.False(t, ok)
}
