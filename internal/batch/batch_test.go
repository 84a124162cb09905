package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesEntries(t *testing.T) {
	yamlContent := `
- url: https://cdn.example.com/a/master.m3u8
  output: a.mp4
  mode: hls
  res: 1280x720
- url: https://example.com/file.bin
  output: file.bin
  mode: http
  bw: 2000000
`
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "https://cdn.example.com/a/master.m3u8", entries[0].URL)
	assert.Equal(t, "hls", entries[0].Mode)
	assert.Equal(t, "1280x720", entries[0].Res)
	assert.Equal(t, int64(2000000), entries[1].BW)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid, yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
