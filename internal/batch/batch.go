// Package batch reads a YAML list of download jobs, generalizing the
// teacher's internal/utils.DownloadEntry ({op, link, type} yaml tags) to the
// HLS/HTTP core's richer per-job preferences.
package batch

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

// Entry is one line item of a batch job file.
type Entry struct {
	URL    string `yaml:"url"`
	Output string `yaml:"output"`
	Mode   string `yaml:"mode"` // "auto", "http", "hls"; defaults to auto
	Res    string `yaml:"res"`  // "WxH"
	BW     int64  `yaml:"bw"`
}

// Load reads and parses a batch job file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, danzoerr.New(danzoerr.Usage, "reading batch file "+path, err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, danzoerr.New(danzoerr.Usage, "parsing batch file "+path, err)
	}
	return entries, nil
}
