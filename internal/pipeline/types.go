// Package pipeline wires C1-C9 together: routing a URL to the HLS pipeline
// (C2 -> C3 -> C2 -> C6 -> C7 -> C8) or the plain-HTTP path (C9), mirroring
// the teacher's internal/downloader.go BatchDownload orchestration role.
package pipeline

import (
	"context"

	"github.com/tanq16/danzo-hls/internal/httpclient"
	"github.com/tanq16/danzo-hls/internal/scheduler"
)

// Mode selects which acquisition path a job takes.
type Mode int

const (
	ModeAuto Mode = iota
	ModeHTTP
	ModeHLS
)

// Config is one download job's full configuration, assembled by cmd/ from
// CLI flags or a batch YAML entry.
type Config struct {
	URL        string
	OutputPath string
	Mode       Mode

	PreferredWidth, PreferredHeight int
	HasResolution                  bool
	PreferredBandwidth              int64
	HasBandwidth                    bool

	Concurrency int

	UserAgent string
	Referer   string
	Cookies   string
	Headers   map[string]string

	ProxyURL      string
	ProxyUsername string
	ProxyPassword string

	TokenFunc httpclient.TokenFunc

	NoRemux bool

	S3Bucket string
	S3Key    string

	Progress scheduler.ProgressFunc
}

func (c *Config) normalize() {
	if c.Headers == nil {
		c.Headers = map[string]string{}
	}
	if c.Concurrency == 0 {
		c.Concurrency = scheduler.DefaultConcurrency
	}
}

// Result reports where the job's output ended up.
type Result struct {
	OutputPath string
	Remuxed    bool
}

// Run executes cfg's job to completion: detects the acquisition mode if
// ModeAuto, runs either the HLS or HTTP path, optionally remuxes to MP4,
// and optionally uploads the artifact to S3.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg.normalize()
	return run(ctx, cfg)
}
