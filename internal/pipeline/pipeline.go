package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
	"github.com/tanq16/danzo-hls/internal/hls"
	"github.com/tanq16/danzo-hls/internal/httpclient"
	"github.com/tanq16/danzo-hls/internal/httpfile"
	"github.com/tanq16/danzo-hls/internal/keycache"
	"github.com/tanq16/danzo-hls/internal/logging"
	"github.com/tanq16/danzo-hls/internal/remux"
	"github.com/tanq16/danzo-hls/internal/s3sink"
	"github.com/tanq16/danzo-hls/internal/scheduler"
	"github.com/tanq16/danzo-hls/internal/segment"
	"github.com/tanq16/danzo-hls/internal/writer"
)

func newClient(cfg Config) (*httpclient.Client, error) {
	return httpclient.New(httpclient.Config{
		Timeout:       90 * time.Second,
		KATimeout:     60 * time.Second,
		ProxyURL:      cfg.ProxyURL,
		ProxyUsername: cfg.ProxyUsername,
		ProxyPassword: cfg.ProxyPassword,
		UserAgent:     cfg.UserAgent,
		Referer:       cfg.Referer,
		Cookies:       cfg.Cookies,
		Headers:       cfg.Headers,
		TokenFunc:     cfg.TokenFunc,
	})
}

func run(ctx context.Context, cfg Config) (Result, error) {
	log := logging.Get("pipeline")
	client, err := newClient(cfg)
	if err != nil {
		return Result{}, err
	}

	mode := cfg.Mode
	var prefetchedPlaylist string
	if mode == ModeAuto {
		mode, prefetchedPlaylist, err = detectMode(ctx, client, cfg)
		if err != nil {
			return Result{}, err
		}
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = basenameFromURL(cfg.URL)
	}
	if err := os.MkdirAll(filepath.Dir(absPath(outputPath)), 0o755); err != nil {
		return Result{}, danzoerr.New(danzoerr.Write, "creating output directory", err)
	}

	switch mode {
	case ModeHLS:
		log.Info().Str("url", cfg.URL).Msg("starting HLS download")
		tsPath := outputPath
		if !cfg.NoRemux {
			tsPath = outputPath + ".ts"
		}
		if err := runHLS(ctx, client, cfg, tsPath, prefetchedPlaylist); err != nil {
			return Result{}, err
		}
		if cfg.NoRemux {
			return finalize(ctx, cfg, Result{OutputPath: tsPath})
		}
		if err := remux.Remux(ctx, tsPath, outputPath); err != nil {
			if de, ok := err.(*danzoerr.Error); ok && de.Kind == danzoerr.RemuxUnavailable {
				log.Warn().Msg("remux unavailable, keeping TS output")
				return finalize(ctx, cfg, Result{OutputPath: tsPath})
			}
			return Result{}, err
		}
		os.Remove(tsPath)
		return finalize(ctx, cfg, Result{OutputPath: outputPath, Remuxed: true})

	default:
		log.Info().Str("url", cfg.URL).Msg("starting plain HTTP download")
		if err := httpfile.Download(ctx, client, cfg.URL, outputPath, cfg.Headers, func(done, total int64) {
			if cfg.Progress != nil {
				cfg.Progress(1, 1, done)
			}
		}); err != nil {
			return Result{}, err
		}
		return finalize(ctx, cfg, Result{OutputPath: outputPath})
	}
}

func finalize(ctx context.Context, cfg Config, res Result) (Result, error) {
	if cfg.S3Bucket != "" {
		if err := s3sink.Upload(ctx, cfg.S3Bucket, cfg.S3Key, res.OutputPath); err != nil {
			return res, err
		}
	}
	return res, nil
}

func runHLS(ctx context.Context, client *httpclient.Client, cfg Config, outputPath string, prefetchedPlaylist string) error {
	playlistText := prefetchedPlaylist
	playlistURL := cfg.URL
	if playlistText == "" {
		var err error
		playlistText, err = client.GetText(ctx, playlistURL, cfg.Headers)
		if err != nil {
			return err
		}
	}

	parsed, err := hls.Parse(playlistText, playlistURL)
	if err != nil {
		return err
	}

	media := parsed.Media
	if parsed.Master != nil {
		pref := hls.Preference{
			Width: cfg.PreferredWidth, Height: cfg.PreferredHeight, HasResolution: cfg.HasResolution,
			Bandwidth: cfg.PreferredBandwidth, HasBandwidth: cfg.HasBandwidth,
		}
		variant, err := hls.SelectVariant(parsed.Master, pref)
		if err != nil {
			return err
		}
		mediaText, err := client.GetText(ctx, variant.URI, cfg.Headers)
		if err != nil {
			return err
		}
		mediaParsed, err := hls.Parse(mediaText, variant.URI)
		if err != nil {
			return err
		}
		if mediaParsed.Media == nil {
			return danzoerr.New(danzoerr.Parse, "selected variant did not resolve to a media playlist", nil)
		}
		media = mediaParsed.Media
	}
	if media == nil {
		return danzoerr.New(danzoerr.Parse, "playlist did not resolve to a media playlist", nil)
	}

	out, err := writer.Open(outputPath)
	if err != nil {
		return err
	}

	keys := keycache.New(client, cfg.Headers)
	fetcher := segment.NewFetcher(client, keys, cfg.Headers)
	sched := scheduler.New(cfg.Concurrency, fetcher, out, cfg.Progress)

	if err := sched.Run(ctx, media.Segments); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// detectMode implements spec.md §6's "auto decides by URL suffix (.m3u8 ->
// hls) and Content-Type on first GET" rule. When the sniff GET turns out to
// be the playlist itself, its body is returned so the caller doesn't fetch
// it twice.
func detectMode(ctx context.Context, client *httpclient.Client, cfg Config) (Mode, string, error) {
	if looksLikeM3U8(cfg.URL) {
		return ModeHLS, "", nil
	}

	body, resp, err := client.GetStream(ctx, cfg.URL, cfg.Headers)
	if err != nil {
		return ModeHTTP, "", nil // fall through to the HTTP path; it will surface the real error
	}
	defer body.Close()

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "mpegurl") || strings.Contains(ct, "m3u8") {
		data, err := io.ReadAll(body)
		if err != nil {
			return ModeHTTP, "", danzoerr.New(danzoerr.Network, "reading sniffed playlist body", err)
		}
		return ModeHLS, string(data), nil
	}
	return ModeHTTP, "", nil
}

func looksLikeM3U8(rawURL string) bool {
	u := rawURL
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	return strings.HasSuffix(strings.ToLower(u), ".m3u8")
}

func basenameFromURL(rawURL string) string {
	u := rawURL
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	base := filepath.Base(u)
	if base == "" || base == "." || base == "/" {
		return "download.out"
	}
	return base
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	return filepath.Join(wd, p)
}
