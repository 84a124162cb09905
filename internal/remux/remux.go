// Package remux implements the remux invoker (C8): an opaque subprocess
// contract over an external muxer binary.
//
// Grounded on the teacher's internal/downloaders/m3u8/downloader.go
// mergeSegments (exec.Command + CombinedOutput), with the flag set taken
// from original_source/videodownloader/utils.go's remux_to_mp4
// ("-hide_banner -y -loglevel error -i <in> -c copy <out>") and
// FFMPEG_PATH resolution added per spec.md §4.8/§6.
package remux

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

const ffmpegPathEnv = "FFMPEG_PATH"
const stderrTailLimit = 4096

// Available reports whether the configured muxer binary can be found,
// without running it.
func Available() (string, error) {
	path := os.Getenv(ffmpegPathEnv)
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", danzoerr.New(danzoerr.RemuxUnavailable, "ffmpeg binary not found (set "+ffmpegPathEnv+")", err)
	}
	return resolved, nil
}

// Remux invokes the muxer to copy streams from inputTS into outputMP4
// without re-encoding. A missing binary yields RemuxUnavailable (the caller
// may keep the TS); a non-zero exit yields RemuxFailed with a captured
// stderr tail.
func Remux(ctx context.Context, inputTS, outputMP4 string) error {
	bin, err := Available()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-y",
		"-loglevel", "error",
		"-i", inputTS,
		"-c", "copy",
		outputMP4,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > stderrTailLimit {
			tail = tail[len(tail)-stderrTailLimit:]
		}
		return danzoerr.New(danzoerr.RemuxFailed, "ffmpeg exited with error: "+tail, err)
	}
	return nil
}
