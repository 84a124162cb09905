// Package cmd implements the CLI front-end (Cobra), matching the teacher's
// cmd/root.go flag-parsing shape, adapted to the HLS/HTTP core's exit-code
// contract and job configuration.
package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/danzo-hls/internal/auth"
	"github.com/tanq16/danzo-hls/internal/clihelpers"
	"github.com/tanq16/danzo-hls/internal/danzoerr"
	"github.com/tanq16/danzo-hls/internal/logging"
	"github.com/tanq16/danzo-hls/internal/output"
	"github.com/tanq16/danzo-hls/internal/pipeline"
)

var (
	outPath       string
	mode          string
	res           string
	bw            int64
	conc          int
	userAgent     string
	referer       string
	cookies       string
	headerArgs    []string
	noRemux       bool
	proxyURL      string
	proxyUsername string
	proxyPassword string
	debug         bool

	oauthTokenURL    string
	oauthClientID    string
	oauthClientSecret string

	s3Bucket string
	s3Key    string
)

var rootCmd = &cobra.Command{
	Use:     "danzo-hls",
	Short:   "danzo-hls downloads HLS streams and plain HTTP files to a single local file",
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRoot,
}

// Version is overridden at build time via -ldflags, per the teacher's
// DanzoVersion convention.
var Version = "dev"

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var de *danzoerr.Error
		if ok := danzoerr.As(err, &de); ok {
			fmt.Fprintln(os.Stderr, de.Error())
			os.Exit(de.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	logging.Init(debug)

	if len(args) == 0 {
		return danzoerr.New(danzoerr.Usage, "no URL provided", nil)
	}
	rawURL := args[0]
	if _, err := url.Parse(rawURL); err != nil {
		return danzoerr.New(danzoerr.Usage, "invalid URL: "+rawURL, err)
	}

	cfg, err := buildConfig(rawURL, outPath)
	if err != nil {
		return err
	}

	mgr := output.NewManager()
	jobID := mgr.RegisterJob(rawURL)
	mgr.StartDisplay()
	cfg.Progress = func(done, total int, bytesWritten int64) {
		mgr.UpdateProgress(jobID, done, total, bytesWritten)
	}

	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		mgr.ReportError(jobID, err)
		mgr.StopDisplay()
		return err
	}
	mgr.Complete(jobID, fmt.Sprintf("Saved to %s", result.OutputPath))
	mgr.StopDisplay()
	return nil
}

func buildConfig(rawURL, outputPath string) (pipeline.Config, error) {
	cfg := pipeline.Config{
		URL:           rawURL,
		OutputPath:    outputPath,
		Concurrency:   conc,
		UserAgent:     userAgent,
		Referer:       referer,
		Cookies:       cookies,
		Headers:       clihelpers.ParseHeaderArgs(headerArgs),
		NoRemux:       noRemux,
		ProxyURL:      proxyURL,
		ProxyUsername: proxyUsername,
		ProxyPassword: proxyPassword,
		S3Bucket:      s3Bucket,
		S3Key:         s3Key,
	}
	if cfg.UserAgent == "randomize" {
		cfg.UserAgent = clihelpers.RandomUserAgent()
	}

	switch strings.ToLower(mode) {
	case "", "auto":
		cfg.Mode = pipeline.ModeAuto
	case "http":
		cfg.Mode = pipeline.ModeHTTP
	case "hls":
		cfg.Mode = pipeline.ModeHLS
	default:
		return cfg, danzoerr.New(danzoerr.Usage, "invalid --mode: "+mode, nil)
	}

	if res != "" {
		w, h, ok := clihelpers.ParseResolution(res)
		if !ok {
			return cfg, danzoerr.New(danzoerr.Usage, "invalid --res, expected WxH: "+res, nil)
		}
		cfg.PreferredWidth, cfg.PreferredHeight, cfg.HasResolution = w, h, true
	}
	if bw > 0 {
		cfg.PreferredBandwidth, cfg.HasBandwidth = bw, true
	}

	if oauthTokenURL != "" {
		cfg.TokenFunc = auth.NewClientCredentials(oauthTokenURL, oauthClientID, oauthClientSecret, nil).TokenFunc()
	}

	if outputPath != "" {
		if _, err := os.Stat(outputPath); err == nil {
			cfg.OutputPath = clihelpers.RenewOutputPath(outputPath)
		}
	}

	return cfg, nil
}

func init() {
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file path (inferred from URL if not provided)")
	rootCmd.Flags().StringVar(&mode, "mode", "auto", "Acquisition mode: auto, http, hls")
	rootCmd.Flags().StringVar(&res, "res", "", "Preferred variant resolution, WxH (e.g. 1280x720)")
	rootCmd.Flags().Int64Var(&bw, "bw", 0, "Preferred variant bandwidth in bits per second")
	rootCmd.Flags().IntVar(&conc, "conc", 4, "Concurrent segment downloads (1-32)")
	rootCmd.Flags().StringVarP(&userAgent, "ua", "a", "", "User-Agent header (or 'randomize')")
	rootCmd.Flags().StringVar(&referer, "ref", "", "Referer header")
	rootCmd.Flags().StringVar(&cookies, "cookies", "", "Cookie header string")
	rootCmd.Flags().StringArrayVarP(&headerArgs, "header", "H", nil, "Custom header 'Key: Value' (repeatable)")
	rootCmd.Flags().BoolVar(&noRemux, "no-remux", false, "Skip remux to MP4; keep the TS output")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVar(&oauthTokenURL, "oauth-token-url", "", "OAuth2 client-credentials token endpoint")
	rootCmd.Flags().StringVar(&oauthClientID, "oauth-client-id", "", "OAuth2 client ID")
	rootCmd.Flags().StringVar(&oauthClientSecret, "oauth-client-secret", "", "OAuth2 client secret")

	rootCmd.Flags().StringVar(&s3Bucket, "upload-s3-bucket", "", "Upload the finished artifact to this S3 bucket")
	rootCmd.Flags().StringVar(&s3Key, "upload-s3-key", "", "S3 object key for --upload-s3-bucket")
}
