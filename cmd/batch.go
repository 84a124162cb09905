package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tanq16/danzo-hls/internal/batch"
	"github.com/tanq16/danzo-hls/internal/clihelpers"
	"github.com/tanq16/danzo-hls/internal/danzoerr"
	"github.com/tanq16/danzo-hls/internal/logging"
	"github.com/tanq16/danzo-hls/internal/output"
	"github.com/tanq16/danzo-hls/internal/pipeline"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Run every job listed in a YAML batch file concurrently",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "Number of jobs to run in parallel")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	logging.Init(debug)
	entries, err := batch.Load(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return danzoerr.New(danzoerr.Usage, "batch file has no entries", nil)
	}

	mgr := output.NewManager()
	mgr.StartDisplay()

	jobsCh := make(chan batch.Entry, len(entries))
	for _, e := range entries {
		jobsCh <- e
	}
	close(jobsCh)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int

	for i := 0; i < batchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobsCh {
				runBatchEntry(cmd.Context(), mgr, entry, &mu, &failures)
			}
		}()
	}
	wg.Wait()
	mgr.StopDisplay()

	if failures > 0 {
		return danzoerr.New(danzoerr.Network, fmt.Sprintf("%d of %d batch jobs failed", failures, len(entries)), nil)
	}
	return nil
}

func runBatchEntry(ctx context.Context, mgr *output.Manager, entry batch.Entry, mu *sync.Mutex, failures *int) {
	jobID := mgr.RegisterJob(entry.URL)

	cfg := pipeline.Config{
		URL:        entry.URL,
		OutputPath: entry.Output,
		Headers:    map[string]string{},
	}
	switch entry.Mode {
	case "http":
		cfg.Mode = pipeline.ModeHTTP
	case "hls":
		cfg.Mode = pipeline.ModeHLS
	default:
		cfg.Mode = pipeline.ModeAuto
	}
	if entry.Res != "" {
		if w, h, ok := clihelpers.ParseResolution(entry.Res); ok {
			cfg.PreferredWidth, cfg.PreferredHeight, cfg.HasResolution = w, h, true
		}
	}
	if entry.BW > 0 {
		cfg.PreferredBandwidth, cfg.HasBandwidth = entry.BW, true
	}
	cfg.Progress = func(done, total int, bytesWritten int64) {
		mgr.UpdateProgress(jobID, done, total, bytesWritten)
	}

	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		mgr.ReportError(jobID, err)
		mu.Lock()
		*failures++
		mu.Unlock()
		return
	}
	mgr.Complete(jobID, fmt.Sprintf("Saved to %s", result.OutputPath))
}
