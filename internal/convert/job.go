package convert

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/metrics"
	"github.com/Arthur2500/ConvertZ/internal/pathguard"
	"github.com/Arthur2500/ConvertZ/internal/sanitize"
	"github.com/Arthur2500/ConvertZ/internal/sweeper"
)

// Job is one staged source file awaiting conversion. SourcePath is the
// server-assigned storage path; OriginalName is the client-supplied name and
// is never used to build a path.
type Job struct {
	ID           string
	SourcePath   string
	OriginalName string
}

// Runner converts a single source file with an ffmpeg subprocess. On
// success the source is consumed (deleted) and the output registered with
// the retention sweeper; on failure the source is left in place.
type Runner struct {
	cfg   *config.Config
	guard *pathguard.Guard
	sweep *sweeper.Sweeper
}

func NewRunner(cfg *config.Config, guard *pathguard.Guard, sweep *sweeper.Sweeper) *Runner {
	return &Runner{cfg: cfg, guard: guard, sweep: sweep}
}

// OutputPath derives the output location from the server-assigned storage
// name, inside the output sandbox.
func (r *Runner) OutputPath(job Job, format string) string {
	base := filepath.Base(job.SourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(r.cfg.OutputDir, stem+"."+format)
}

func (r *Runner) Run(job Job, params sanitize.Params) (string, error) {
	outputPath := r.OutputPath(job, params.Format)

	if !r.guard.IsSafe(job.SourcePath) || !r.guard.IsSafe(outputPath) {
		return "", ErrUnsafePath
	}

	factor := params.ScaleFactor()
	args := []string{
		"-y",
		"-i", job.SourcePath,
		"-vf", fmt.Sprintf("scale=iw*%g:ih*%g", factor, factor),
		"-r", fmt.Sprintf("%d", params.FPS),
		"-b:v", fmt.Sprintf("%dk", params.Bitrate),
		"-preset", "fast",
		outputPath,
	}

	log.Printf("[%s] Converting %s to %s", job.ID, filepath.Base(job.SourcePath), params.Format)

	metrics.JobsInFlight.Inc()
	start := time.Now()
	err := r.runFFmpeg(job.ID, args)
	metrics.JobsInFlight.Dec()
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobsTotal.WithLabelValues("failed").Inc()
		return "", err
	}

	if _, err := os.Stat(outputPath); err != nil {
		metrics.JobsTotal.WithLabelValues("failed").Inc()
		return "", ErrOutputMissing
	}

	// Source is consumed on success only; a deletion error is not fatal.
	if err := os.Remove(job.SourcePath); err != nil {
		log.Printf("[%s] Failed to delete source file: %v", job.ID, err)
	}

	r.sweep.Schedule(outputPath)
	metrics.JobsTotal.WithLabelValues("succeeded").Inc()
	log.Printf("[%s] Conversion complete: %s", job.ID, filepath.Base(outputPath))
	return outputPath, nil
}

func (r *Runner) runFFmpeg(jobID string, args []string) error {
	cmd := exec.Command(r.cfg.FFmpegPath, args...)
	stderrPipe, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return &ConversionError{JobID: jobID, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	stderrBytes, _ := io.ReadAll(stderrPipe)
	if err := cmd.Wait(); err != nil {
		errStr := string(stderrBytes)
		if len(errStr) > 500 {
			errStr = errStr[len(errStr)-500:]
		}
		log.Printf("[%s] FFmpeg failed. Last 500 chars: %s", jobID, errStr)
		return &ConversionError{
			JobID:  jobID,
			Detail: fmt.Sprintf("ffmpeg exited with code %d", cmd.ProcessState.ExitCode()),
			Err:    err,
		}
	}
	return nil
}
