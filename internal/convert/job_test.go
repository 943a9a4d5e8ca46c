package convert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/pathguard"
	"github.com/Arthur2500/ConvertZ/internal/sanitize"
	"github.com/Arthur2500/ConvertZ/internal/sweeper"
)

// fakeTranscoder writes a shell script standing in for ffmpeg so the real
// subprocess path is exercised without encoding anything.
func fakeTranscoder(t *testing.T, script string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte(script), 0755))
	return p
}

// copyScript copies the -i argument to the last argument, like a successful
// encode.
const copyScript = `#!/bin/sh
in=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
done
for out in "$@"; do :; done
cp "$in" "$out"
`

const failScript = `#!/bin/sh
echo "encoder exploded" >&2
exit 1
`

const silentScript = `#!/bin/sh
exit 0
`

func newTestRunner(t *testing.T, script string) (*Runner, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		UploadDir:     t.TempDir(),
		OutputDir:     t.TempDir(),
		FFmpegPath:    fakeTranscoder(t, script),
		FileRetention: time.Hour,
	}
	guard, err := pathguard.New(cfg.UploadDir, cfg.OutputDir)
	require.NoError(t, err)
	sweep := sweeper.New(cfg.FileRetention)
	t.Cleanup(sweep.Stop)
	return NewRunner(cfg, guard, sweep), cfg
}

func stageSource(t *testing.T, cfg *config.Config, name string) Job {
	t.Helper()
	p := filepath.Join(cfg.UploadDir, name)
	require.NoError(t, os.WriteFile(p, []byte("fake video bytes"), 0644))
	return Job{ID: name, SourcePath: p, OriginalName: "holiday clip.mov"}
}

var testParams = sanitize.Params{Format: "mp4", Resolution: 75, FPS: 30, Bitrate: 5000}

func TestRunSuccess(t *testing.T) {
	r, cfg := newTestRunner(t, copyScript)
	job := stageSource(t, cfg, "aaaa1111.mov")

	out, err := r.Run(job, testParams)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "aaaa1111.mp4"), out)
	assert.FileExists(t, out)

	// Source is consumed on success.
	_, statErr := os.Stat(job.SourcePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunOutputNameIgnoresClientFilename(t *testing.T) {
	r, cfg := newTestRunner(t, copyScript)
	job := stageSource(t, cfg, "bbbb2222.mp4")
	job.OriginalName = "../../../etc/evil.mp4"

	out, err := r.Run(job, testParams)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "bbbb2222.mp4"), out)
}

func TestRunConversionFailure(t *testing.T) {
	r, cfg := newTestRunner(t, failScript)
	job := stageSource(t, cfg, "cccc3333.mov")

	_, err := r.Run(job, testParams)
	require.Error(t, err)

	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)

	// The failed source stays on disk for inspection.
	assert.FileExists(t, job.SourcePath)
}

func TestRunOutputMissing(t *testing.T) {
	r, cfg := newTestRunner(t, silentScript)
	job := stageSource(t, cfg, "dddd4444.mov")

	_, err := r.Run(job, testParams)
	require.ErrorIs(t, err, ErrOutputMissing)
	assert.FileExists(t, job.SourcePath)
}

func TestRunRejectsUnsafeSource(t *testing.T) {
	r, _ := newTestRunner(t, copyScript)

	outside := filepath.Join(t.TempDir(), "outside.mov")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	_, err := r.Run(Job{ID: "x", SourcePath: outside}, testParams)
	require.ErrorIs(t, err, ErrUnsafePath)

	// No I/O happened: the file outside the sandbox is untouched.
	assert.FileExists(t, outside)
}
