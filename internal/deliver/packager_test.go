package deliver

import (
	"archive/zip"
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthur2500/ConvertZ/internal/alerts"
	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/sweeper"
)

func newPackager(t *testing.T) (*Packager, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		OutputDir:     t.TempDir(),
		FileRetention: time.Hour,
	}
	sweep := sweeper.New(cfg.FileRetention)
	t.Cleanup(sweep.Stop)
	return New(cfg, sweep, alerts.NewNotifier("", "")), cfg
}

func writeOutput(t *testing.T, cfg *config.Config, name, content string) string {
	t.Helper()
	p := filepath.Join(cfg.OutputDir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestDeliverSingleFile(t *testing.T) {
	p, cfg := newPackager(t)
	out := writeOutput(t, cfg, "abc123.mp4", "converted bytes")

	rec := httptest.NewRecorder()
	p.Deliver(rec, []string{out}, "mp4", "holiday.mp4", "req1")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, ".mp4", rec.Header().Get("Filetype"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="holiday.mp4"`)
	assert.Equal(t, "converted bytes", rec.Body.String())

	// The output is deleted once transmission completes.
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestDeliverArchive(t *testing.T) {
	p, cfg := newPackager(t)
	a := writeOutput(t, cfg, "first.mp4", "AAAA")
	b := writeOutput(t, cfg, "second.mp4", "BBBB")
	c := writeOutput(t, cfg, "third.mp4", "CCCC")

	rec := httptest.NewRecorder()
	p.Deliver(rec, []string{a, b, c}, "mp4", "ignored.mp4", "req2")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, ".zip", rec.Header().Get("Filetype"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), config.ZipDownloadName)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	// Entries are base names only, in upload order.
	assert.Equal(t, "first.mp4", zr.File[0].Name)
	assert.Equal(t, "second.mp4", zr.File[1].Name)
	assert.Equal(t, "third.mp4", zr.File[2].Name)

	// Constituents and the archive itself are gone after delivery.
	for _, path := range []string{a, b, c, filepath.Join(cfg.OutputDir, "req2.zip")} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
}

func TestDeliverArchiveEntryContents(t *testing.T) {
	p, cfg := newPackager(t)
	a := writeOutput(t, cfg, "one.webm", "payload-one")
	b := writeOutput(t, cfg, "two.webm", "payload-two")

	rec := httptest.NewRecorder()
	p.Deliver(rec, []string{a, b}, "webm", "x.webm", "req3")
	require.Equal(t, 200, rec.Code)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload-one", buf.String())
}

func TestDeliverArchiveFailsOnMissingConstituent(t *testing.T) {
	p, cfg := newPackager(t)
	a := writeOutput(t, cfg, "present.mp4", "AAAA")
	missing := filepath.Join(cfg.OutputDir, "vanished.mp4")

	rec := httptest.NewRecorder()
	p.Deliver(rec, []string{a, missing}, "mp4", "x.mp4", "req4")

	assert.Equal(t, 500, rec.Code)

	// No partial archive is left behind.
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "req4.zip"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeliverSingleMissingFile(t *testing.T) {
	p, cfg := newPackager(t)

	rec := httptest.NewRecorder()
	p.Deliver(rec, []string{filepath.Join(cfg.OutputDir, "nope.mp4")}, "mp4", "x.mp4", "req5")
	assert.Equal(t, 404, rec.Code)
}
