package deliver

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Arthur2500/ConvertZ/internal/alerts"
	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/metrics"
	"github.com/Arthur2500/ConvertZ/internal/sweeper"
)

// Packager turns a joined set of conversion outputs into a response body:
// a single file is streamed directly, multiple files are bundled into one
// zip. Every artifact it touches is deleted after transmission and is also
// covered by the retention sweeper in case the download never completes.
type Packager struct {
	cfg    *config.Config
	sweep  *sweeper.Sweeper
	notify *alerts.Notifier
}

func New(cfg *config.Config, sweep *sweeper.Sweeper, notify *alerts.Notifier) *Packager {
	return &Packager{cfg: cfg, sweep: sweep, notify: notify}
}

// Deliver writes the response for outputs. downloadName is the
// client-facing filename for single-file delivery (display only, never a
// path). requestID names the archive on disk for multi-file delivery.
func (p *Packager) Deliver(w http.ResponseWriter, outputs []string, format, downloadName, requestID string) {
	if len(outputs) == 1 {
		p.deliverFile(w, outputs[0], format, downloadName)
		return
	}
	p.deliverArchive(w, outputs, requestID)
}

func (p *Packager) deliverFile(w http.ResponseWriter, path, format, downloadName string) {
	info, err := os.Stat(path)
	if err != nil {
		http.Error(w, "File not found", 404)
		return
	}

	mimeType := config.ContainerMIMEs[format]
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Filetype", "."+format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		downloadName, url.PathEscape(downloadName)))

	p.stream(w, path)
	metrics.DeliveriesTotal.WithLabelValues("file").Inc()

	p.removeAll(path)
}

func (p *Packager) deliverArchive(w http.ResponseWriter, outputs []string, requestID string) {
	zipPath := filepath.Join(p.cfg.OutputDir, requestID+".zip")

	if err := createZip(zipPath, outputs); err != nil {
		metrics.ArchiveErrors.Inc()
		log.Printf("[%s] Archiving error: %v", requestID, err)
		p.notify.ArchiveFailed(requestID, err)
		os.Remove(zipPath)
		http.Error(w, "An error occurred during archiving.", 500)
		return
	}
	p.sweep.Schedule(zipPath)

	info, err := os.Stat(zipPath)
	if err != nil {
		http.Error(w, "Archive not found after creation", 500)
		return
	}
	log.Printf("[%s] Zip archive created, size: %d bytes", requestID, info.Size())

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Filetype", ".zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, config.ZipDownloadName))

	p.stream(w, zipPath)
	metrics.DeliveriesTotal.WithLabelValues("archive").Inc()

	p.removeAll(append(outputs, zipPath)...)
}

func (p *Packager) stream(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[Deliver] Failed to open %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		// Client went away mid-download; the sweeper still owns cleanup.
		log.Printf("[Deliver] Stream error for %s: %v", filepath.Base(path), err)
	}
}

func (p *Packager) removeAll(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			log.Printf("[Deliver] Failed to delete %s: %v", path, err)
		}
	}
}

// createZip writes files into a new zip at zipPath, entries named by base
// name only and in the given order. The archive is built incrementally so
// contents are never held in memory at once.
func createZip(zipPath string, files []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, filePath := range files {
		entry, err := zw.Create(filepath.Base(filePath))
		if err != nil {
			return err
		}
		src, err := os.Open(filePath)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}
