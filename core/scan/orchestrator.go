package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"MusicFlow/cache"
	"MusicFlow/core/meta"
	"MusicFlow/logger"
)

// Scan modes.
const (
	ModeFull   = "full"
	ModeRepair = "repair"
)

// ErrScanInProgress is returned when a scan is requested while another
// one is still running.
var ErrScanInProgress = errors.New("a scan is already in progress")

// ErrNotMusicFile marks paths whose extension is not an ingestable
// audio format.
var ErrNotMusicFile = errors.New("not a music file")

// DefaultWorkers is the scan pool size when SCAN_WORKERS is unset.
const DefaultWorkers = 12

// Summary aggregates the outcome of one scan run.
type Summary struct {
	RunID     string
	Mode      string
	Total     int
	Completed int
	Failed    int
	Elapsed   time.Duration
	Errors    []string // "path: error" per failed file
}

// Orchestrator walks the music directory and drives bundles through the
// reconciler over a fixed worker pool. It is the error boundary: one bad
// file never fails the whole scan.
type Orchestrator struct {
	musicDir string
	workers  int
	rec      *Reconciler
	repos    Repositories
	running  atomic.Bool

	// processFile is swappable so pool behavior can be tested without
	// real audio files.
	processFile func(ctx context.Context, path string) error
}

// NewOrchestrator creates an orchestrator over the given music root.
func NewOrchestrator(musicDir string, workers int, rec *Reconciler, repos Repositories) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	o := &Orchestrator{
		musicDir: musicDir,
		workers:  workers,
		rec:      rec,
		repos:    repos,
	}
	o.processFile = o.ingestFile
	return o
}

// isMusicFile reports whether the path has an ingestable extension.
func isMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac":
		return true
	}
	return false
}

// collectFiles walks the music directory and returns every ingestable
// file. Other files are noted and skipped.
func (o *Orchestrator) collectFiles() ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(o.musicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isMusicFile(path) {
			logger.Info("Skipping non-music file", logger.String("path", path))
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk music directory %s: %w", o.musicDir, err)
	}
	return files, nil
}

// ingestFile runs the decode, normalize, reconcile pipeline for one file.
// The cover image is only extracted if the reconciler finds derivatives
// missing.
func (o *Orchestrator) ingestFile(ctx context.Context, path string) error {
	dec, err := meta.ReadMetadata(path, false)
	if err != nil {
		return err
	}

	bundle, err := meta.Normalize(dec, path, o.musicDir)
	if err != nil {
		return err
	}

	coverSrc := CoverSource(func() ([]byte, error) {
		return meta.ReadCover(path)
	})

	_, err = o.rec.Reconcile(ctx, bundle, coverSrc)
	return err
}

// FullScan walks the whole music directory and ingests every file.
// Only one scan runs at a time.
func (o *Orchestrator) FullScan(ctx context.Context) (*Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer o.running.Store(false)

	files, err := o.collectFiles()
	if err != nil {
		return nil, err
	}
	return o.run(ctx, ModeFull, files), nil
}

// Repair finds files the database lost track of and re-ingests just
// those. A file counts as lost when its path has no song row, its album
// link is missing, or it has no lyric rows. An empty database makes
// every file lost, so repair degrades into a full scan.
func (o *Orchestrator) Repair(ctx context.Context) (*Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer o.running.Store(false)

	files, err := o.collectFiles()
	if err != nil {
		return nil, err
	}

	lost, err := o.findLostFiles(files)
	if err != nil {
		return nil, err
	}
	logger.Info("Repair scan starting",
		logger.Int("filesOnDisk", len(files)), logger.Int("lost", len(lost)))

	return o.run(ctx, ModeRepair, lost), nil
}

// findLostFiles diffs disk files against the database.
func (o *Orchestrator) findLostFiles(files []string) ([]string, error) {
	songs, err := o.repos.Songs.GetAllSongs()
	if err != nil {
		return nil, fmt.Errorf("failed to load songs for repair: %w", err)
	}
	byPath := make(map[string]string, len(songs)) // path -> song id
	withAlbum := make(map[string]bool, len(songs))
	for _, s := range songs {
		byPath[s.FilePath] = s.ID
		withAlbum[s.ID] = s.Album != ""
	}

	lost := make([]string, 0)
	for _, path := range files {
		songID, ok := byPath[path]
		if !ok {
			lost = append(lost, path)
			continue
		}

		if withAlbum[songID] {
			link, err := o.repos.Albums.GetAlbumSongBySongID(songID)
			if err != nil {
				return nil, fmt.Errorf("failed to check album link for %s: %w", songID, err)
			}
			if link == nil {
				lost = append(lost, path)
				continue
			}
		}

		lyrics, err := o.repos.Lyrics.GetLyricsBySongID(songID)
		if err != nil {
			return nil, fmt.Errorf("failed to check lyrics for %s: %w", songID, err)
		}
		if len(lyrics) == 0 {
			lost = append(lost, path)
		}
	}
	return lost, nil
}

// run dispatches files over the worker pool and aggregates the outcome.
func (o *Orchestrator) run(ctx context.Context, mode string, files []string) *Summary {
	start := time.Now()
	runID := uuid.NewString()
	total := len(files)

	logger.Info("Scan starting",
		logger.String("runId", runID), logger.String("mode", mode),
		logger.Int("total", total), logger.Int("workers", o.workers))

	var completed, failed atomic.Int64
	var mu sync.Mutex
	fileErrors := make([]string, 0)

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := o.processFile(ctx, path); err != nil {
					failed.Add(1)
					mu.Lock()
					fileErrors = append(fileErrors, fmt.Sprintf("%s: %v", path, err))
					mu.Unlock()
					logger.Error("Failed to ingest file",
						logger.String("path", path), logger.ErrorField(err))
				} else {
					completed.Add(1)
				}

				done := completed.Load() + failed.Load()
				percent := float64(0)
				if total > 0 {
					percent = float64(done) / float64(total) * 100
				}
				logger.Info("Scan progress",
					logger.String("runId", runID),
					logger.String("file", filepath.Base(path)),
					logger.Int64("done", done), logger.Int("total", total),
					logger.Float64("percent", percent))

				_ = cache.PublishScanProgress(context.Background(), &cache.ScanProgress{
					RunID:       runID,
					Mode:        mode,
					Total:       total,
					Completed:   int(completed.Load()),
					Failed:      int(failed.Load()),
					Percent:     percent,
					CurrentFile: filepath.Base(path),
					ElapsedMS:   time.Since(start).Milliseconds(),
				})
			}
		}()
	}

dispatch:
	for _, path := range files {
		select {
		case <-ctx.Done():
			logger.Warn("Scan cancelled", logger.String("runId", runID))
			break dispatch
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{
		RunID:     runID,
		Mode:      mode,
		Total:     total,
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
		Elapsed:   time.Since(start),
		Errors:    fileErrors,
	}

	_ = cache.PublishScanProgress(context.Background(), &cache.ScanProgress{
		RunID:     runID,
		Mode:      mode,
		Total:     total,
		Completed: summary.Completed,
		Failed:    summary.Failed,
		Percent:   100,
		ElapsedMS: summary.Elapsed.Milliseconds(),
		Done:      true,
	})

	logger.Info("Scan finished",
		logger.String("runId", runID), logger.String("mode", mode),
		logger.Int("completed", summary.Completed), logger.Int("failed", summary.Failed),
		logger.Duration("elapsed", summary.Elapsed))

	return summary
}
