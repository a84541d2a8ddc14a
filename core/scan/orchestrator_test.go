package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MusicFlow/model"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func newTestOrchestrator(t *testing.T, dir string, f *fixture) *Orchestrator {
	t.Helper()
	repos := Repositories{
		Songs:   f.songs,
		Albums:  f.albums,
		Artists: f.artists,
		Covers:  f.covers,
		Lyrics:  f.lyrics,
	}
	return NewOrchestrator(dir, 4, NewReconciler(repos, nil), repos)
}

func TestIsMusicFile(t *testing.T) {
	assert.True(t, isMusicFile("/m/a.mp3"))
	assert.True(t, isMusicFile("/m/a.FLAC"))
	assert.False(t, isMusicFile("/m/cover.jpg"))
	assert.False(t, isMusicFile("/m/notes.txt"))
	assert.False(t, isMusicFile("/m/noext"))
}

func TestCollectFilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")
	writeFile(t, dir, "sub/b.flac")
	writeFile(t, dir, "sub/cover.jpg")
	writeFile(t, dir, "README.md")

	o := newTestOrchestrator(t, dir, newFixture())
	files, err := o.collectFiles()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFullScanProcessesEveryFileAndAggregatesErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")
	writeFile(t, dir, "b.mp3")
	bad := writeFile(t, dir, "c.mp3")

	o := newTestOrchestrator(t, dir, newFixture())

	var mu sync.Mutex
	seen := make(map[string]bool)
	o.processFile = func(ctx context.Context, path string) error {
		mu.Lock()
		seen[path] = true
		mu.Unlock()
		if path == bad {
			return errors.New("corrupt header")
		}
		return nil
	}

	summary, err := o.FullScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, seen, 3)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "corrupt header")
}

func TestFullScanRejectsConcurrentRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")

	o := newTestOrchestrator(t, dir, newFixture())

	started := make(chan struct{})
	release := make(chan struct{})
	o.processFile = func(ctx context.Context, path string) error {
		close(started)
		<-release
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.FullScan(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	_, err := o.FullScan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(release)
	wg.Wait()
}

func TestFullScanCancellationStopsDispatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3", "f.mp3"} {
		writeFile(t, dir, name)
	}

	o := newTestOrchestrator(t, dir, newFixture())
	o.workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	var processed int
	o.processFile = func(ctx context.Context, path string) error {
		processed++
		if processed == 2 {
			cancel()
		}
		return nil
	}

	summary, err := o.FullScan(ctx)
	require.NoError(t, err)
	assert.Less(t, summary.Completed, summary.Total)
}

func TestRepairFindsLostFiles(t *testing.T) {
	dir := t.TempDir()
	healthy := writeFile(t, dir, "healthy.mp3")
	noRow := writeFile(t, dir, "norow.mp3")
	noLink := writeFile(t, dir, "nolink.mp3")
	noLyrics := writeFile(t, dir, "nolyrics.mp3")

	f := newFixture()

	// healthy: song + album link + lyrics all present
	f.songs.songs["hhhhhhhhh"] = &model.Song{ID: "hhhhhhhhh", Title: "H", Artist: "A", Album: "X", FilePath: healthy}
	f.albums.links = append(f.albums.links, &model.AlbumSong{AlbumID: 1, SongID: "hhhhhhhhh"})
	f.lyrics.lyrics["hhhhhhhhh"] = []*model.Lyric{{SongID: "hhhhhhhhh", Text: "l"}}

	// nolink: song row present with an album tag but no link row
	f.songs.songs["lllllllll"] = &model.Song{ID: "lllllllll", Title: "L", Artist: "A", Album: "X", FilePath: noLink}
	f.lyrics.lyrics["lllllllll"] = []*model.Lyric{{SongID: "lllllllll", Text: "l"}}

	// nolyrics: song row present, no album tag, zero lyric rows
	f.songs.songs["yyyyyyyyy"] = &model.Song{ID: "yyyyyyyyy", Title: "Y", Artist: "A", Album: "", FilePath: noLyrics}

	o := newTestOrchestrator(t, dir, f)

	var mu sync.Mutex
	repaired := make(map[string]bool)
	o.processFile = func(ctx context.Context, path string) error {
		mu.Lock()
		repaired[path] = true
		mu.Unlock()
		return nil
	}

	summary, err := o.Repair(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.True(t, repaired[noRow])
	assert.True(t, repaired[noLink])
	assert.True(t, repaired[noLyrics])
	assert.False(t, repaired[healthy])
}

func TestRepairOnEmptyDatabaseProcessesEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")
	writeFile(t, dir, "b.flac")

	o := newTestOrchestrator(t, dir, newFixture())
	o.processFile = func(ctx context.Context, path string) error { return nil }

	summary, err := o.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Completed)
}
