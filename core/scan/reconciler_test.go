package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MusicFlow/core/lyric"
	"MusicFlow/core/meta"
	"MusicFlow/model"
)

// ---- in-memory fakes ----

type fakeSongRepo struct {
	songs map[string]*model.Song // by id
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: make(map[string]*model.Song)}
}

func (f *fakeSongRepo) GetSongByID(id string) (*model.Song, error) {
	if s, ok := f.songs[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (f *fakeSongRepo) GetSongByTitleArtist(title, artist string) (*model.Song, error) {
	for _, s := range f.songs {
		if s.Title == title && s.Artist == artist {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSongRepo) GetAllSongs() ([]*model.Song, error) {
	out := make([]*model.Song, 0, len(f.songs))
	for _, s := range f.songs {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSongRepo) CreateSong(song *model.Song) error {
	copied := *song
	f.songs[song.ID] = &copied
	return nil
}

func (f *fakeSongRepo) UpdateSongLocation(id, fileName, filePath, fileURL string) (int64, error) {
	s, ok := f.songs[id]
	if !ok {
		return 0, nil
	}
	s.FileName, s.FilePath, s.FileURL = fileName, filePath, fileURL
	return 1, nil
}

type fakeAlbumRepo struct {
	albums map[int64]*model.Album
	links  []*model.AlbumSong
	nextID int64
}

func newFakeAlbumRepo() *fakeAlbumRepo {
	return &fakeAlbumRepo{albums: make(map[int64]*model.Album), nextID: 1}
}

func (f *fakeAlbumRepo) GetAlbumByID(id int64) (*model.Album, error) {
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return nil, nil
}

func (f *fakeAlbumRepo) GetAlbumByName(name string) (*model.Album, error) {
	for _, a := range f.albums {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAlbumRepo) GetAllAlbums() ([]*model.Album, error) {
	out := make([]*model.Album, 0, len(f.albums))
	for _, a := range f.albums {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAlbumRepo) CreateAlbum(album *model.Album) (int64, error) {
	album.ID = f.nextID
	f.nextID++
	copied := *album
	f.albums[album.ID] = &copied
	return album.ID, nil
}

func (f *fakeAlbumRepo) GetAlbumSong(albumID int64, songID string) (*model.AlbumSong, error) {
	for _, l := range f.links {
		if l.AlbumID == albumID && l.SongID == songID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeAlbumRepo) GetAlbumSongBySongID(songID string) (*model.AlbumSong, error) {
	for _, l := range f.links {
		if l.SongID == songID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeAlbumRepo) CreateAlbumSong(link *model.AlbumSong) error {
	copied := *link
	f.links = append(f.links, &copied)
	return nil
}

type fakeArtistRepo struct {
	artists map[int64]*model.Artist
	links   []*model.ArtistSong
	nextID  int64
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{artists: make(map[int64]*model.Artist), nextID: 1}
}

func (f *fakeArtistRepo) GetArtistByName(name string) (*model.Artist, error) {
	for _, a := range f.artists {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeArtistRepo) GetAllArtists() ([]*model.Artist, error) {
	out := make([]*model.Artist, 0, len(f.artists))
	for _, a := range f.artists {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeArtistRepo) CreateArtist(artist *model.Artist) (int64, error) {
	artist.ID = f.nextID
	f.nextID++
	copied := *artist
	f.artists[artist.ID] = &copied
	return artist.ID, nil
}

func (f *fakeArtistRepo) GetArtistSongsBySongID(songID string) ([]*model.ArtistSong, error) {
	out := make([]*model.ArtistSong, 0)
	for _, l := range f.links {
		if l.SongID == songID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeArtistRepo) CreateArtistSongs(links []*model.ArtistSong) error {
	for _, l := range links {
		copied := *l
		f.links = append(f.links, &copied)
	}
	return nil
}

type fakeCoverRepo struct {
	covers map[string]*model.Cover
}

func newFakeCoverRepo() *fakeCoverRepo {
	return &fakeCoverRepo{covers: make(map[string]*model.Cover)}
}

func coverKey(coverType string, linkID int64, size string) string {
	return fmt.Sprintf("%s/%d/%s", coverType, linkID, size)
}

func (f *fakeCoverRepo) GetCover(coverType string, linkID int64, size string) (*model.Cover, error) {
	if c, ok := f.covers[coverKey(coverType, linkID, size)]; ok {
		return c, nil
	}
	return nil, nil
}

func (f *fakeCoverRepo) CreateCovers(covers []*model.Cover) error {
	for _, c := range covers {
		copied := *c
		f.covers[coverKey(c.Type, c.LinkID, c.Size)] = &copied
	}
	return nil
}

type fakeLyricRepo struct {
	lyrics map[string][]*model.Lyric // by song id
}

func newFakeLyricRepo() *fakeLyricRepo {
	return &fakeLyricRepo{lyrics: make(map[string][]*model.Lyric)}
}

func (f *fakeLyricRepo) GetLyricsBySongID(songID string) ([]*model.Lyric, error) {
	return f.lyrics[songID], nil
}

func (f *fakeLyricRepo) CreateLyrics(lyrics []*model.Lyric) error {
	for _, l := range lyrics {
		copied := *l
		f.lyrics[l.SongID] = append(f.lyrics[l.SongID], &copied)
	}
	return nil
}

func (f *fakeLyricRepo) DeleteLyricsBySongID(songID string) error {
	delete(f.lyrics, songID)
	return nil
}

// ---- helpers ----

type fixture struct {
	songs   *fakeSongRepo
	albums  *fakeAlbumRepo
	artists *fakeArtistRepo
	covers  *fakeCoverRepo
	lyrics  *fakeLyricRepo
	rec     *Reconciler
}

func newFixture() *fixture {
	f := &fixture{
		songs:   newFakeSongRepo(),
		albums:  newFakeAlbumRepo(),
		artists: newFakeArtistRepo(),
		covers:  newFakeCoverRepo(),
		lyrics:  newFakeLyricRepo(),
	}
	f.rec = NewReconciler(Repositories{
		Songs:   f.songs,
		Albums:  f.albums,
		Artists: f.artists,
		Covers:  f.covers,
		Lyrics:  f.lyrics,
	}, nil)
	return f
}

func testBundle(id, title, artist, album, path string) *meta.Bundle {
	return &meta.Bundle{
		Song: &model.Song{
			ID:       id,
			FileName: "song.flac",
			FilePath: path,
			FileURL:  "/song.flac",
			Title:    title,
			Artist:   artist,
			Album:    album,
		},
		Artists: meta.SplitArtists(artist),
	}
}

func testCoverBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ---- tests ----

func TestReconcileFreshFileCreatesEverything(t *testing.T) {
	f := newFixture()
	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A/Artist B", "Album X", "/m/a.flac")
	bundle.Lyrics = []lyric.Line{{Time: 1.5, Text: "line one"}, {Time: 3.0, Text: "line two"}}

	res, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.NoError(t, err)

	assert.True(t, res.SongCreated)
	assert.True(t, res.AlbumCreated)
	assert.Equal(t, 2, res.ArtistsCreated)
	assert.Equal(t, 2, res.LyricsCreated)
	assert.Equal(t, "aaaaaaaaa", res.SongID)

	assert.Len(t, f.albums.links, 1)
	assert.Len(t, f.artists.links, 2)
	assert.Len(t, f.lyrics.lyrics["aaaaaaaaa"], 2)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture()
	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A", "Album X", "/m/a.flac")
	bundle.Lyrics = []lyric.Line{{Time: 1, Text: "x"}}

	_, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.NoError(t, err)

	again := testBundle("bbbbbbbbb", "Song One", "Artist A", "Album X", "/m/a.flac")
	again.Lyrics = []lyric.Line{{Time: 1, Text: "x"}}

	res, err := f.rec.Reconcile(context.Background(), again, nil)
	require.NoError(t, err)

	// the provisional new id is discarded in favor of the existing row
	assert.Equal(t, "aaaaaaaaa", res.SongID)
	assert.False(t, res.SongCreated)
	assert.False(t, res.SongMoved)
	assert.False(t, res.AlbumCreated)
	assert.Zero(t, res.ArtistsCreated)
	assert.Zero(t, res.LyricsCreated)

	assert.Len(t, f.songs.songs, 1)
	assert.Len(t, f.albums.albums, 1)
	assert.Len(t, f.albums.links, 1)
	assert.Len(t, f.artists.links, 1)
	assert.Len(t, f.lyrics.lyrics["aaaaaaaaa"], 1)
}

func TestReconcileMovedFileUpdatesLocationInPlace(t *testing.T) {
	f := newFixture()
	first := testBundle("aaaaaaaaa", "Song One", "Artist A", "Album X", "/m/old/a.flac")
	_, err := f.rec.Reconcile(context.Background(), first, nil)
	require.NoError(t, err)

	moved := testBundle("ccccccccc", "Song One", "Artist A", "Album X", "/m/new/a.flac")
	res, err := f.rec.Reconcile(context.Background(), moved, nil)
	require.NoError(t, err)

	assert.True(t, res.SongMoved)
	assert.False(t, res.SongCreated)
	assert.Equal(t, "aaaaaaaaa", res.SongID)
	assert.Equal(t, "/m/new/a.flac", f.songs.songs["aaaaaaaaa"].FilePath)
}

func TestReconcileCoverShortCircuit(t *testing.T) {
	f := newFixture()
	raw := testCoverBytes(t)

	called := 0
	src := CoverSource(func() ([]byte, error) {
		called++
		return raw, nil
	})

	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A", "Album X", "/m/a.flac")
	res, err := f.rec.Reconcile(context.Background(), bundle, src)
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, 2, res.CoversCreated)

	// second pass: both sizes exist, extraction must not run at all
	again := testBundle("ddddddddd", "Song One", "Artist A", "Album X", "/m/a.flac")
	res, err = f.rec.Reconcile(context.Background(), again, src)
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Zero(t, res.CoversCreated)
}

func TestReconcileLyricShortCircuit(t *testing.T) {
	f := newFixture()
	f.lyrics.lyrics["aaaaaaaaa"] = []*model.Lyric{{SongID: "aaaaaaaaa", Time: 0, Text: "old"}}
	f.songs.songs["aaaaaaaaa"] = &model.Song{
		ID: "aaaaaaaaa", Title: "Song One", Artist: "Artist A", FilePath: "/m/a.flac",
	}

	bundle := testBundle("eeeeeeeee", "Song One", "Artist A", "", "/m/a.flac")
	bundle.Lyrics = []lyric.Line{{Time: 1, Text: "new"}}

	res, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.NoError(t, err)
	assert.Zero(t, res.LyricsCreated)
	require.Len(t, f.lyrics.lyrics["aaaaaaaaa"], 1)
	assert.Equal(t, "old", f.lyrics.lyrics["aaaaaaaaa"][0].Text)
}

func TestReconcileNoAlbumTagSkipsAlbumAndCovers(t *testing.T) {
	f := newFixture()
	called := false
	src := CoverSource(func() ([]byte, error) {
		called = true
		return testCoverBytes(t), nil
	})

	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A", "", "/m/a.flac")
	res, err := f.rec.Reconcile(context.Background(), bundle, src)
	require.NoError(t, err)

	assert.False(t, res.AlbumCreated)
	assert.Empty(t, f.albums.albums)
	assert.False(t, called)
	assert.Zero(t, res.CoversCreated)
}

func TestReconcileCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.rec.Reconcile(ctx, testBundle("aaaaaaaaa", "T", "A", "", "/m/a.flac"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// failingLyricRepo fails inserts until allowed, simulating a transient
// database error mid-reconciliation.
type failingLyricRepo struct {
	*fakeLyricRepo
	allow bool
}

func (f *failingLyricRepo) CreateLyrics(lyrics []*model.Lyric) error {
	if !f.allow {
		return errors.New("deadlock found when trying to get lock")
	}
	return f.fakeLyricRepo.CreateLyrics(lyrics)
}

func TestReconcilePartialFailureResumesOnRescan(t *testing.T) {
	f := newFixture()
	flaky := &failingLyricRepo{fakeLyricRepo: f.lyrics}
	f.rec = NewReconciler(Repositories{
		Songs:   f.songs,
		Albums:  f.albums,
		Artists: f.artists,
		Covers:  f.covers,
		Lyrics:  flaky,
	}, nil)

	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A", "Album X", "/m/a.flac")
	bundle.Lyrics = []lyric.Line{{Time: 1, Text: "x"}}

	_, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.Error(t, err)

	// earlier steps stayed committed
	assert.Len(t, f.songs.songs, 1)
	assert.Len(t, f.albums.albums, 1)
	assert.Len(t, f.artists.links, 1)
	assert.Empty(t, f.lyrics.lyrics["aaaaaaaaa"])

	// re-scan completes only what is missing
	flaky.allow = true
	retry := testBundle("fffffffff", "Song One", "Artist A", "Album X", "/m/a.flac")
	retry.Lyrics = []lyric.Line{{Time: 1, Text: "x"}}

	res, err := f.rec.Reconcile(context.Background(), retry, nil)
	require.NoError(t, err)
	assert.False(t, res.SongCreated)
	assert.False(t, res.AlbumCreated)
	assert.Zero(t, res.ArtistsCreated)
	assert.Equal(t, 1, res.LyricsCreated)
	assert.Len(t, f.songs.songs, 1)
}

// racySongRepo answers the first lookup with nil and rejects the insert
// with a duplicate-key error, as if another worker created the row in
// between.
type racySongRepo struct {
	*fakeSongRepo
	raced bool
}

func (r *racySongRepo) GetSongByTitleArtist(title, artist string) (*model.Song, error) {
	if !r.raced {
		r.raced = true
		return nil, nil
	}
	return r.fakeSongRepo.GetSongByTitleArtist(title, artist)
}

func (r *racySongRepo) CreateSong(song *model.Song) error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

func TestReconcileDuplicateKeyRaceResolvesToExistingRow(t *testing.T) {
	f := newFixture()
	racy := &racySongRepo{fakeSongRepo: f.songs}
	racy.songs["wwwwwwwww"] = &model.Song{
		ID: "wwwwwwwww", Title: "Song One", Artist: "Artist A", FilePath: "/m/a.flac",
	}
	f.rec = NewReconciler(Repositories{
		Songs:   racy,
		Albums:  f.albums,
		Artists: f.artists,
		Covers:  f.covers,
		Lyrics:  f.lyrics,
	}, nil)

	bundle := testBundle("ggggggggg", "Song One", "Artist A", "", "/m/a.flac")
	res, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.NoError(t, err)

	assert.False(t, res.SongCreated)
	assert.Equal(t, "wwwwwwwww", res.SongID)
	assert.Len(t, racy.songs, 1)
}

func TestReconcileDuplicateArtistNamesLinkedOnce(t *testing.T) {
	f := newFixture()
	bundle := testBundle("aaaaaaaaa", "Song One", "Artist A/Artist A", "", "/m/a.flac")

	res, err := f.rec.Reconcile(context.Background(), bundle, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ArtistsCreated)
	assert.Len(t, f.artists.links, 1)
}
