package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

// fakeReader titles each song after its file name; files containing "broken"
// fail to read.
type fakeReader struct {
	mu     sync.Mutex
	reads  []string
	onRead func(path string)
}

func (r *fakeReader) Read(path string) (domain.Metadata, error) {
	r.mu.Lock()
	r.reads = append(r.reads, path)
	hook := r.onRead
	r.mu.Unlock()

	if hook != nil {
		hook(path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.Contains(name, "broken") {
		return domain.Metadata{}, domain.NewMetadataError(path, "no tags", nil)
	}
	return domain.Metadata{Title: name, Artist: "Artist", Album: "Album", Duration: 120}, nil
}

type testLibrary struct {
	*LibraryService
	player    *testPlayer
	reader    *fakeReader
	playlists *memory.PlaylistRepository
}

func newTestLibrary(t *testing.T) *testLibrary {
	t.Helper()
	player := newTestPlayer(t)
	reader := &fakeReader{}
	playlists := memory.NewPlaylistRepository()
	library := NewLibraryService(logger.NewTestLogger(), reader, nil, player.AudioPlayer, playlists, player.bus)
	t.Cleanup(library.Shutdown)
	return &testLibrary{LibraryService: library, player: player, reader: reader, playlists: playlists}
}

// newTestMusicFolder creates empty files under a temporary directory.
func newTestMusicFolder(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, file := range files {
		path := filepath.Join(dir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return dir
}

func relPaths(t *testing.T, base string, paths []string) []string {
	t.Helper()
	rel := make([]string, len(paths))
	for i, path := range paths {
		r, err := filepath.Rel(base, path)
		require.NoError(t, err)
		rel[i] = filepath.ToSlash(r)
	}
	return rel
}

func TestLibraryService_IsFormatSupported(t *testing.T) {
	library := newTestLibrary(t)

	for _, name := range []string{"song.mp3", "track.flac", "music.wav", "a.ogg", "b.oga", "/path/to/SONG.MP3"} {
		assert.True(t, library.IsFormatSupported(name), name)
	}
	for _, name := range []string{"readme.txt", "cover.jpg", "noext", "song.m4a"} {
		assert.False(t, library.IsFormatSupported(name), name)
	}

	formats := library.SupportedFormats()
	formats[0] = ".txt"
	assert.False(t, library.IsFormatSupported("readme.txt"), "returned slice is a copy")
}

func TestSortPaths(t *testing.T) {
	paths := []string{
		"/music/track 10.mp3",
		"/music/.hidden.mp3",
		"/music/track 2.mp3",
		"/music/Track 1.flac",
		"/music/cd10/01.ogg",
		"/music/cd2/01.ogg",
		"/music/cd1/02.ogg",
		"/music/cd1/01.ogg",
		"/music/cd1/extra/01.ogg",
	}
	SortPaths("/music", paths)

	assert.Equal(t, []string{
		"/music/cd1/01.ogg",
		"/music/cd1/02.ogg",
		"/music/cd1/extra/01.ogg",
		"/music/cd2/01.ogg",
		"/music/cd10/01.ogg",
		"/music/Track 1.flac",
		"/music/track 2.mp3",
		"/music/track 10.mp3",
		"/music/.hidden.mp3",
	}, paths)
}

func TestLibraryService_CollectFiles_Folder(t *testing.T) {
	library := newTestLibrary(t)
	dir := newTestMusicFolder(t,
		"disc/track 10.mp3",
		"disc/track 2.mp3",
		"disc/notes.txt",
		"disc/cover.jpg",
	)

	files, err := library.CollectFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"disc/track 2.mp3", "disc/track 10.mp3"}, relPaths(t, dir, files))
}

func TestLibraryService_CollectFiles_ExplicitFiles(t *testing.T) {
	library := newTestLibrary(t)
	dir := newTestMusicFolder(t, "b.mp3", "a.mp3", "c.txt")

	files, err := library.CollectFiles([]string{
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "c.txt"),
		filepath.Join(dir, "missing.mp3"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.mp3", "a.mp3"}, relPaths(t, dir, files), "explicit files keep their order")

	_, err = library.CollectFiles([]string{filepath.Join(dir, "missing.mp3")})
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestLibraryService_SongFromPath(t *testing.T) {
	library := newTestLibrary(t)

	song, err := library.SongFromPath("/music/River.flac")
	require.NoError(t, err)
	assert.Equal(t, "River", song.Title())
	assert.Equal(t, "/music/River.flac", song.Path())
	assert.Equal(t, SongUUID("/music/River.flac", domain.Metadata{Title: "River", Artist: "Artist", Album: "Album"}), song.UUID())
	assert.Nil(t, song.Cover())

	song, err = library.SongFromPath("/music/broken.flac")
	require.Error(t, err)
	assert.True(t, song.IsInvalid())

	song, err = library.SongFromPath("/music/notes.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.True(t, song.IsInvalid())
}

func TestLibraryService_LoadSongs_Events(t *testing.T) {
	library := newTestLibrary(t)

	var (
		mu       sync.Mutex
		started  int
		progress []domain.LoadProgress
		done     *domain.LoadCompletedEvent
	)
	library.player.bus.Subscribe(domain.EventLoadStarted, func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		started = e.(domain.LoadStartedEvent).Total
	})
	library.player.bus.Subscribe(domain.EventLoadProgress, func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, e.(domain.LoadProgressEvent).Progress)
	})
	library.player.bus.Subscribe(domain.EventLoadCompleted, func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		ev := e.(domain.LoadCompletedEvent)
		done = &ev
	})

	songs, err := library.LoadSongs(context.Background(), []string{"/m/a.mp3", "/m/broken.mp3", "/m/c.mp3"})
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "a", songs[0].Title())
	assert.Equal(t, "c", songs[1].Title())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, started)
	require.Len(t, progress, 3)
	assert.Equal(t, domain.LoadProgress{CurrentFile: "/m/c.mp3", Current: 3, Total: 3, Loaded: 2}, progress[2])
	require.NotNil(t, done)
	assert.Equal(t, 2, done.Loaded)
	assert.Equal(t, 1, done.Failed)
	assert.False(t, library.IsLoading())
}

func TestLibraryService_LoadSongs_Cancel(t *testing.T) {
	library := newTestLibrary(t)

	var cancelled bool
	library.player.bus.Subscribe(domain.EventLoadCancelled, func(domain.Event) { cancelled = true })

	library.reader.onRead = func(path string) {
		if strings.HasSuffix(path, "b.mp3") {
			require.True(t, library.IsLoading())
			require.NoError(t, library.CancelLoad())
		}
	}

	songs, err := library.LoadSongs(context.Background(), []string{"/m/a.mp3", "/m/b.mp3", "/m/c.mp3"})
	assert.ErrorIs(t, err, domain.ErrLoadCancelled)
	assert.Len(t, songs, 2, "the file being read when cancelled still completes")
	assert.True(t, cancelled)

	err = library.CancelLoad()
	var serviceErr *domain.ServiceError
	assert.ErrorAs(t, err, &serviceErr)
}

func TestLibraryService_LoadSongs_ContextCancelled(t *testing.T) {
	library := newTestLibrary(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	songs, err := library.LoadSongs(ctx, []string{"/m/a.mp3"})
	assert.ErrorIs(t, err, domain.ErrLoadCancelled)
	assert.Empty(t, songs)
}

func TestLibraryService_LoadSongs_Concurrent(t *testing.T) {
	library := newTestLibrary(t)

	var nestedErr error
	library.reader.onRead = func(string) {
		_, nestedErr = library.LoadSongs(context.Background(), []string{"/m/x.mp3"})
	}

	_, err := library.LoadSongs(context.Background(), []string{"/m/a.mp3"})
	require.NoError(t, err)

	var serviceErr *domain.ServiceError
	assert.True(t, errors.As(nestedErr, &serviceErr), "second load is rejected while one runs")
}

func TestLibraryService_QueueFiles(t *testing.T) {
	library := newTestLibrary(t)
	dir := newTestMusicFolder(t, "01.mp3", "02.mp3", "broken.mp3")

	result, err := library.QueueFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, QueueResult{Added: 2, WasEmpty: true}, result)

	queue := library.player.Queue()
	require.Equal(t, 2, queue.Len())
	assert.Equal(t, "01", queue.CurrentSong().Title())
	assert.Equal(t, domain.StateStopped, library.player.State().PlaybackState(), "a batch is loaded, not played")

	saved, err := library.playlists.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "01.mp3"), filepath.Join(dir, "02.mp3")}, saved)
}

func TestLibraryService_QueueFiles_SingleSongPlays(t *testing.T) {
	library := newTestLibrary(t)
	dir := newTestMusicFolder(t, "only.mp3")

	_, err := library.QueueFiles(context.Background(), []string{filepath.Join(dir, "only.mp3")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatePlaying, library.player.State().PlaybackState())
}

func TestLibraryService_QueueFiles_NothingLoaded(t *testing.T) {
	library := newTestLibrary(t)
	dir := newTestMusicFolder(t, "broken.mp3", "notes.txt")

	_, err := library.QueueFiles(context.Background(), []string{dir})
	assert.ErrorIs(t, err, domain.ErrNoSongsFound)
	assert.True(t, library.player.Queue().IsEmpty())

	_, err = library.playlists.Load()
	assert.ErrorIs(t, err, domain.ErrNoCachedPlaylist, "nothing saved on failure")
}

func TestLibraryService_RestorePlaylist(t *testing.T) {
	library := newTestLibrary(t)

	result, err := library.RestorePlaylist(context.Background())
	require.NoError(t, err, "no snapshot is not an error")
	assert.Zero(t, result.Added)

	require.NoError(t, library.playlists.Save([]string{"/m/one.mp3", "/m/two.mp3"}))
	result, err = library.RestorePlaylist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, "one", library.player.Queue().SongAt(0).Title())
	assert.Equal(t, "two", library.player.Queue().SongAt(1).Title())
}

func TestLibraryService_NoBus(t *testing.T) {
	player := newTestPlayer(t)
	library := NewLibraryService(logger.NewTestLogger(), &fakeReader{}, nil, player.AudioPlayer, nil, nil)

	songs, err := library.LoadSongs(context.Background(), []string{"/m/a.mp3"})
	require.NoError(t, err)
	assert.Len(t, songs, 1)
}
