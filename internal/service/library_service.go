package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// supportedExts are the containers the media backend can decode.
var supportedExts = []string{".mp3", ".flac", ".wav", ".ogg", ".oga"}

// songQueuer is the part of the player the library feeds.
type songQueuer interface {
	QueueSongs(songs []*domain.Song) QueueResult
	Queue() *Queue
}

// LibraryService turns files and folders into songs and queues them.
// Only one batch load runs at a time.
type LibraryService struct {
	logger    *slog.Logger
	reader    ports.MetadataReader
	covers    *CoverCache
	player    songQueuer
	playlists ports.PlaylistRepository
	bus       ports.EventBus

	mu         sync.RWMutex
	loading    bool
	cancelLoad context.CancelFunc
}

// NewLibraryService creates a library service. covers and playlists may be
// nil, disabling cover art and the playlist snapshot.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	covers *CoverCache,
	player songQueuer,
	playlists ports.PlaylistRepository,
	bus ports.EventBus,
) *LibraryService {
	return &LibraryService{
		logger:    logger.With(slog.String("service", "library")),
		reader:    reader,
		covers:    covers,
		player:    player,
		playlists: playlists,
		bus:       bus,
	}
}

func (s *LibraryService) publish(event domain.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(path string) bool {
	return slices.Contains(supportedExts, strings.ToLower(filepath.Ext(path)))
}

// SupportedFormats returns the list of supported file extensions.
func (s *LibraryService) SupportedFormats() []string {
	return slices.Clone(supportedExts)
}

// CollectFiles expands paths into the audio files to load. Directories are
// walked recursively and listed the way a file manager sorts them; files
// are kept in the order given. Paths that cannot be read are skipped.
// It returns domain.ErrFileNotFound when no path exists at all.
func (s *LibraryService) CollectFiles(paths []string) ([]string, error) {
	var (
		files   []string
		missing int
	)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			missing++
			continue
		}

		if !info.IsDir() {
			if s.IsFormatSupported(path) {
				files = append(files, path)
			} else {
				s.logger.Debug("skipping unsupported file", slog.String("path", path))
			}
			continue
		}

		found := s.collectFolder(path)
		SortPaths(path, found)
		files = append(files, found...)
	}

	if len(paths) > 0 && missing == len(paths) {
		return nil, domain.ErrFileNotFound
	}
	return files, nil
}

func (s *LibraryService) collectFolder(root string) []string {
	start := time.Now()
	var files []string

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip files/folders we can't access
			return nil
		}
		if d.Type().IsRegular() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	s.logger.Debug("folder enumerated",
		slog.String("path", root),
		slog.Int("files", len(files)),
		slog.Duration("elapsed", time.Since(start)))
	return files
}

// SongFromPath reads the file at path into a song. On failure it returns
// the invalid placeholder together with the error, so callers that only
// check the song still reject it.
func (s *LibraryService) SongFromPath(path string) (*domain.Song, error) {
	if !s.IsFormatSupported(path) {
		return domain.InvalidSong(), domain.ErrUnsupportedFormat
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.InvalidSong(), domain.NewMetadataError(path, "cannot resolve path", err)
	}

	md, err := s.reader.Read(abs)
	if err != nil {
		return domain.InvalidSong(), err
	}

	var cover *domain.CoverArt
	if s.covers != nil {
		cover, err = s.covers.Lookup(abs, md)
		if err != nil && !errors.Is(err, domain.ErrNoCoverArt) {
			s.logger.Warn("failed to load cover art", slog.String("path", abs), slog.Any("error", err))
		}
	}

	return domain.NewSong(abs, SongUUID(abs, md), md, cover), nil
}

// LoadSongs reads files one at a time, publishing progress after each. Files
// that fail to load are skipped. If ctx is canceled, or CancelLoad is called,
// the songs loaded so far are returned with domain.ErrLoadCancelled.
func (s *LibraryService) LoadSongs(ctx context.Context, files []string) ([]*domain.Song, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, domain.NewServiceError("library", "LoadSongs", "load already in progress", nil)
	}
	s.loading = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.loading = false
		s.cancelLoad = nil
		s.mu.Unlock()
	}()

	start := time.Now()
	total := len(files)
	songs := make([]*domain.Song, 0, total)
	progress := domain.LoadProgress{Total: total}

	s.publish(domain.NewLoadStartedEvent(total))

	for i, file := range files {
		select {
		case <-ctx.Done():
			s.publish(domain.NewLoadCancelledEvent(progress))
			s.logger.Info("load cancelled", slog.Int("loaded", len(songs)), slog.Int("total", total))
			return songs, domain.ErrLoadCancelled
		default:
		}

		song, err := s.SongFromPath(file)
		if err != nil {
			s.logger.Debug("skipping file", slog.String("path", file), slog.Any("error", err))
		} else {
			songs = append(songs, song)
		}

		progress = domain.LoadProgress{
			CurrentFile: file,
			Current:     i + 1,
			Total:       total,
			Loaded:      len(songs),
		}
		s.publish(domain.NewLoadProgressEvent(progress))
	}

	elapsed := time.Since(start)
	s.publish(domain.NewLoadCompletedEvent(len(songs), total-len(songs), elapsed))
	s.logger.Info("songs loaded",
		slog.Int("loaded", len(songs)),
		slog.Int("failed", total-len(songs)),
		slog.Duration("elapsed", elapsed))

	return songs, nil
}

// CancelLoad cancels the running batch load.
func (s *LibraryService) CancelLoad() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loading {
		return domain.NewServiceError("library", "CancelLoad", "no load in progress", nil)
	}
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	return nil
}

// IsLoading returns true if a batch load is in progress.
func (s *LibraryService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// QueueFiles collects, loads and queues paths, then saves the playlist
// snapshot. It returns domain.ErrNoSongsFound when nothing could be loaded.
func (s *LibraryService) QueueFiles(ctx context.Context, paths []string) (QueueResult, error) {
	files, err := s.CollectFiles(paths)
	if err != nil {
		return QueueResult{}, err
	}

	result, err := s.queueFiles(ctx, files)
	if err != nil {
		return result, err
	}

	s.saveSnapshot()
	return result, nil
}

func (s *LibraryService) queueFiles(ctx context.Context, files []string) (QueueResult, error) {
	songs, err := s.LoadSongs(ctx, files)
	if err != nil {
		return QueueResult{}, err
	}
	if len(songs) == 0 {
		return QueueResult{}, domain.ErrNoSongsFound
	}

	return s.player.QueueSongs(songs), nil
}

func (s *LibraryService) saveSnapshot() {
	if s.playlists == nil {
		return
	}

	paths := lo.Map(s.player.Queue().Songs(), func(song *domain.Song, _ int) string {
		return song.Path()
	})
	if err := s.playlists.Save(paths); err != nil {
		s.logger.Warn("failed to save playlist snapshot", slog.Any("error", err))
	}
}

// RestorePlaylist queues the files of the last saved snapshot. A missing
// snapshot is not an error and queues nothing.
func (s *LibraryService) RestorePlaylist(ctx context.Context) (QueueResult, error) {
	if s.playlists == nil {
		return QueueResult{}, nil
	}

	paths, err := s.playlists.Load()
	if errors.Is(err, domain.ErrNoCachedPlaylist) {
		s.logger.Debug("no playlist to restore")
		return QueueResult{}, nil
	}
	if err != nil {
		return QueueResult{}, err
	}

	s.logger.Info("restoring playlist", slog.Int("entries", len(paths)))
	return s.queueFiles(ctx, paths)
}

// Shutdown cancels any running load.
func (s *LibraryService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading && s.cancelLoad != nil {
		s.cancelLoad()
	}
}
