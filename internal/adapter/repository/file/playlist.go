// Package file provides repositories that persist to the user's cache and
// config directories.
package file

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	playlistGroup = "playlist"
	countKey      = "NumberOfEntries"
	fileKeyPrefix = "File"
)

// PlaylistRepository implements ports.PlaylistRepository as a key file:
//
//	[playlist]
//	NumberOfEntries = 2
//	File0           = /music/a.flac
//	File1           = /music/b.flac
//
// Thread-safe: All operations protected by sync.Mutex.
type PlaylistRepository struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewPlaylistRepository creates a repository storing the snapshot at path.
func NewPlaylistRepository(path string, logger *slog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		path:   path,
		logger: logger.With(slog.String("repository", "playlist")),
	}
}

// Save replaces the snapshot with paths.
func (r *PlaylistRepository) Save(paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := encodePlaylist(paths)
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to encode snapshot", err)
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to write snapshot", err)
	}

	r.logger.Debug("playlist snapshot saved", slog.Int("entries", len(paths)))
	return nil
}

// Load returns the saved paths. A missing or malformed snapshot returns
// domain.ErrNoCachedPlaylist.
func (r *PlaylistRepository) Load() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("failed to read playlist snapshot", slog.Any("error", err))
		}
		return nil, domain.ErrNoCachedPlaylist
	}

	paths, err := decodePlaylist(data)
	if err != nil {
		r.logger.Warn("corrupt playlist snapshot", slog.String("path", r.path), slog.Any("error", err))
		return nil, domain.ErrNoCachedPlaylist
	}
	return paths, nil
}

// Clear removes the snapshot.
func (r *PlaylistRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return domain.NewRepositoryError("clear", "playlist", "failed to remove snapshot", err)
	}
	return nil
}

// playlistOptions keep comment characters and trailing backslashes in path values.
var playlistOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	IgnoreContinuation:  true,
	KeyValueDelimiters:  "=",
}

func encodePlaylist(paths []string) ([]byte, error) {
	cfg := ini.Empty(playlistOptions)
	section, err := cfg.NewSection(playlistGroup)
	if err != nil {
		return nil, err
	}
	if _, err := section.NewKey(countKey, strconv.Itoa(len(paths))); err != nil {
		return nil, err
	}
	for i, path := range paths {
		if _, err := section.NewKey(fileKeyPrefix+strconv.Itoa(i), path); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePlaylist(data []byte) ([]string, error) {
	cfg, err := ini.LoadSources(playlistOptions, data)
	if err != nil {
		return nil, err
	}
	section, err := cfg.GetSection(playlistGroup)
	if err != nil {
		return nil, err
	}
	key, err := section.GetKey(countKey)
	if err != nil {
		return nil, err
	}
	count, err := key.Int()
	if err != nil || count < 0 {
		return nil, fmt.Errorf("invalid %s %q", countKey, key.String())
	}

	paths := make([]string, 0, count)
	for i := range count {
		key, err := section.GetKey(fileKeyPrefix + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		// Value skips %(name)s interpolation.
		paths = append(paths, key.Value())
	}
	return paths, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
