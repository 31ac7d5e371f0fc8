package file

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// WaveformRepository implements ports.WaveformRepository with one JSON file
// per song, named after the song UUID.
type WaveformRepository struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

type waveformFile struct {
	Peaks [][2]float64 `json:"peaks"`
}

// NewWaveformRepository creates a repository storing peaks under dir.
func NewWaveformRepository(dir string, logger *slog.Logger) *WaveformRepository {
	return &WaveformRepository{
		dir:    dir,
		logger: logger.With(slog.String("repository", "waveform")),
	}
}

func (r *WaveformRepository) path(songUUID string) string {
	return filepath.Join(r.dir, filepath.Base(songUUID)+".json")
}

// Load implements ports.WaveformRepository.
func (r *WaveformRepository) Load(songUUID string) ([][2]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path(songUUID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrWaveformNotCached
		}
		return nil, domain.NewRepositoryError("load", "waveform", "failed to read peaks", err)
	}

	var file waveformFile
	if err := json.Unmarshal(data, &file); err != nil {
		r.logger.Warn("corrupt waveform cache entry", slog.String("song", songUUID), slog.Any("error", err))
		return nil, domain.ErrWaveformNotCached
	}
	return file.Peaks, nil
}

// Save implements ports.WaveformRepository.
func (r *WaveformRepository) Save(songUUID string, peaks [][2]float64) error {
	data, err := json.Marshal(waveformFile{Peaks: peaks})
	if err != nil {
		return domain.NewRepositoryError("save", "waveform", "failed to encode peaks", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeFileAtomic(r.path(songUUID), data); err != nil {
		return domain.NewRepositoryError("save", "waveform", "failed to write peaks", err)
	}
	return nil
}

var _ ports.WaveformRepository = (*WaveformRepository)(nil)
