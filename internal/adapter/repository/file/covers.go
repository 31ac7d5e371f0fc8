package file

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// CoverStore implements ports.CoverStore by writing PNG files named after
// the cover UUID, so identical covers are written once.
type CoverStore struct {
	dir string
	mu  sync.Mutex
}

// NewCoverStore creates a store writing under dir.
func NewCoverStore(dir string) *CoverStore {
	return &CoverStore{dir: dir}
}

func (s *CoverStore) path(coverUUID string) string {
	return filepath.Join(s.dir, filepath.Base(coverUUID)+".png")
}

// Save implements ports.CoverStore. An existing file for the same UUID is
// reused.
func (s *CoverStore) Save(coverUUID string, img image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(coverUUID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", domain.NewRepositoryError("save", "cover", "failed to encode cover", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", domain.NewRepositoryError("save", "cover", "failed to write cover", err)
	}
	return path, nil
}

// Path implements ports.CoverStore.
func (s *CoverStore) Path(coverUUID string) (string, bool) {
	path := s.path(coverUUID)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

var _ ports.CoverStore = (*CoverStore)(nil)
