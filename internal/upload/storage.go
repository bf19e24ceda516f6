package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage turns an uploaded file into a stable URL. The core only
// depends on this contract; where the bytes actually live is up to the
// implementation.
type Storage interface {
	Save(name, contentType string, r io.Reader) (url string, err error)
}

// LocalStorage writes uploads to a directory served under /uploads/.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the upload directory if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Dir returns the backing directory, for the static file route.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save stores the file under a fresh id and returns its URL path.
func (s *LocalStorage) Save(name, contentType string, r io.Reader) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is required")
	}
	stored := uuid.NewString() + "_" + sanitizeFilename(name)

	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return "/uploads/" + stored, nil
}

// sanitizeFilename strips path separators and other hostile characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
