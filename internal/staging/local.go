package staging

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LocalStore stages uploads as files in a local directory.
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "stock-importer-staging")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Stage(_ context.Context, r io.Reader) (string, int64, error) {
	handle := uuid.NewString() + ".csv"

	file, err := os.Create(filepath.Join(s.dir, handle))
	if err != nil {
		return "", 0, errors.Wrap(err, "creating staged file")
	}

	size, err := io.Copy(file, r)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", 0, errors.Wrap(err, "writing staged file")
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", 0, errors.Wrap(err, "closing staged file")
	}

	return handle, size, nil
}

func (s *LocalStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.dir, handle))
	if err != nil {
		return nil, errors.Wrap(err, "opening staged file")
	}
	return file, nil
}

func (s *LocalStore) Delete(_ context.Context, handle string) error {
	err := os.Remove(filepath.Join(s.dir, handle))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "deleting staged file")
	}
	return nil
}
