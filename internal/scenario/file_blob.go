package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileBlob stores each key as <dir>/<key>.json. Writes go to a temp file that
// is renamed over the target, so readers never see a half written document.
type FileBlob struct {
	fs  afero.Fs
	dir string
}

func NewFileBlob(fs afero.Fs, dir string) *FileBlob {
	return &FileBlob{fs: fs, dir: dir}
}

func (b *FileBlob) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBlob) Load(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (b *FileBlob) Save(_ context.Context, key string, data []byte) error {
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := afero.TempFile(b.fs, b.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		b.fs.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmp.Name())
		return err
	}
	return b.fs.Rename(tmp.Name(), b.path(key))
}
