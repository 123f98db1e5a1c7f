package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Store keeps named blobs in one flat directory.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a store rooted at root on fs.
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: filepath.Clean(root)}
}

// NewOS creates a store on the local filesystem.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// Root returns the directory blobs are written to.
func (s *Store) Root() string {
	return s.root
}

// Path returns where name is stored.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Write stores data under name, replacing any previous blob of that name.
// The blob becomes visible only once fully written.
func (s *Store) Write(name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.root, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	for rest := data; len(rest) > 0; {
		n, err := tmp.Write(rest)
		if err != nil {
			return "", fmt.Errorf("write temp blob: %w", err)
		}
		rest = rest[n:]
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp blob: %w", err)
	}

	dst := s.Path(name)
	if err := s.fs.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	committed = true
	return dst, nil
}

// Read returns the content of the blob.
func (s *Store) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, s.Path(name))
}

// Exists reports whether a blob named name exists.
func (s *Store) Exists(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.Path(name))
}

// Remove deletes the blob. Removing a missing blob is not an error.
func (s *Store) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}
