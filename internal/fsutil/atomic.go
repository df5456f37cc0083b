// Package fsutil holds the file system helpers shared by the pipeline stages.
package fsutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteAtomic creates path with the content produced by write. The content goes to a temporary
// file in the same directory which is renamed over path only once write succeeded, so path either
// does not exist or is complete.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "unable to create temporary file for %s", path)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	err = write(tmp)
	if err != nil {
		return err
	}

	err = tmp.Sync()
	if err != nil {
		return errors.Wrapf(err, "unable to sync %s", tmp.Name())
	}

	err = tmp.Close()
	if err != nil {
		return errors.Wrapf(err, "unable to close %s", tmp.Name())
	}

	err = os.Chmod(tmp.Name(), 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to chmod %s", tmp.Name())
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return errors.Wrapf(err, "unable to rename %s to %s", tmp.Name(), path)
	}

	committed = true

	return nil
}

// IsTemp reports whether name is a temporary file left by an interrupted WriteAtomic.
func IsTemp(name string) bool {
	base := filepath.Base(name)

	return len(base) > 5 && base[0] == '.' && filepath.Ext(base) == ".tmp"
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "unable to stat %s", path)
	}

	return true, nil
}
