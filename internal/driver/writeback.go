package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"buildlens/internal/diag"
	"buildlens/internal/fix"
)

// WriteBatches stores every batch's After content under root. A file whose
// current content differs from the batch snapshot is left alone and
// reported as an edit conflict. Each file is replaced through a temporary
// file in the same directory.
func WriteBatches(root string, batches []fix.EditBatch) []error {
	var errs []error
	for _, b := range batches {
		if err := writeBatch(root, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func writeBatch(root string, b fix.EditBatch) error {
	path := filepath.Join(root, filepath.FromSlash(b.Path))
	info, err := os.Stat(path)
	if err != nil {
		return &diag.IOError{Source: b.Path, Err: err}
	}
	current, err := os.ReadFile(path)
	if err != nil {
		return &diag.IOError{Source: b.Path, Err: err}
	}
	if !bytes.Equal(current, b.Before) {
		return fmt.Errorf("%s: %w: file changed since it was analyzed", b.Path, diag.ErrEditConflict)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return writeErr(b.Path, err)
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return writeErr(b.Path, err)
	}
	if _, err := tmp.Write(b.After); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return writeErr(b.Path, err)
	}
	return nil
}

func writeErr(path string, err error) error {
	return fmt.Errorf("write %s: %w: %w", path, diag.ErrIO, err)
}
