package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/spf13/afero"
)

const (
	// FsDocumentSuffix is a suffix of segment documents. A document
	// for 10.0.0 segment is 10_0_0.json.
	FsDocumentSuffix = ".json"

	// FsTempFilePrefix defines a prefix for temporary files. Document
	// is written into a temporary file first and renamed to its final
	// name after that so readers never see partially written files.
	// These files are ok to be removed at any given moment in time.
	FsTempFilePrefix = "tmp_"
)

type fsStore struct {
	fs  afero.Fs
	dir string
}

func (f fsStore) Name() string {
	return NameFS
}

func (f fsStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.path(key))

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, sleuthlib.ErrSegmentNotFound
	case err != nil:
		return nil, fmt.Errorf("cannot read a document: %w", err)
	}

	return data, nil
}

func (f fsStore) Put(_ context.Context, key string, doc []byte) error {
	buf := bytes.Buffer{}

	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return fmt.Errorf("cannot format a document: %w", err)
	}

	tmpFile, err := afero.TempFile(f.fs, f.dir, FsTempFilePrefix)
	if err != nil {
		return fmt.Errorf("cannot create a temporary file: %w", err)
	}

	tmpName := tmpFile.Name()

	_, err = buf.WriteTo(tmpFile)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		f.fs.Remove(tmpName) // nolint: errcheck

		return fmt.Errorf("cannot write a temporary file: %w", err)
	}

	if err := f.fs.Rename(tmpName, f.path(key)); err != nil {
		f.fs.Remove(tmpName) // nolint: errcheck

		return fmt.Errorf("cannot rename %s to a document: %w", tmpName, err)
	}

	return nil
}

func (f fsStore) Close() error {
	return nil
}

func (f fsStore) path(key string) string {
	return filepath.Join(f.dir, key+FsDocumentSuffix)
}

func (f fsStore) cleanup() error {
	infos, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return fmt.Errorf("cannot read a base directory: %w", err)
	}

	for _, v := range infos {
		if v.IsDir() || !strings.HasPrefix(v.Name(), FsTempFilePrefix) {
			continue
		}

		fullPath := filepath.Join(f.dir, v.Name())

		if err := f.fs.Remove(fullPath); err != nil {
			return fmt.Errorf("cannot delete %s: %w", fullPath, err)
		}
	}

	return nil
}

// NewFS returns a store which keeps a JSON document per segment in the
// directory. Leftovers of interrupted writes are removed on start.
func NewFS(fs afero.Fs, dir string) (sleuthlib.SegmentStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create base directory: %w", err)
	}

	store := fsStore{
		fs:  fs,
		dir: dir,
	}

	if err := store.cleanup(); err != nil {
		return nil, fmt.Errorf("cannot do an initial cleaning: %w", err)
	}

	return store, nil
}
