// Package storage manages the per-tone sample directories.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644

	// maxCollisionBumps bounds the search for a free file name
	maxCollisionBumps = 1000
)

// Store copies sample files into directories below a base path.
type Store struct {
	fs   afero.Fs
	base string
	log  logger.Logger
}

// New creates a Store rooted at base on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, base string, log logger.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Global().Module("storage")
	}
	return &Store{fs: fs, base: base, log: log}
}

// Base returns the root directory
func (s *Store) Base() string {
	return s.base
}

// DirName keeps only the letters and digits of a tone name, so that
// "Rickenbacker bass (4001 - 1974)" becomes "Rickenbackerbass40011974".
func DirName(toneName string) string {
	var b strings.Builder
	for _, r := range toneName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FileName returns the stored name for the ordinal-th sample: "%03d_<base>".
func FileName(ordinal int, baseName string) string {
	return fmt.Sprintf("%03d_%s", ordinal, filepath.Base(baseName))
}

// ToneDir returns the directory for a tone, creating it when missing.
func (s *Store) ToneDir(toneName string) (string, error) {
	name := DirName(toneName)
	if name == "" {
		return "", errors.Newf("tone name %q has no letters or digits", toneName).
			Component("storage").
			Category(errors.CategoryValidation).
			Build()
	}

	dir := filepath.Join(s.base, name)
	if err := s.fs.MkdirAll(dir, dirPermissions); err != nil {
		return "", errors.New(err).
			Component("storage").
			Category(errors.CategoryStorage).
			Context("operation", "create_tone_dir").
			Context("dir", dir).
			Build()
	}
	return dir, nil
}

// Path returns the full path of a stored file
func (s *Store) Path(toneName, fileName string) string {
	return filepath.Join(s.base, DirName(toneName), fileName)
}

// CopyIn copies src into the tone directory as FileName(ordinal, src). If that
// name is taken the ordinal prefix is bumped until a free name is found. The
// stored file name is returned; the source is read from the OS filesystem.
func (s *Store) CopyIn(src, toneName string, ordinal int) (string, error) {
	dir, err := s.ToneDir(toneName)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", errors.FileError(err, src, 0)
	}
	defer in.Close()

	base := filepath.Base(src)
	for bump := range maxCollisionBumps {
		name := FileName(ordinal+bump, base)
		dst := filepath.Join(dir, name)

		out, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", storageError(err, "create_file", dst)
		}

		if err := copyAndClose(out, in); err != nil {
			_ = s.fs.Remove(dst)
			return "", storageError(err, "copy_file", dst)
		}

		s.log.Debug("sample copied",
			logger.String("src", src),
			logger.String("dst", dst),
			logger.Int("bumps", bump))
		return name, nil
	}

	return "", errors.Newf("no free file name for %s after %d attempts", base, maxCollisionBumps).
		Component("storage").
		Category(errors.CategoryConflict).
		Context("dir", dir).
		Build()
}

func copyAndClose(out afero.File, in io.Reader) error {
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(toneName, fileName string) error {
	path := s.Path(toneName, fileName)
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageError(err, "remove_file", path)
	}
	return nil
}

// Exists reports whether a stored file is present
func (s *Store) Exists(toneName, fileName string) (bool, error) {
	return afero.Exists(s.fs, s.Path(toneName, fileName))
}

func storageError(err error, operation, path string) error {
	return errors.New(err).
		Component("storage").
		Category(errors.CategoryStorage).
		Context("operation", operation).
		FileContext(path, 0).
		Build()
}
