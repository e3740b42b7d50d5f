// Package output handles file naming and writing for cleaned documents.
// Every source document gets its own directory under
// {OutputDir}/html_cleaner/{base}, and saves never overwrite: the first
// free name of {base}_cleaned{ext}, {base}_cleaned_1{ext}, ... is used.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// StorageDir is the directory created under the output directory.
const StorageDir = "html_cleaner"

var (
	// ErrNoFile is returned when a save has no source file name.
	ErrNoFile = errors.New("no file selected")
	// ErrNoDirectoryAccess is returned when the storage directory cannot be created.
	ErrNoDirectoryAccess = errors.New("could not access the output directory")
)

var lastExtension = regexp.MustCompile(`\.[^/.]+$`)

// maxVersions bounds the search for a free file name.
const maxVersions = 10000

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}
	return &Writer{OutputDir: outputDir}, nil
}

// DefaultBaseName replaces a base name that would not name a directory
// of its own, such as the one left from ".html".
const DefaultBaseName = "upload"

// BaseName strips the last extension from a file name.
// Example: contract.v2.html → contract.v2
func BaseName(name string) string {
	base := lastExtension.ReplaceAllString(filepath.Base(name), "")
	switch base {
	case "", ".", "..":
		return DefaultBaseName
	}
	return base
}

// StoragePath returns the directory the outputs of sourceName are saved in.
func (w *Writer) StoragePath(sourceName string) string {
	return filepath.Join(w.OutputDir, StorageDir, BaseName(sourceName))
}

// FileName returns the file name of the given version: 0 is the unversioned
// {base}_cleaned{ext}.
func FileName(base string, version int, ext string) string {
	if version == 0 {
		return base + "_cleaned" + ext
	}
	return base + "_cleaned_" + strconv.Itoa(version) + ext
}

// Save writes data as the next free version for sourceName and returns the
// path written.
func (w *Writer) Save(sourceName string, data []byte, ext string) (string, error) {
	if sourceName == "" {
		return "", ErrNoFile
	}

	dir := w.StoragePath(sourceName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoDirectoryAccess, dir, err)
	}

	base := BaseName(sourceName)
	for version := 0; version < maxVersions; version++ {
		path := filepath.Join(dir, FileName(base, version, ext))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating file %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing file %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing file %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", base, dir)
}
