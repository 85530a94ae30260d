// Package archive expands provider export bundles into a working directory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for archive expansion.
var (
	// ErrInvalidArchive indicates the file is not a valid zip container.
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrExtraction indicates an I/O failure while extracting entries.
	ErrExtraction = errors.New("archive extraction failed")
)

// Expand extracts every entry of the zip at archivePath into destDir,
// creating destDir (and parents) first. A file that is not a zip container
// fails with ErrInvalidArchive; any other failure mid-extraction fails with
// ErrExtraction. No partial-extraction cleanup is attempted. Entries whose
// names would escape destDir are rejected.
func Expand(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrExtraction, destDir, err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: %s: %w", ErrInvalidArchive, archivePath, err)
		}
		return fmt.Errorf("%w: opening %s: %w", ErrExtraction, archivePath, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if err := extractEntry(entry, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	path := filepath.Join(destDir, entry.Name)
	if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: entry %q escapes extraction directory", ErrExtraction, entry.Name)
	}

	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("%w: opening entry %s: %w", ErrExtraction, entry.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("%w: extracting %s: %w", ErrExtraction, entry.Name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return nil
}
