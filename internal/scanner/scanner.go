// Package scanner discovers image files in source directories and extracts
// per-image metadata and fingerprints.
package scanner

import (
	"bytes"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/photo-dedup/internal/config"
	"github.com/kozaktomas/photo-dedup/internal/fingerprint"
)

// ListImages walks every source directory recursively and returns the image
// files whose extension matches a supported raster format. The result is
// sorted by path ascending so downstream processing order is stable.
// Directories that do not exist are skipped, matching the behavior of a
// user picking a folder that was removed since selection.
func ListImages(sourceDirs []string, defaults config.DefaultsConfig) ([]FileEntry, error) {
	var entries []FileEntry

	for _, dir := range sourceDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subdirectory: skip it, keep walking.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !defaults.SupportedExtension(filepath.Ext(path)) {
				return nil
			}
			entries = append(entries, FileEntry{Path: path, SourceFolder: dir})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Extract reads the file once and produces its ImageRecord: dimensions,
// pixel count, byte size, and all fingerprints. A file that cannot be read
// or decoded returns an error so the caller can count it as skipped; a
// single bad file never aborts a run.
func Extract(entry FileEntry) (*ImageRecord, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entry.Path, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", entry.Path, err)
	}

	prints, err := fingerprint.Compute(data)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint %s: %w", entry.Path, err)
	}

	return &ImageRecord{
		Path:         entry.Path,
		SourceFolder: entry.SourceFolder,
		Width:        cfg.Width,
		Height:       cfg.Height,
		PixelCount:   cfg.Width * cfg.Height,
		ByteSize:     int64(len(data)),
		Fingerprints: prints,
	}, nil
}

// ReadBytes returns the raw file contents for a record, used by the face
// engine which needs the encoded image rather than the decoded buffer.
func ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
