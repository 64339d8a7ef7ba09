// Package fileutil provides filesystem helpers for locating and measuring
// stage artifacts.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact describes one produced file.
type Artifact struct {
	Path    string
	SizeKB  float64
	ModTime time.Time
}

// NewestWithExtension returns the most recently modified file in dir with the
// given extension (e.g. ".mp3"), or nil when none exists. External tools are
// expected to produce exactly one artifact; when several are present the
// newest wins.
func NewestWithExtension(dir, ext string) (*Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var newest *Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidate := Artifact{
			Path:    filepath.Join(dir, entry.Name()),
			SizeKB:  float64(info.Size()) / 1024,
			ModTime: info.ModTime(),
		}
		if newest == nil || candidate.ModTime.After(newest.ModTime) {
			newest = &candidate
		}
	}
	return newest, nil
}

// SizeKB returns the file size in kilobytes.
func SizeKB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.Size()) / 1024, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RenameFirst renames the first existing candidate to dest and reports
// whether any rename happened. Used for best-effort artifact adoption where
// the producing tool may have written any of several names.
func RenameFirst(candidates []string, dest string) bool {
	for _, candidate := range candidates {
		if !Exists(candidate) {
			continue
		}
		if err := os.Rename(candidate, dest); err == nil {
			return true
		}
	}
	return false
}
