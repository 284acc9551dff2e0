package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/parser"
)

// imageExtensions are the file extensions treated as images when scanning
// directories. Matching is case-insensitive.
var imageExtensions = map[string]bool{
	".bmp":  true,
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// FromImages returns a source over explicit image paths.
func FromImages(paths []string) Source {
	records := make([]interface{}, len(paths))
	for i, p := range paths {
		records[i] = p
	}
	return NewSliceSource(records)
}

// FromTuples returns a source over labeled image tuples.
func FromTuples(tuples []parser.Tuple) Source {
	records := make([]interface{}, len(tuples))
	for i, t := range tuples {
		records[i] = t
	}
	return NewSliceSource(records)
}

// FromImagePatterns returns a source over the images matching the given
// glob patterns, sorted lexicographically.
func FromImagePatterns(patterns ...string) (Source, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, curerrors.Wrapf(err, curerrors.ErrorTypeFile,
				"invalid image pattern %q", pattern)
		}
		for _, m := range matches {
			if isImagePath(m) {
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return FromImages(paths), nil
}

// FromImageDir returns a source over the images under dir, sorted
// lexicographically. With recursive set, subdirectories are scanned too.
func FromImageDir(dir string, recursive bool) (Source, error) {
	var paths []string

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isImagePath(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, curerrors.Wrapf(err, curerrors.ErrorTypeFile,
				"failed to scan image directory %q", dir)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, curerrors.Wrapf(err, curerrors.ErrorTypeFile,
				"failed to read image directory %q", dir)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImagePath(entry.Name()) {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	}

	sort.Strings(paths)
	return FromImages(paths), nil
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}
