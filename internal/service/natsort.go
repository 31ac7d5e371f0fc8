package service

import (
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newFilenameCollator returns a collator that orders "track 2" before
// "track 10". Collators keep internal buffers, so each sort gets its own.
func newFilenameCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
}

// sortsLast reports whether a name is hidden or a backup, which file
// managers list after everything else.
func sortsLast(name string) bool {
	return name != "" && (name[0] == '.' || name[0] == '#')
}

func compareNames(c *collate.Collator, a, b string) int {
	lastA, lastB := sortsLast(a), sortsLast(b)
	switch {
	case !lastA && lastB:
		return -1
	case lastA && !lastB:
		return 1
	default:
		return c.CompareString(a, b)
	}
}

// parentName returns the directory of path relative to base, or its base
// name when base is empty, base itself or unrelated.
func parentName(base, path string) string {
	dir := filepath.Dir(path)
	if base != "" {
		rel, err := filepath.Rel(base, dir)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(dir)
}

// comparePaths orders files by parent directory, then by file name.
func comparePaths(c *collate.Collator, base, a, b string) int {
	if order := compareNames(c, parentName(base, a), parentName(base, b)); order != 0 {
		return order
	}
	return compareNames(c, filepath.Base(a), filepath.Base(b))
}

// SortPaths sorts paths in place the way a file manager lists them, with
// directories taken relative to base.
func SortPaths(base string, paths []string) {
	c := newFilenameCollator()
	slices.SortStableFunc(paths, func(a, b string) int {
		return comparePaths(c, base, a, b)
	})
}
