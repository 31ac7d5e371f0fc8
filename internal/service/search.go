package service

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

type searchSource []*domain.Song

func (s searchSource) String(i int) string { return s[i].SearchKey() }
func (s searchSource) Len() int            { return len(s) }

// SearchSongs returns the songs whose artist, album and title fuzzy-match
// query, best match first. An empty query returns all songs sorted by file.
func SearchSongs(songs []*domain.Song, query string) []*domain.Song {
	query = strings.TrimSpace(query)
	if query == "" {
		sorted := slices.Clone(songs)
		SortSongs(sorted)
		return sorted
	}

	matches := fuzzy.FindFrom(query, searchSource(songs))
	result := make([]*domain.Song, len(matches))
	for i, match := range matches {
		result[i] = songs[match.Index]
	}
	return result
}

// SortSongs sorts songs in place by parent directory name, then file name.
func SortSongs(songs []*domain.Song) {
	c := newFilenameCollator()
	slices.SortStableFunc(songs, func(a, b *domain.Song) int {
		return comparePaths(c, "", a.Path(), b.Path())
	})
}
