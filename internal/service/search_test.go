package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

func newSearchSong(path, artist, album, title string) *domain.Song {
	return domain.NewSong(path, "", domain.Metadata{Artist: artist, Album: album, Title: title}, nil)
}

func titles(songs []*domain.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title()
	}
	return out
}

func TestSearchSongs(t *testing.T) {
	songs := []*domain.Song{
		newSearchSong("/m/blue/01.flac", "Joni Mitchell", "Blue", "All I Want"),
		newSearchSong("/m/blue/02.flac", "Joni Mitchell", "Blue", "Cactus Tree"),
		newSearchSong("/m/kid/01.flac", "Radiohead", "Kid A", "Everything in Its Right Place"),
	}

	assert.Equal(t, []string{"Cactus Tree"}, titles(SearchSongs(songs, "cactus")))
	assert.Equal(t, []string{"Everything in Its Right Place"}, titles(SearchSongs(songs, "radiohead")))
	assert.Empty(t, SearchSongs(songs, "zzzz"))

	joni := SearchSongs(songs, "joni")
	assert.Len(t, joni, 2)
}

func TestSearchSongs_EmptyQuerySortsByFile(t *testing.T) {
	songs := []*domain.Song{
		newSearchSong("/m/b/10.flac", "", "", "b10"),
		newSearchSong("/m/b/2.flac", "", "", "b2"),
		newSearchSong("/m/a/1.flac", "", "", "a1"),
	}

	result := SearchSongs(songs, "  ")
	assert.Equal(t, []string{"a1", "b2", "b10"}, titles(result))
	assert.Equal(t, "b10", songs[0].Title(), "input is not reordered")
}

func TestSortSongs(t *testing.T) {
	songs := []*domain.Song{
		newSearchSong("/m/x/track 10.mp3", "", "", "10"),
		newSearchSong("/m/x/.skip.mp3", "", "", "hidden"),
		newSearchSong("/m/x/track 9.mp3", "", "", "9"),
	}
	SortSongs(songs)
	assert.Equal(t, []string{"9", "10", "hidden"}, titles(songs))
}
