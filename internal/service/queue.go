// Package service provides the playback core of the Cadence player: the queue,
// the observable player state, the audio player that drives both, and the
// library, cover and settings services around it.
package service

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const noPosition = -1

// Queue is the ordered list of songs to play, with a current position, a
// repeat mode and an optional shuffle permutation.
//
// Positions are always in the effective order: the shuffled order while
// shuffling is on, the insertion order otherwise. Every operation is total on
// an empty queue. Events are published after the queue lock is released.
//
// All operations are thread-safe via sync.RWMutex.
type Queue struct {
	bus ports.EventBus
	rng *rand.Rand

	mu      sync.RWMutex
	songs   []*domain.Song
	order   []int // nil unless shuffled
	current int
	repeat  domain.RepeatMode
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) QueueOption {
	return func(q *Queue) {
		q.rng = rng
	}
}

// NewQueue creates an empty queue in consecutive mode.
func NewQueue(bus ports.EventBus, opts ...QueueOption) *Queue {
	q := &Queue{
		bus:     bus,
		current: noPosition,
		repeat:  domain.RepeatConsecutive,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return q
}

func (q *Queue) publish(events ...domain.Event) {
	if q.bus == nil {
		return
	}
	for _, e := range events {
		q.bus.Publish(e)
	}
}

// storeIndex maps an effective position to an index into songs. Positions past
// the end of the permutation (songs appended while shuffled) map to themselves.
func (q *Queue) storeIndex(pos int) int {
	if q.order != nil && pos < len(q.order) {
		return q.order[pos]
	}
	return pos
}

func (q *Queue) songAt(pos int) *domain.Song {
	if pos < 0 || pos >= len(q.songs) {
		return nil
	}
	return q.songs[q.storeIndex(pos)]
}

// positionOf returns the effective position of song, or noPosition.
func (q *Queue) positionOf(song *domain.Song) int {
	for pos := range q.songs {
		if q.songs[q.storeIndex(pos)].Equals(song) {
			return pos
		}
	}
	return noPosition
}

func (q *Queue) currentChanged() domain.Event {
	return domain.NewCurrentSongChangedEvent(q.current, q.songAt(q.current))
}

// setCurrent moves the current position and returns the song there.
func (q *Queue) setCurrent(pos int) (*domain.Song, []domain.Event) {
	q.current = pos
	return q.songAt(pos), []domain.Event{q.currentChanged()}
}

// Len returns the number of songs.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs)
}

// IsEmpty reports whether the queue has no songs.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// SongAt returns the song at pos in the effective order, or nil.
func (q *Queue) SongAt(pos int) *domain.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.songAt(pos)
}

// Songs returns the songs in effective order.
func (q *Queue) Songs() []*domain.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()

	songs := make([]*domain.Song, len(q.songs))
	for pos := range songs {
		songs[pos] = q.songAt(pos)
	}
	return songs
}

// IndexOf returns the effective position of song, or -1.
func (q *Queue) IndexOf(song *domain.Song) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.positionOf(song)
}

// CurrentSong returns the song at the current position, or nil.
func (q *Queue) CurrentSong() *domain.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.songAt(q.current)
}

// CurrentPosition returns the current position and whether there is one.
func (q *Queue) CurrentPosition() (int, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current, q.current != noPosition
}

// SetCurrentSong makes song current, looking it up by identity. A nil song
// clears the current position; a song not in the queue is ignored.
func (q *Queue) SetCurrentSong(song *domain.Song) {
	q.mu.Lock()
	pos := noPosition
	if song != nil {
		pos = q.positionOf(song)
		if pos == noPosition {
			q.mu.Unlock()
			return
		}
	}
	_, events := q.setCurrent(pos)
	q.mu.Unlock()

	q.publish(events...)
}

// AddSong appends song. Nil songs and the invalid placeholder are rejected
// with domain.ErrInvalidSong.
func (q *Queue) AddSong(song *domain.Song) error {
	if song.IsInvalid() {
		return domain.ErrInvalidSong
	}

	q.mu.Lock()
	q.songs = append(q.songs, song)
	count := len(q.songs)
	q.mu.Unlock()

	q.publish(domain.NewQueueChangedEvent(count))
	return nil
}

// AddSongs appends every valid song and returns how many were added.
func (q *Queue) AddSongs(songs []*domain.Song) int {
	valid := slices.DeleteFunc(slices.Clone(songs), (*domain.Song).IsInvalid)
	if len(valid) == 0 {
		return 0
	}

	q.mu.Lock()
	q.songs = append(q.songs, valid...)
	count := len(q.songs)
	q.mu.Unlock()

	q.publish(domain.NewQueueChangedEvent(count))
	return len(valid)
}

// RemoveSong removes the first song equal to song. When shuffled, the
// remaining songs are reshuffled around the current song. The current position
// is cleared if the current song was removed or the queue became empty.
func (q *Queue) RemoveSong(song *domain.Song) {
	q.mu.Lock()

	idx := slices.IndexFunc(q.songs, song.Equals)
	if idx < 0 {
		q.mu.Unlock()
		return
	}

	current := q.songAt(q.current)
	q.songs = slices.Delete(q.songs, idx, idx+1)

	currentStore := noPosition
	if current != nil {
		currentStore = slices.IndexFunc(q.songs, current.Equals)
	}

	if q.order != nil {
		anchor := max(currentStore, 0)
		q.order = anchoredShuffle(len(q.songs), anchor, q.rng)
	}

	// with a fresh or no permutation, the anchor's store index is its position
	pos := currentStore

	events := []domain.Event{domain.NewQueueChangedEvent(len(q.songs))}
	if pos != q.current {
		_, changed := q.setCurrent(pos)
		events = append(events, changed...)
	}
	q.mu.Unlock()

	q.publish(events...)
}

// Clear removes every song, clears the current position and turns shuffling
// off.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.songs = nil
	_, events := q.setCurrent(noPosition)
	if q.order != nil {
		q.order = nil
		events = append(events, domain.NewShuffleChangedEvent(false))
	}
	q.mu.Unlock()

	q.publish(append(events, domain.NewQueueChangedEvent(0))...)
}

// NextSong advances the current position according to the repeat mode and
// returns the new current song. Without a current position it starts at 0.
// At the end of a consecutive queue the current position is cleared and nil
// is returned.
func (q *Queue) NextSong() *domain.Song {
	q.mu.Lock()

	n := len(q.songs)
	if n == 0 {
		q.mu.Unlock()
		return nil
	}

	next := 0
	if q.current != noPosition {
		switch q.repeat {
		case domain.RepeatOne:
			next = q.current
		case domain.RepeatAll:
			next = (q.current + 1) % n
		default:
			next = q.current + 1
			if next >= n {
				next = noPosition
			}
		}
	}

	song, events := q.setCurrent(next)
	q.mu.Unlock()

	q.publish(events...)
	return song
}

// PreviousSong moves back one position and returns that song. At the first
// position, or without a current position, it returns nil and changes nothing.
func (q *Queue) PreviousSong() *domain.Song {
	q.mu.Lock()

	if q.current <= 0 {
		q.mu.Unlock()
		return nil
	}

	song, events := q.setCurrent(q.current - 1)
	q.mu.Unlock()

	q.publish(events...)
	return song
}

// SkipSong jumps to pos regardless of the repeat mode and returns the song
// there. Out-of-range positions return nil and leave the queue unchanged.
func (q *Queue) SkipSong(pos int) *domain.Song {
	q.mu.Lock()

	if pos < 0 || pos >= len(q.songs) {
		q.mu.Unlock()
		return nil
	}

	song, events := q.setCurrent(pos)
	q.mu.Unlock()

	q.publish(events...)
	return song
}

// IsFirstSong reports whether the current position is 0.
func (q *Queue) IsFirstSong() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current == 0
}

// IsLastSong reports whether the current position is the last one.
func (q *Queue) IsLastSong() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current != noPosition && q.current == len(q.songs)-1
}

// RepeatMode returns the repeat mode.
func (q *Queue) RepeatMode() domain.RepeatMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repeat
}

// SetRepeatMode changes the repeat mode and reports whether it changed.
func (q *Queue) SetRepeatMode(mode domain.RepeatMode) bool {
	q.mu.Lock()
	old := q.repeat
	q.repeat = mode
	q.mu.Unlock()

	if old == mode {
		return false
	}
	q.publish(domain.NewRepeatModeChangedEvent(old, mode))
	return true
}

// IsShuffled reports whether the queue is shuffled.
func (q *Queue) IsShuffled() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.order != nil
}

// SetShuffled switches shuffling. Turning it on shuffles the songs after the
// current position (or after 0) while the current song keeps its position.
// Turning it off restores insertion order and keeps the same current song.
// Setting the current value again does nothing.
func (q *Queue) SetShuffled(shuffled bool) {
	q.mu.Lock()

	if shuffled == (q.order != nil) {
		q.mu.Unlock()
		return
	}

	events := []domain.Event{domain.NewShuffleChangedEvent(shuffled)}
	if shuffled {
		anchor := max(q.current, 0)
		q.order = anchoredShuffle(len(q.songs), anchor, q.rng)
	} else {
		current := q.songAt(q.current)
		q.order = nil
		if current != nil {
			if pos := q.positionOf(current); pos != q.current {
				_, changed := q.setCurrent(pos)
				events = append(events, changed...)
			}
		}
	}
	q.mu.Unlock()

	q.publish(events...)
}

// SelectSongAt toggles the selection flag of the song at pos.
func (q *Queue) SelectSongAt(pos int) {
	if song := q.SongAt(pos); song != nil {
		song.SetSelected(!song.Selected())
	}
}

// UnselectAllSongs clears every selection flag.
func (q *Queue) UnselectAllSongs() {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, song := range q.songs {
		song.SetSelected(false)
	}
}

// SelectedSongs returns the selected songs in effective order.
func (q *Queue) SelectedSongs() []*domain.Song {
	return slices.DeleteFunc(q.Songs(), func(s *domain.Song) bool { return !s.Selected() })
}

// NSelectedSongs returns the number of selected songs.
func (q *Queue) NSelectedSongs() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	count := 0
	for _, song := range q.songs {
		if song.Selected() {
			count++
		}
	}
	return count
}

// RemainingDuration returns the total length in seconds of the current song
// and everything after it, or of the whole queue when nothing is current.
func (q *Queue) RemainingDuration() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var total uint64
	for pos := max(q.current, 0); pos < len(q.songs); pos++ {
		total += q.songAt(pos).Duration()
	}
	return total
}
