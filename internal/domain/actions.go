package domain

import "fmt"

// PlaybackAction is a request for the player, sent through its action channel
// by the media backend and by controllers.
type PlaybackAction interface {
	// Name identifies the action in logs.
	Name() string
}

// PlayAction starts or resumes playback.
type PlayAction struct{}

// PauseAction pauses playback.
type PauseAction struct{}

// TogglePlayAction switches between playing and paused.
type TogglePlayAction struct{}

// StopAction stops playback.
type StopAction struct{}

// SkipPreviousAction goes to the previous song, or restarts the current one.
type SkipPreviousAction struct{}

// SkipNextAction goes to the next song.
type SkipNextAction struct{}

// SkipToAction jumps to an absolute queue position.
type SkipToAction struct {
	Position int
}

// PlayNextAction is sent by the backend when a song reaches its end. URI names
// the song that ended; an empty URI advances unconditionally.
type PlayNextAction struct {
	URI string
}

// UpdatePositionAction carries the backend position in seconds. Notify is
// set when the update completes a seek rather than being a periodic tick.
type UpdatePositionAction struct {
	Position uint64
	Notify   bool
}

// VolumeChangedAction reports the volume the backend applied.
type VolumeChangedAction struct {
	Volume float64
}

// SetVolumeAction asks for a new volume.
type SetVolumeAction struct {
	Volume float64
}

// RepeatAction sets the repeat mode.
type RepeatAction struct {
	Mode RepeatMode
}

// ShuffleAction toggles queue shuffling.
type ShuffleAction struct {
	Shuffled bool
}

// SeekAction moves the position by Offset seconds; negative values seek backwards.
type SeekAction struct {
	Offset int64
}

// SeekToAction moves to an absolute position in seconds.
type SeekToAction struct {
	Position uint64
}

// RaiseAction asks the frontend to present itself.
type RaiseAction struct{}

// QuitAction asks the application to exit.
type QuitAction struct{}

// WarningAction carries a non-fatal backend problem.
type WarningAction struct {
	Message string
}

func (PlayAction) Name() string         { return "play" }
func (PauseAction) Name() string        { return "pause" }
func (TogglePlayAction) Name() string   { return "toggle_play" }
func (StopAction) Name() string         { return "stop" }
func (SkipPreviousAction) Name() string { return "skip_previous" }
func (SkipNextAction) Name() string     { return "skip_next" }
func (PlayNextAction) Name() string     { return "play_next" }
func (RaiseAction) Name() string        { return "raise" }
func (QuitAction) Name() string         { return "quit" }

func (a SkipToAction) Name() string { return fmt.Sprintf("skip_to(%d)", a.Position) }

func (a UpdatePositionAction) Name() string {
	return fmt.Sprintf("update_position(%d, %t)", a.Position, a.Notify)
}

func (a VolumeChangedAction) Name() string { return fmt.Sprintf("volume_changed(%.2f)", a.Volume) }
func (a SetVolumeAction) Name() string     { return fmt.Sprintf("set_volume(%.2f)", a.Volume) }
func (a RepeatAction) Name() string        { return "repeat(" + a.Mode.String() + ")" }
func (a ShuffleAction) Name() string       { return fmt.Sprintf("shuffle(%t)", a.Shuffled) }
func (a SeekAction) Name() string          { return fmt.Sprintf("seek(%d)", a.Offset) }
func (a SeekToAction) Name() string        { return fmt.Sprintf("seek_to(%d)", a.Position) }
func (a WarningAction) Name() string       { return "warning" }
