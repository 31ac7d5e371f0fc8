// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrInvalidSong is returned when the invalid placeholder song is added to a queue.
	ErrInvalidSong = errors.New("invalid song")

	// ErrQueueEmpty is returned when an operation requires a non-empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrInvalidIndex is returned when a queue position is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoSongsFound is returned when a batch load produced no playable song.
	ErrNoSongsFound = errors.New("no songs found")

	// ErrNoCachedPlaylist is returned when there is no playlist snapshot to restore.
	ErrNoCachedPlaylist = errors.New("no cached playlist")

	// ErrNoCoverArt is returned when neither the tags nor the folder hold a cover.
	ErrNoCoverArt = errors.New("no cover art")

	// ErrWaveformNotCached is returned when no waveform is cached for a song.
	ErrWaveformNotCached = errors.New("waveform not cached")

	// ErrPlayerClosed is returned when an action is sent after shutdown.
	ErrPlayerClosed = errors.New("player is closed")

	// ErrLoadCancelled is returned when a batch load is canceled.
	ErrLoadCancelled = errors.New("load cancelled")

	// ErrIntegrationUnavailable is returned when a desktop integration cannot be set up.
	ErrIntegrationUnavailable = errors.New("desktop integration unavailable")
)

// BackendError represents an error from the media backend.
type BackendError struct {
	Op      string // Operation that failed (e.g., "set_uri", "play", "seek")
	URI     string // Song location (if applicable)
	Message string
	Err     error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("backend %s failed for '%s': %s", e.Op, e.URI, e.Message)
	}
	return fmt.Sprintf("backend %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new BackendError.
func NewBackendError(op, uri, message string, err error) *BackendError {
	return &BackendError{
		Op:      op,
		URI:     uri,
		Message: message,
		Err:     err,
	}
}

// MetadataError represents a failure to read an audio file's metadata.
type MetadataError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata for '%s': %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *MetadataError) Unwrap() error {
	return e.Err
}

// NewMetadataError creates a new MetadataError.
func NewMetadataError(path, message string, err error) *MetadataError {
	return &MetadataError{
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "playlist", "settings", "waveform")
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer.
type ServiceError struct {
	Service string // Service name (e.g., "player", "library")
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
