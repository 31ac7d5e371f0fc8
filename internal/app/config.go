package app

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tejashwikalptaru/cadence/internal/adapter/backend/output"
	"github.com/tejashwikalptaru/cadence/internal/adapter/controller/notify"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

const appDirName = "cadence"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier, also the desktop entry name
	AppID string

	// AppName is the display name
	AppName string

	// CacheDir holds the playlist snapshot, waveforms and cover images
	CacheDir string

	// ConfigDir holds settings.toml
	ConfigDir string

	// SampleRate is the speaker sample rate
	SampleRate int

	// UseMockAudio replaces the speaker with a recording backend (for testing)
	UseMockAudio bool

	// EnableMPRIS, EnableInhibit and EnableNotifications toggle the desktop integrations
	EnableMPRIS         bool
	EnableInhibit       bool
	EnableNotifications bool

	// Ephemeral keeps the playlist, settings and waveforms in memory only
	Ephemeral bool

	// WatchSettings reloads settings.toml when it is edited
	WatchSettings bool

	// ExitOnEnd makes Run return once the queue has played to the end
	ExitOnEnd bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// Logger overrides the logger built from LogLevel and LogFormat (nil for production)
	Logger *slog.Logger

	// NotifySend overrides desktop notification delivery (nil for production)
	NotifySend notify.SendFunc
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:               "io.github.cadence",
		AppName:             "Cadence",
		CacheDir:            userDir(os.UserCacheDir),
		ConfigDir:           userDir(os.UserConfigDir),
		SampleRate:          output.DefaultSampleRate,
		UseMockAudio:        false,
		EnableMPRIS:         true,
		EnableInhibit:       true,
		EnableNotifications: true,
		WatchSettings:       true,
		LogLevel:            loggerCfg.Level,
		LogFormat:           loggerCfg.Format,
	}
}

func userDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appDirName)
}

// PlaylistPath is the location of the playlist snapshot.
func (c Config) PlaylistPath() string {
	return filepath.Join(c.CacheDir, "playlist.ini")
}

// SettingsPath is the location of the settings file.
func (c Config) SettingsPath() string {
	return filepath.Join(c.ConfigDir, "settings.toml")
}

// WaveformDir is where waveform peaks are cached.
func (c Config) WaveformDir() string {
	return filepath.Join(c.CacheDir, "waveforms")
}

// CoverDir is where cover images are written.
func (c Config) CoverDir() string {
	return filepath.Join(c.CacheDir, "covers")
}
