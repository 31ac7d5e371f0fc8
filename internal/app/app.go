// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/tejashwikalptaru/cadence/internal/adapter/backend/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/backend/output"
	"github.com/tejashwikalptaru/cadence/internal/adapter/controller/inhibit"
	"github.com/tejashwikalptaru/cadence/internal/adapter/controller/mpris"
	"github.com/tejashwikalptaru/cadence/internal/adapter/controller/notify"
	"github.com/tejashwikalptaru/cadence/internal/adapter/controller/waveform"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/adapter/metadata"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/file"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/internal/service"
)

// taskBuffer bounds the bus reactions waiting for the task worker.
const taskBuffer = 32

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Keeping the player and the settings file in sync
// - Managing the application lifecycle (startup, shutdown)
type Application struct {
	config Config

	// Core dependencies
	logger *slog.Logger

	// Infrastructure
	eventBus ports.EventBus
	backend  ports.MediaBackend
	actions  *service.ActionChannel
	reader   ports.MetadataReader

	// Repositories
	playlistRepo ports.PlaylistRepository
	settingsRepo ports.SettingsRepository
	waveformRepo ports.WaveformRepository
	coverStore   ports.CoverStore

	// Services
	settings *service.SettingsService
	covers   *service.CoverCache
	player   *service.AudioPlayer
	library  *service.LibraryService

	// Controllers, each optional
	mprisCtrl   *mpris.Controller
	inhibitCtrl *inhibit.Controller
	login1      *inhibit.Login1
	notifier    *notify.Controller
	waveforms   *waveform.Generator

	// Bus reactions run on the task worker, never on the publisher's goroutine
	subs  []domain.SubscriptionID
	tasks chan func()
	wg    conc.WaitGroup

	mu       sync.Mutex
	closed   bool
	played   bool
	saving   bool
	done     chan struct{}
	doneOnce sync.Once
	cancel   context.CancelFunc
}

// NewApplication creates a new application with all dependencies wired.
// Desktop integrations that cannot start are logged and left out.
func NewApplication(config Config) (*Application, error) {
	app := &Application{
		config: config,
		tasks:  make(chan func(), taskBuffer),
		done:   make(chan struct{}),
	}

	// Step 1: Create logger
	if config.Logger != nil {
		app.logger = config.Logger
	} else {
		app.logger = logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})
	}
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create repositories
	if config.Ephemeral {
		app.playlistRepo = memory.NewPlaylistRepository()
		app.settingsRepo = memory.NewSettingsRepository()
		app.waveformRepo = memory.NewWaveformRepository()
	} else {
		app.playlistRepo = file.NewPlaylistRepository(config.PlaylistPath(), app.logger)
		app.settingsRepo = file.NewSettingsRepository(config.SettingsPath(), app.logger)
		app.waveformRepo = file.NewWaveformRepository(config.WaveformDir(), app.logger)
	}
	// notification daemons and MPRIS clients read covers from disk
	app.coverStore = file.NewCoverStore(config.CoverDir())

	// Step 4: Load settings
	app.settings = service.NewSettingsService(app.logger, app.settingsRepo, app.eventBus)

	// Step 5: Metadata and covers
	app.reader = metadata.NewReader(app.logger)
	app.covers = service.NewCoverCache(app.logger, app.coverStore)

	// Step 6: Create the media backend
	if config.UseMockAudio {
		backend := mock.NewBackend()
		backend.SetLogger(app.logger.With(slog.String("backend", "mock")))
		app.backend = backend
	} else {
		backend, err := output.NewBackend(app.logger, app.reader, config.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize media backend: %w", err)
		}
		app.backend = backend
	}

	// Step 7: Create controllers
	app.actions = service.NewActionChannel(service.DefaultActionBuffer)
	controllers := app.createControllers()

	// Step 8: Create services (with dependency injection)
	app.player = service.NewAudioPlayer(
		app.logger,
		app.backend,
		app.eventBus,
		app.actions,
		service.WithControllers(controllers...),
		service.WithCoverCache(app.covers),
	)

	app.library = service.NewLibraryService(
		app.logger,
		app.reader,
		app.covers,
		app.player,
		app.playlistRepo,
		app.eventBus,
	)

	// Step 9: Apply saved settings
	app.applySettings(app.settings.Settings())

	// Step 10: React to bus events
	app.wg.Go(app.runTasks)
	app.subscribe()

	return app, nil
}

func (a *Application) createControllers() []ports.Controller {
	var controllers []ports.Controller

	if a.config.EnableMPRIS {
		ctrl, err := mpris.New(a.logger, mpris.Config{
			Name:         appDirName,
			Identity:     a.config.AppName,
			DesktopEntry: a.config.AppID,
		}, a.actions, a.eventBus)
		if err != nil {
			a.logger.Warn("MPRIS disabled", slog.Any("error", err))
		} else {
			a.mprisCtrl = ctrl
			controllers = append(controllers, ctrl)
		}
	}

	if a.config.EnableInhibit {
		login1, err := inhibit.NewLogin1(a.config.AppName)
		if err != nil {
			a.logger.Warn("suspend inhibition disabled", slog.Any("error", err))
		} else {
			a.login1 = login1
			a.inhibitCtrl = inhibit.New(a.logger, login1)
			controllers = append(controllers, a.inhibitCtrl)
		}
	}

	if a.config.EnableNotifications {
		send := a.config.NotifySend
		if send == nil {
			send = notify.Beeep(a.config.AppName)
		}
		a.notifier = notify.New(a.logger, send)
		controllers = append(controllers, a.notifier)
	}

	a.waveforms = waveform.NewGenerator(a.logger, a.waveformRepo, a.eventBus)
	controllers = append(controllers, a.waveforms)

	return controllers
}

// applySettings pushes settings into the player. Unchanged values are no-ops.
func (a *Application) applySettings(settings domain.Settings) {
	a.player.SetReplayGain(settings.ReplayGain)
	a.player.SetRepeatMode(settings.RepeatMode)
	if a.player.State().Volume() != settings.Volume {
		if err := a.player.SetVolume(settings.Volume); err != nil {
			a.logger.Warn("failed to apply volume", slog.Any("error", err))
		}
	}
	if a.notifier != nil {
		a.notifier.SetEnabled(settings.Notifications)
	}
}

func (a *Application) subscribe() {
	on := func(eventType domain.EventType, handler domain.EventHandler) {
		a.subs = append(a.subs, a.eventBus.Subscribe(eventType, handler))
	}

	// Saves made here already match the player
	on(domain.EventSettingsChanged, func(event domain.Event) {
		a.mu.Lock()
		saving := a.saving
		a.mu.Unlock()
		if saving {
			return
		}
		settings := event.(domain.SettingsChangedEvent).Settings
		a.enqueue(func() { a.applySettings(settings) })
	})

	on(domain.EventVolumeChanged, func(event domain.Event) {
		volume := event.(domain.VolumeChangedEvent).New
		a.enqueue(func() { a.persist(func() error { return a.settings.SetVolume(volume) }) })
	})

	on(domain.EventRepeatModeChanged, func(event domain.Event) {
		mode := event.(domain.RepeatModeChangedEvent).New
		a.enqueue(func() { a.persist(func() error { return a.settings.SetRepeatMode(mode) }) })
	})

	on(domain.EventOpenRequested, func(event domain.Event) {
		uri := event.(domain.OpenRequestedEvent).URI
		a.enqueue(func() { a.open(uri) })
	})

	on(domain.EventQuitRequested, func(domain.Event) {
		a.finish()
	})

	on(domain.EventPlaybackStateChanged, func(event domain.Event) {
		if event.(domain.PlaybackStateChangedEvent).New == domain.StatePlaying {
			a.mu.Lock()
			a.played = true
			a.mu.Unlock()
		}
	})

	// the player unloads once the queue has played to the end
	on(domain.EventSongChanged, func(event domain.Event) {
		if event.(domain.SongChangedEvent).Song != nil || !a.config.ExitOnEnd {
			return
		}
		a.mu.Lock()
		played := a.played
		a.mu.Unlock()
		if played {
			a.finish()
		}
	})
}

func (a *Application) persist(save func() error) {
	a.mu.Lock()
	a.saving = true
	a.mu.Unlock()

	err := save()

	a.mu.Lock()
	a.saving = false
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn("failed to save settings", slog.Any("error", err))
	}
}

func (a *Application) open(uri string) {
	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			a.logger.Warn("unsupported location", slog.String("uri", uri))
			return
		}
		path = u.Path
	}

	if _, err := a.QueueFiles(context.Background(), []string{path}); err != nil {
		a.logger.Warn("failed to open location", slog.String("uri", uri), slog.Any("error", err))
	}
}

func (a *Application) enqueue(task func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	select {
	case a.tasks <- task:
	default:
		a.logger.Warn("task queue full, dropping bus reaction")
	}
}

func (a *Application) runTasks() {
	for task := range a.tasks {
		task()
	}
}

// finish makes Run return.
func (a *Application) finish() {
	a.doneOnce.Do(func() { close(a.done) })
}

// Player returns the audio player.
func (a *Application) Player() *service.AudioPlayer { return a.player }

// Library returns the library service.
func (a *Application) Library() *service.LibraryService { return a.library }

// Settings returns the settings service.
func (a *Application) Settings() *service.SettingsService { return a.settings }

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Waveforms returns the waveform generator.
func (a *Application) Waveforms() *waveform.Generator { return a.waveforms }

// QueueFiles loads and queues files and folders.
func (a *Application) QueueFiles(ctx context.Context, paths []string) (service.QueueResult, error) {
	return a.library.QueueFiles(ctx, paths)
}

// Open queues paths and starts playback, shuffling the queue first when asked.
func (a *Application) Open(ctx context.Context, paths []string, shuffle bool) (service.QueueResult, error) {
	result, err := a.QueueFiles(ctx, paths)
	if err != nil {
		return result, err
	}
	if shuffle {
		a.player.SetShuffled(true)
	}
	a.player.Play()
	return result, nil
}

// Run watches the settings file and blocks until ctx is done, a client asks to quit, or, with ExitOnEnd, the queue
// has played to the end.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("Cadence started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return domain.ErrPlayerClosed
	}
	a.cancel = cancel
	a.mu.Unlock()

	if a.config.WatchSettings {
		a.wg.Go(func() {
			if err := a.settings.Watch(ctx); err != nil {
				a.logger.Warn("settings will not reload", slog.Any("error", err))
			}
		})
	}

	select {
	case <-ctx.Done():
	case <-a.done:
	}
	return nil
}

// RestorePlaylist queues the last saved playlist when enabled in settings.
func (a *Application) RestorePlaylist(ctx context.Context) (service.QueueResult, error) {
	if !a.settings.RestorePlaylist() {
		return service.QueueResult{}, nil
	}
	return a.library.RestorePlaylist(ctx)
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go.
func (a *Application) Shutdown() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	a.logger.Info("shutting down application")

	var errs []error

	a.library.Shutdown()

	// The player stops calling controllers and the backend once it is shut down
	a.player.Shutdown()
	if err := a.backend.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("media backend: %w", err))
	}

	for _, id := range a.subs {
		a.eventBus.Unsubscribe(id)
	}
	a.mu.Lock()
	close(a.tasks)
	a.mu.Unlock()
	a.wg.Wait()

	// Shutdown controllers (in reverse order of creation)
	if err := a.waveforms.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("waveform generator: %w", err))
	}
	if a.notifier != nil {
		if err := a.notifier.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("notifications: %w", err))
		}
	}
	if a.inhibitCtrl != nil {
		if err := a.inhibitCtrl.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("inhibit: %w", err))
		}
	}
	if a.login1 != nil {
		if err := a.login1.Close(); err != nil {
			errs = append(errs, fmt.Errorf("login1: %w", err))
		}
	}
	if a.mprisCtrl != nil {
		if err := a.mprisCtrl.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("mpris: %w", err))
		}
	}

	if err := a.eventBus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
