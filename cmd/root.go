package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

type playOptions struct {
	shuffle    bool
	repeat     string
	replayGain string
	volume     float64
	restore    bool
	noMPRIS    bool
	noInhibit  bool
	noNotify   bool
	mockAudio  bool
	logLevel   string
	logFormat  string
	exitOnEnd  bool
	ephemeral  bool
}

func newRootCmd() *cobra.Command {
	opts := &playOptions{volume: -1}

	cmd := &cobra.Command{
		Use:           "cadence [FILE|FOLDER]...",
		Short:         "Play music files and folders",
		Long:          "Cadence queues the given files and folders and plays them. Without arguments it restores the last playlist.",
		Version:       app.GetVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.shuffle, "shuffle", "s", false, "Shuffle the queue")
	flags.StringVarP(&opts.repeat, "repeat", "r", "", "Repeat mode: consecutive, repeat-all or repeat-one")
	flags.StringVar(&opts.replayGain, "replay-gain", "", "Replay gain: album, track or off")
	flags.Float64Var(&opts.volume, "volume", -1, "Volume between 0 and 1")
	flags.BoolVar(&opts.restore, "restore", true, "Restore the last playlist when no files are given")
	flags.BoolVar(&opts.noMPRIS, "no-mpris", false, "Do not register on the session bus")
	flags.BoolVar(&opts.noInhibit, "no-inhibit", false, "Do not block suspend while playing")
	flags.BoolVar(&opts.noNotify, "no-notify", false, "Do not show now-playing notifications")
	flags.BoolVar(&opts.mockAudio, "mock-audio", false, "Use a silent backend")
	flags.BoolVar(&opts.exitOnEnd, "exit-on-end", false, "Exit once the queue has played to the end")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "Do not read or save the playlist and settings")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")

	cmd.AddCommand(
		newVersionCmd(),
		newPlaylistCmd(opts),
		newSettingsCmd(opts),
		newSearchCmd(opts),
	)
	return cmd
}

// config builds the application configuration from the flags.
func (o *playOptions) config() (app.Config, error) {
	config := app.DefaultConfig()
	config.UseMockAudio = o.mockAudio
	config.EnableMPRIS = !o.noMPRIS
	config.EnableInhibit = !o.noInhibit
	config.EnableNotifications = !o.noNotify
	config.ExitOnEnd = o.exitOnEnd
	config.Ephemeral = o.ephemeral

	if o.logLevel != "" {
		level, err := logger.ParseLevel(o.logLevel)
		if err != nil {
			return config, err
		}
		config.LogLevel = level
	}
	if o.logFormat != "" {
		config.LogFormat = o.logFormat
	}
	return config, nil
}

// quiet returns a configuration for one-shot commands.
func (o *playOptions) quiet() (app.Config, error) {
	config, err := o.config()
	if err != nil {
		return config, err
	}
	config.UseMockAudio = true
	config.EnableMPRIS = false
	config.EnableInhibit = false
	config.EnableNotifications = false
	config.WatchSettings = false
	return config, nil
}

func runPlayer(ctx context.Context, out io.Writer, opts *playOptions, args []string) error {
	config, err := opts.config()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		}
	}()

	if err := applyOverrides(application, opts); err != nil {
		return err
	}

	printer := newEventPrinter(out, application.EventBus())
	defer printer.Close()

	switch {
	case len(args) > 0:
		result, err := application.Open(ctx, args, opts.shuffle)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Queued %d songs\n", result.Added)

	case opts.restore:
		result, err := application.RestorePlaylist(ctx)
		if err != nil {
			return err
		}
		if result.Added > 0 {
			fmt.Fprintf(out, "Restored %d songs\n", result.Added)
			application.Player().SetShuffled(opts.shuffle)
			application.Player().Play()
		}
	}

	if application.Player().Queue().IsEmpty() && !config.EnableMPRIS {
		return errors.New("nothing to play")
	}

	return application.Run(ctx)
}

// applyOverrides applies the playback flags. They are saved like any other
// change to the player.
func applyOverrides(application *app.Application, opts *playOptions) error {
	player := application.Player()

	if opts.repeat != "" {
		mode, err := domain.ParseRepeatMode(opts.repeat)
		if err != nil {
			return err
		}
		player.SetRepeatMode(mode)
	}

	if opts.replayGain != "" {
		mode, err := domain.ParseReplayGainMode(opts.replayGain)
		if err != nil {
			return err
		}
		player.SetReplayGain(mode)
		if err := application.Settings().SetReplayGain(mode); err != nil {
			return err
		}
	}

	if opts.volume >= 0 {
		if err := player.SetVolume(opts.volume); err != nil {
			return err
		}
	}
	return nil
}
