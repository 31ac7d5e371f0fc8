package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/file"
	"github.com/tejashwikalptaru/cadence/internal/app"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/service"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}

func newPlaylistCmd(opts *playOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Inspect the saved playlist",
		Args:  cobra.NoArgs,
	}

	repository := func() (*file.PlaylistRepository, error) {
		config, err := opts.quiet()
		if err != nil {
			return nil, err
		}
		log := logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})
		return file.NewPlaylistRepository(config.PlaylistPath(), log), nil
	}

	show := func(cmd *cobra.Command, _ []string) error {
		repo, err := repository()
		if err != nil {
			return err
		}
		paths, err := repo.Load()
		if errors.Is(err, domain.ErrNoCachedPlaylist) {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved playlist")
			return nil
		}
		if err != nil {
			return err
		}
		for i, path := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i+1, path)
		}
		return nil
	}
	cmd.RunE = show

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List the files of the saved playlist",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the saved playlist",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				repo, err := repository()
				if err != nil {
					return err
				}
				return repo.Clear()
			},
		},
	)
	return cmd
}

func newSettingsCmd(opts *playOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the settings file location and values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.quiet()
			if err != nil {
				return err
			}
			log := logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})
			repo := file.NewSettingsRepository(config.SettingsPath(), log)
			settings, err := repo.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", repo.Path())
			return toml.NewEncoder(out).Encode(settings)
		},
	}
}

func newSearchCmd(opts *playOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the saved playlist by title, artist and album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.quiet()
			if err != nil {
				return err
			}

			application, err := app.NewApplication(config)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			log := logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})
			paths, err := file.NewPlaylistRepository(config.PlaylistPath(), log).Load()
			if errors.Is(err, domain.ErrNoCachedPlaylist) {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved playlist")
				return nil
			}
			if err != nil {
				return err
			}
			songs, err := application.Library().LoadSongs(cmd.Context(), paths)
			if err != nil {
				return err
			}

			for _, song := range service.SearchSongs(songs, args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n", describe(song), song.Path())
			}
			return nil
		},
	}
}
