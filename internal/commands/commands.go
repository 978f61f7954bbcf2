// Package commands holds the churchcal command line.
package commands

import (
	"github.com/spf13/cobra"

	"churchcal/internal/calendar"
	"churchcal/internal/config"
	"churchcal/internal/ics"
	appLog "churchcal/internal/log"
	"churchcal/internal/store"
)

var configPath string

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "churchcal",
		Short: "Parish event calendar: month, week and day views over an event feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config file")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addGrid(topLevel)
	addCapture(topLevel)
	addVersion(topLevel)
}

// runtime is what every command builds from the config file.
type runtime struct {
	cfg    *config.Config
	engine *calendar.Engine
	store  *store.Store
}

func loadRuntime(path string) (*runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, ok := appLog.ParseLevel(cfg.LogLevel); ok {
		appLog.SetLevel(lvl)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}
	opts := store.Options{
		EventsFile:   cfg.EventsFile,
		ICS:          sources,
		Location:     loc,
		HorizonDays:  cfg.HorizonDays,
		BackfillDays: cfg.BackfillDays,
	}
	if len(sources) > 0 {
		cacheDir, err := config.ExpandPath(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		opts.Fetcher = ics.NewFetcher(cacheDir)
	}

	return &runtime{
		cfg:    cfg,
		engine: calendar.NewEngine(cfg.WeekStartValue(), loc),
		store:  store.New(opts),
	}, nil
}
