package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"churchcal/internal/calendar"
	appLog "churchcal/internal/log"
	"churchcal/internal/store"
	"churchcal/internal/termcal"
)

func addGrid(topLevel *cobra.Command) {
	var (
		eventsFile string
		offline    bool
		day        string
		view       string
		weekStart  string
		agenda     bool
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print a calendar view in the terminal.",
		Example: `
churchcal grid
churchcal grid --view week --date 2024-03-24 --agenda
churchcal grid --events events.json --offline --week-start monday
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			rt, err := loadRuntime(configPath)
			if err != nil {
				return err
			}

			st := rt.store
			if eventsFile != "" || offline {
				opts := store.Options{EventsFile: rt.cfg.EventsFile, Location: rt.engine.Location}
				if eventsFile != "" {
					opts.EventsFile = eventsFile
				}
				st = store.New(opts)
			}
			if err := st.Refresh(cmd.Context()); err != nil {
				appLog.Warn("refresh incomplete", "err", err)
			}

			e := rt.engine
			if weekStart != "" {
				ws, err := calendar.ParseWeekStart(weekStart)
				if err != nil {
					return err
				}
				e.WeekStart = ws
			}

			state := e.NewState()
			state.View = rt.cfg.DefaultViewValue()
			if view != "" {
				v, err := calendar.ParseView(view)
				if err != nil {
					return err
				}
				state.View = v
			}
			if day != "" {
				d, ok := calendar.ParseDate(day, e.Location)
				if !ok {
					return fmt.Errorf("invalid date %q", day)
				}
				state = calendar.GoToDate(state, d)
			}

			return termcal.Print(color.Output, e.Render(state, st.Events()), termcal.Options{Agenda: agenda})
		},
	}

	cmd.Flags().StringVar(&eventsFile, "events", "", "Read events from this JSON file instead of the configured sources")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip ICS feeds")
	cmd.Flags().StringVarP(&day, "date", "d", "", "Reference date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&view, "view", "v", "", "day, week or month (default from config)")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "sunday or monday (default from config)")
	cmd.Flags().BoolVarP(&agenda, "agenda", "a", false, "List events under the grid")

	topLevel.AddCommand(cmd)
}
