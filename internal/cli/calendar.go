package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/printer"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type calendarOptions struct {
	Year        int
	Month       int
	StartWeekOn string
	Layout      string
	Color       string
}

func addCalendar(topLevel *cobra.Command, v *viper.Viper) {
	now := time.Now()
	o := &calendarOptions{}

	cmd := &cobra.Command{
		Use:   "calendar HABIT_ID",
		Short: "Print a habit's month as a heat map.",
		Example: `
kansoctl calendar 3f0c2b8e-... --year 2025 --month 6 --layout dynamic
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, v, false)
			if err != nil {
				return err
			}
			defer s.close()

			habit, err := s.habits.GetByID(ctx, args[0])
			if err != nil {
				return err
			}

			cfg := domain.DefaultCalendarConfig()
			cfg.StartWeekOn = domain.WeekStart(o.StartWeekOn)
			cfg.Layout = domain.GridLayout(o.Layout)
			cfg.ColorScheme = domain.ColorScheme(o.Color)

			data, err := services.NewCalendarService(s.habits, s.entries).Get(ctx, services.CalendarInput{
				HabitID: habit.ID,
				UserID:  habit.UserID,
				Year:    o.Year,
				Month:   time.Month(o.Month),
				Config:  cfg,
			})
			if err != nil {
				return err
			}

			p := printer.New(cmd.OutOrStdout())
			p.Heatmap(habit.Title, data)
			p.MonthStats(data.Stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&o.Year, "year", now.Year(), "Calendar year.")
	cmd.Flags().IntVar(&o.Month, "month", int(now.Month()), "Calendar month, 1-12.")
	cmd.Flags().StringVar(&o.StartWeekOn, "start-week-on", string(domain.WeekStartMonday), `"monday" or "sunday".`)
	cmd.Flags().StringVar(&o.Layout, "layout", string(domain.GridFixed), `"fixed" (35 days) or "dynamic".`)
	cmd.Flags().StringVar(&o.Color, "color", string(domain.ColorGreen), "green, blue, purple or orange.")

	topLevel.AddCommand(cmd)
}
