package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/printer"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

func addStreaks(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "streaks",
		Short: "Inspect and rebuild cached streak counters.",
	}

	var userID string
	recalc := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute streaks for one user, or for everyone.",
		Example: `
kansoctl streaks recalc
kansoctl streaks recalc --user 6a1e...
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, v, false)
			if err != nil {
				return err
			}
			defer s.close()

			if userID != "" {
				updated, err := s.streaks.RecalculateUser(ctx, userID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %d habits\n", updated)
				return err
			}

			res := workers.NewStreakWorker(s.streaks, 0).Sweep(ctx)
			if res.Err != nil {
				return res.Err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %d habits in %s\n", res.Updated, res.Duration)
			return err
		},
	}
	recalc.Flags().StringVar(&userID, "user", "", "Only this user's habits.")

	var listUser string
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the streak counters of a user's habits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, v, false)
			if err != nil {
				return err
			}
			defer s.close()

			habits, err := s.habits.ListByUserID(ctx, listUser)
			if err != nil {
				return err
			}
			printer.New(cmd.OutOrStdout()).Streaks(habits)
			return nil
		},
	}
	list.Flags().StringVar(&listUser, "user", "", "User id.")
	_ = list.MarkFlagRequired("user")

	cmd.AddCommand(recalc, list)
	topLevel.AddCommand(cmd)
}

func addSummary(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "summary HABIT_ID",
		Short: "Print today's status card for a habit.",
		Args:  cobra.ExactArgs(1),
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
			summary, err := s.habitSv.Summary(ctx, habit.ID, habit.UserID)
			if err != nil {
				return err
			}
			printer.New(cmd.OutOrStdout()).Summary(summary)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
