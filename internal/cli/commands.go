// Package cli implements kansoctl, the operator tool for a kanso database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

const defaultConfigPath = "~/.kanso.toml"

func New() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KANSO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "kansoctl",
		Short:         "Operate a kanso habits database from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", defaultConfigPath, "TOML config file; missing files are ignored.")
	flags.String("db-driver", "", `Database driver, "pgx" or "sqlite". Overrides the config file.`)
	flags.String("db-path", "", "SQLite database file. Overrides the config file.")
	for _, name := range []string{"config", "db-driver", "db-path"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	AddCommands(cmd, v)
	return cmd
}

func AddCommands(topLevel *cobra.Command, v *viper.Viper) {
	addMigrate(topLevel, v)
	addCalendar(topLevel, v)
	addStreaks(topLevel, v)
	addSummary(topLevel, v)
	addConfig(topLevel, v)
	addVersion(topLevel)
}

// loadConfig reads the service config the way the API does, then applies
// flag and KANSO_* overrides.
func loadConfig(v *viper.Viper) (config.Config, error) {
	path, err := homedir.Expand(v.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg, err := config.Load(path, ".env")
	if err != nil {
		return cfg, err
	}

	if d := v.GetString("db-driver"); d != "" {
		cfg.Database.Driver = d
	}
	if p := v.GetString("db-path"); p != "" {
		if cfg.Database.Path, err = homedir.Expand(p); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// store is the set of repositories and services the commands share.
type store struct {
	close   func() error
	habits  *repository.SQLHabitRepository
	entries *repository.SQLEntryRepository
	streaks *services.StreakService
	habitSv *services.HabitService
}

func openStore(ctx context.Context, v *viper.Viper, migrate bool) (*store, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	habits := repository.NewSQLHabitRepository(db)
	entries := repository.NewSQLEntryRepository(db)
	streaks := services.NewStreakService(habits, entries)

	return &store{
		close:   db.Close,
		habits:  habits,
		entries: entries,
		streaks: streaks,
		habitSv: services.NewHabitService(habits, entries, repository.NewSQLTransactor(db), streaks),
	}, nil
}
