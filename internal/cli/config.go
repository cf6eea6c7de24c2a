package cli

import (
	"fmt"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comitanigiacomo/kanso-habits/internal/config"
)

func addConfig(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the kanso config file.",
	}

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a config file with the default settings.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("config")
			if len(args) == 1 {
				path = args[0]
			}
			path, err := homedir.Expand(path)
			if err != nil {
				return err
			}

			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective database settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "driver=%s path=%s host=%s name=%s\n",
				cfg.Database.Driver, cfg.Database.Path, cfg.Database.Host, cfg.Database.Name)
			return err
		},
	}

	cmd.AddCommand(initCmd, show)
	topLevel.AddCommand(cmd)
}
