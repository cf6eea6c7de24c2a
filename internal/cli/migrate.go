package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addMigrate(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema if it does not exist yet.",
		Example: `
kansoctl migrate --db-driver sqlite --db-path ~/kanso.db
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return err
		},
	}
	topLevel.AddCommand(cmd)
}
