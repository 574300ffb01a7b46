package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/site-environment/internal/config"
)

// errConfigExists is returned by `config init` when it would overwrite a file.
var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// newConfigCommand groups configuration helpers.
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	var (
		output string
		force  bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a YAML file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return errConfigExists
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("stat %s: %w", output, err)
				}
			}

			if err := config.Save(output, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)

			return nil
		},
	}

	initCmd.Flags().StringVarP(&output, "output", "o", config.DefaultConfigFilename, "where to write the configuration")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)

	return configCmd
}
