package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pjamar/htmls-to-datasette/configs"
	"github.com/pjamar/htmls-to-datasette/internal/config"
	"github.com/pjamar/htmls-to-datasette/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage htmlstore configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented " + config.ConfigFileName + " template to the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			if _, err := os.Stat(config.ConfigFileName); err == nil {
				return fmt.Errorf("%s already exists", config.ConfigFileName)
			}

			if err := os.WriteFile(config.ConfigFileName, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", config.ConfigFileName, err)
			}

			out.Successf("Created %s", config.ConfigFileName)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
