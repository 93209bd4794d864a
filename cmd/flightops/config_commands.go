package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/flightops/pkg/config"
)

var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Show the effective configuration, locate the config file, or write a default one.`,
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.showConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml, json")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if p := config.NewLoader(a.configPath).Path(); p != "" {
				_, err := fmt.Fprintln(out, p)
				return err
			}
			_, err := fmt.Fprintf(out, "no config file found; defaults in use (create one at %s)\n", config.DefaultConfigPath())
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := a.configPath
			if target == "" {
				target = config.DefaultConfigPath()
			}
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%w: %s", errConfigExists, target)
			}
			if err := config.Save(config.Default(), target); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, path, initCmd)
	return cmd
}

func (a *app) showConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		source := config.NewLoader(a.configPath).Path()
		if source == "" {
			source = "defaults"
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintf(w, "# Source: %s\n%s", source, data)
		return err
	default:
		return fmt.Errorf("unknown config format %q: must be yaml or json", format)
	}
}
