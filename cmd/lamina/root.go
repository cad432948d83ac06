package main

import (
	"github.com/hupe1980/lamina/internal/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "lamina",
		Short: "Minimal multi-agent request router",
		Long: `Lamina decides which specialised agent should handle a natural-language
request, optionally decomposes it into a plan of agent steps, and returns a
structured response.

Configuration is read from lamina.yaml in the working directory or
$XDG_CONFIG_HOME/lamina, and from LAMINA_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a config file")

	cmd.AddCommand(
		newServeCmd(flags),
		newDispatchCmd(flags),
		newAgentsCmd(flags),
		newConfigCmd(flags),
	)

	return cmd
}

func (f *rootFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if f.configPath != "" {
		cfg, err = config.LoadFromPath(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
