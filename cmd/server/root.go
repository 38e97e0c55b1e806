package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/platformid/internal/config"
)

const defaultConfigPath = "config/config.toml"

type commandContext struct {
	configFlag string
	portFlag   string
}

// loadConfig reads the config file, applies environment overrides and then
// command-line flags, and validates the result.
func (c *commandContext) loadConfig() (*config.Config, error) {
	path := strings.TrimSpace(c.configFlag)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(c.portFlag); p != "" {
		cfg.Server.Port = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Fingerprint identity resolution service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.portFlag, "port", "", "HTTP port (overrides config and PORT)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newScoreCommand(ctx))

	return rootCmd
}
