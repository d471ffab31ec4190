package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/trialbill/pkg/config"
)

const serviceName = "trialbill"

// newRootCmd builds the command tree. Config options are passed to every
// config.Load call; tests use them to inject an environment.
func newRootCmd(cfgOpts ...config.Option) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Trial-first subscription billing service",
		Long: `trialbill signs users up, starts free trials on a plan and hands billing
to the configured gateway once the trial ends.

Configuration is read from environment variables and an optional .env file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load instead of ./.env")

	load := func() (appConfig, error) {
		opts := cfgOpts
		if envFile != "" {
			opts = append([]config.Option{config.WithDotenv(envFile)}, opts...)
		}
		var cfg appConfig
		err := config.Load(&cfg, opts...)
		return cfg, err
	}

	root.AddCommand(
		newServeCmd(load),
		newReconcileCmd(load),
		newPlansCmd(load),
	)
	return root
}
