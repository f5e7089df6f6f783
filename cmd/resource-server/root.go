package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auth0/go-jwks-guard/internal/config"
	"github.com/auth0/go-jwks-guard/logging"
)

func newRootCommand() *cobra.Command {
	v, err := config.InitViper()
	if err != nil {
		// Struct defaults are static; this only fails on a broken tag.
		panic(err)
	}

	root := &cobra.Command{
		Use:          "resource-server",
		Short:        "Resource server protected by JWKS-verified bearer tokens",
		Long:         `Serves an API whose routes require a bearer token signed by a key from the configured JWKS.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cfgFile := config.ConfigFile(cmd.Root().PersistentFlags()); cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
		},
	}

	config.BindFlags(root, v)
	root.AddCommand(newServeCommand(v), newCheckCommand(v))

	return root
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logrus logger described by cfg, writing to out.
func newLogger(cfg config.LogConfig, out io.Writer) (logging.Logger, *logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logging.NewLogrus(l), l, nil
}
