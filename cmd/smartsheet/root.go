package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"smartsheet/internal/server/bootstrap"
	"smartsheet/internal/shared/config"
)

// cli carries state shared by every subcommand.
type cli struct {
	configFile string
	cfg        config.Config
	meta       config.Metadata
}

// flagKeys maps CLI flags onto config keys; flags override file and env.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"host":         "server.host",
	"port":         "server.port",
	"database-url": "database.url",
	"data-dir":     "whatsapp.data_dir",
	"init-timeout": "whatsapp.init_timeout",
	"chrome-url":   "renderer.remote_url",
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "smartsheet",
		Short:         "Smart spreadsheet API with WhatsApp rota sharing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "Path to smartsheet.yaml")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.String("database-url", "", "Postgres connection string")
	flags.String("data-dir", "", "Directory holding WhatsApp device credentials")
	flags.Duration("init-timeout", 0, "How long to wait for the WhatsApp session to become ready")

	root.AddCommand(
		newServeCommand(c),
		newWhatsAppCommand(c),
		newRotaCommand(c),
		newDBCommand(c),
	)
	return root
}

func (c *cli) load(flags *pflag.FlagSet) error {
	opts := []config.Option{config.WithViper(func(v *viper.Viper) {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				_ = v.BindPFlag(key, f)
			}
		}
	})}
	if c.configFile != "" {
		opts = append(opts, config.WithFile(c.configFile))
	}

	cfg, meta, err := config.Load(opts...)
	if err != nil {
		return &ExitCodeError{Code: exitConfig, Err: err}
	}
	c.cfg, c.meta = cfg, meta
	bootstrap.ConfigureLogging(cfg.Log)
	return nil
}
