package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"smartsheet/internal/server/bootstrap"
	"smartsheet/internal/sheets"
)

var errNoDatabase = errors.New("database.url is not configured")

func newDBCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the sheet database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the sheet tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, closeFn, err := c.openDatabase(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				fmt.Fprintln(cmd.OutOrStdout(), green("Sheet schema is up to date"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed-rota",
			Short: "Insert the sample staff rota",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeFn, err := c.openDatabase(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				created, err := sheets.SeedRota(cmd.Context(), store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d shifts\n", green("Inserted"), len(created))
				return nil
			},
		},
	)
	return cmd
}

// openDatabase connects and migrates without touching WhatsApp.
func (c *cli) openDatabase(cmd *cobra.Command) (*sheets.PostgresStore, func(), error) {
	if c.cfg.Database.URL == "" {
		return nil, nil, &ExitCodeError{Code: exitConfig, Err: errNoDatabase}
	}
	cfg := c.cfg
	cfg.WhatsApp.Enabled = false
	container, err := bootstrap.BuildContainer(cmd.Context(), cfg, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	if container.Sheets == nil {
		container.Close(cmd.Context())
		return nil, nil, fmt.Errorf("open database: %s", container.Degraded.Map()["database"])
	}
	return container.Sheets, func() { container.Close(cmd.Context()) }, nil
}
