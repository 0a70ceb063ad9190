package main

import (
	"os"

	"github.com/spf13/cobra"

	"smartsheet/internal/server/bootstrap"
)

func newServeCommand(c *cli) *cobra.Command {
	var quietQR bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := bootstrap.Options{}
			if !quietQR {
				opts.QROut = os.Stdout
			}
			return bootstrap.RunServer(cmd.Context(), c.cfg, c.meta, opts)
		},
	}
	cmd.Flags().String("host", "", "Listen host")
	cmd.Flags().Int("port", 0, "Listen port")
	cmd.Flags().String("chrome-url", "", "Remote Chrome DevTools URL")
	cmd.Flags().BoolVar(&quietQR, "quiet-qr", false, "Only log QR codes instead of printing them to the terminal")
	return cmd
}
