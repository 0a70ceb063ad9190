package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	serverApp "smartsheet/internal/server/app"
)

func newRotaCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rota",
		Short: "Render and share the staff rota",
	}
	cmd.AddCommand(
		newRotaRenderCommand(c),
		newRotaSendCommand(c),
	)
	return cmd
}

func newRotaRenderCommand(c *cli) *cobra.Command {
	var output string
	var htmlOnly bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the staff rota to a PNG (or HTML with --html)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := c.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var data []byte
			if htmlOnly {
				doc, err := container.Renderer.HTML(cmd.Context())
				if err != nil {
					return err
				}
				data = []byte(doc)
			} else {
				data, err = container.Renderer.Render(cmd.Context())
				if err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%d bytes)\n", green("Wrote"), output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "staff-rota.png", "Output file, or - for stdout")
	cmd.Flags().BoolVar(&htmlOnly, "html", false, "Emit the HTML document instead of a screenshot")
	return cmd
}

func newRotaSendCommand(c *cli) *cobra.Command {
	var req serverApp.SendRotaRequest
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Render the rota and post it to a WhatsApp group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, err := c.targetGroup(req.GroupName)
			if err != nil {
				return err
			}
			req.GroupName = group
			container, closeFn, err := c.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := readySession(cmd.Context(), container); err != nil {
				return err
			}
			result, err := container.Dispatcher.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", green("Staff rota sent to"), bold(result.GroupName), gray(result.GroupID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.GroupName, "group", "g", "", "Group name (case-insensitive substring); defaults to whatsapp.default_group")
	cmd.Flags().StringVar(&req.ImageURL, "image-url", "", "Send a pre-rendered image from this URL instead of rendering")
	cmd.Flags().StringVar(&req.Caption, "caption", "", "Message caption")
	return cmd
}
