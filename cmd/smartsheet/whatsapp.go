package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"smartsheet/internal/channels/whatsapp"
	serverApp "smartsheet/internal/server/app"
	"smartsheet/internal/shared/logging"
)

func newWhatsAppCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "whatsapp",
		Aliases: []string{"wa"},
		Short:   "Manage the linked WhatsApp session",
	}
	cmd.AddCommand(
		newWhatsAppLoginCommand(c),
		newWhatsAppStatusCommand(c),
		newWhatsAppGroupsCommand(c),
		newWhatsAppSendCommand(c),
	)
	return cmd
}

func newWhatsAppLoginCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Link this host as a WhatsApp device (scan the QR code)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := c.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := readySession(cmd.Context(), container); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("WhatsApp connected successfully"))
			return nil
		},
	}
}

func newWhatsAppStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a device is linked, without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg.WhatsApp
			store, err := whatsapp.OpenDeviceStore(cmd.Context(), whatsapp.StoreConfig{
				Dialect: cfg.StoreDialect,
				DataDir: cfg.DataDir,
				DSN:     cfg.StoreDSN,
			}, logging.NewComponentLogger("WhatsApp"))
			if err != nil {
				return err
			}
			defer store.Close()

			device, err := store.Device(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if device.ID == nil {
				fmt.Fprintln(out, "No device linked; run "+bold("smartsheet whatsapp login"))
				return nil
			}
			fmt.Fprintf(out, "Linked as %s", bold(device.ID.String()))
			if device.PushName != "" {
				fmt.Fprint(out, " "+gray("("+device.PushName+")"))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newWhatsAppGroupsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups the linked account belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := c.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			session, err := readySession(cmd.Context(), container)
			if err != nil {
				return err
			}
			groups, err := session.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			printGroups(cmd, groups)
			return nil
		},
	}
}

func printGroups(cmd *cobra.Command, groups []whatsapp.Group) {
	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, gray("No groups found"))
		return
	}
	for _, g := range groups {
		fmt.Fprintf(out, "%s  %s\n", bold(g.Name), gray(g.ID))
	}
}

func newWhatsAppSendCommand(c *cli) *cobra.Command {
	var group, imagePath, caption string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a PNG image to the first group whose name matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := c.targetGroup(group)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			container, closeFn, err := c.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			session, err := readySession(cmd.Context(), container)
			if err != nil {
				return err
			}
			if caption == "" {
				caption = serverApp.DefaultCaption(time.Now())
			}
			target, err := session.SendToGroup(cmd.Context(), name, image, caption)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("Sent to"), bold(target.Name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "Group name (case-insensitive substring)")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path to the PNG to send")
	cmd.Flags().StringVar(&caption, "caption", "", "Message caption")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
