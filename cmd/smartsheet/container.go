package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/server/bootstrap"
	"smartsheet/internal/shared/logging"
)

var errNoGroup = errors.New("no group given; pass --group or set whatsapp.default_group")

// targetGroup falls back to whatsapp.default_group and refuses a blank name.
func (c *cli) targetGroup(flag string) (string, error) {
	group := strings.TrimSpace(flag)
	if group == "" {
		group = strings.TrimSpace(c.cfg.WhatsApp.DefaultGroup)
	}
	if group == "" {
		return "", &ExitCodeError{Code: exitConfig, Err: errNoGroup}
	}
	return group, nil
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// openContainer builds the shared container for one-shot commands.
func (c *cli) openContainer(ctx context.Context) (*bootstrap.Container, func(), error) {
	opts := bootstrap.Options{Logger: logging.NewComponentLogger("CLI")}
	if isTTY() {
		opts.QROut = os.Stdout
	}
	container, err := bootstrap.BuildContainer(ctx, c.cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		container.Close(closeCtx)
	}
	return container, closeFn, nil
}

// readySession waits for the WhatsApp session, prompting for a QR scan when
// the device is not linked yet.
func readySession(ctx context.Context, container *bootstrap.Container) (*whatsapp.SessionManager, error) {
	if container.Session == nil {
		if reason, ok := container.Degraded.Map()["whatsapp"]; ok {
			return nil, fmt.Errorf("whatsapp unavailable: %s", reason)
		}
		return nil, fmt.Errorf("whatsapp is disabled by configuration")
	}
	if _, err := container.Session.EnsureReady(ctx); err != nil {
		return nil, &ExitCodeError{Code: exitNotReady, Err: err}
	}
	return container.Session, nil
}
