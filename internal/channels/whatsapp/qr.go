package whatsapp

import (
	"fmt"
	"io"
	"os"
	"sync"

	"smartsheet/internal/shared/logging"

	"github.com/fatih/color"
	"github.com/skip2/go-qrcode"
)

// QRPresenter shows a pairing code to the operator. It is called outside the
// manager lock and may block briefly.
type QRPresenter interface {
	PresentQR(code string)
}

// LogQRPresenter renders the code into the log stream.
type LogQRPresenter struct {
	Logger logging.Logger
}

func (p LogQRPresenter) PresentQR(code string) {
	logger := logging.OrNop(p.Logger)
	art, err := RenderQR(code)
	if err != nil {
		logger.Warn("WhatsApp QR generation failed: %v", err)
		logger.Info("WhatsApp pairing code: %s", code)
		return
	}
	logger.Info("WhatsApp login QR (scan with mobile):\n%s", art)
}

// TerminalQRPresenter prints the code as block art on an interactive terminal.
type TerminalQRPresenter struct {
	Out io.Writer

	mu sync.Mutex
}

// NewTerminalQRPresenter writes to stdout when out is nil.
func NewTerminalQRPresenter(out io.Writer) *TerminalQRPresenter {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalQRPresenter{Out: out}
}

var (
	qrHeading = color.New(color.FgGreen, color.Bold).SprintFunc()
	qrHint    = color.New(color.FgHiBlack).SprintFunc()
)

func (p *TerminalQRPresenter) PresentQR(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	art, err := RenderQR(code)
	if err != nil {
		fmt.Fprintf(p.Out, "%s\n%s\n", qrHeading("WhatsApp pairing code:"), code)
		return
	}
	fmt.Fprintf(p.Out, "\n%s\n%s\n%s\n",
		qrHeading("Scan this QR code with WhatsApp:"),
		art,
		qrHint("WhatsApp > Settings > Linked Devices > Link a Device"),
	)
}

// RenderQR encodes code as terminal block art.
func RenderQR(code string) (string, error) {
	qr, err := qrcode.New(code, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return qr.ToString(true), nil
}
