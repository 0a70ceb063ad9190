package whatsapp

import (
	"context"
	"fmt"

	"smartsheet/internal/shared/async"
	"smartsheet/internal/shared/logging"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// WhatsmeowFactory builds clients backed by the multi-device web protocol.
type WhatsmeowFactory struct {
	Store  *DeviceStore
	Logger logging.Logger
}

// NewWhatsmeowFactory returns a factory over an opened credential store.
func NewWhatsmeowFactory(deviceStore *DeviceStore, logger logging.Logger) *WhatsmeowFactory {
	return &WhatsmeowFactory{Store: deviceStore, Logger: logging.OrNop(logger)}
}

func (f *WhatsmeowFactory) NewClient(ctx context.Context, sink EventSink) (Client, error) {
	if f.Store == nil {
		return nil, fmt.Errorf("credential store not configured")
	}
	device, err := f.Store.Device(ctx)
	if err != nil {
		return nil, err
	}
	cli := whatsmeow.NewClient(device, newWALogger(f.Logger, "Client"))
	// Reconnects go through the session manager, not the library.
	cli.EnableAutoReconnect = false

	c := &whatsmeowClient{cli: cli, sink: sink, logger: logging.OrNop(f.Logger)}
	cli.AddEventHandler(c.handleEvent)
	return c, nil
}

type whatsmeowClient struct {
	cli    *whatsmeow.Client
	sink   EventSink
	logger logging.Logger
}

func (c *whatsmeowClient) Connect(ctx context.Context) error {
	if c.cli.Store.ID == nil {
		qrs, err := c.cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		async.Go(c.logger, "whatsapp.qr", func() { c.pumpQR(qrs) })
	}
	return c.cli.Connect()
}

func (c *whatsmeowClient) pumpQR(items <-chan whatsmeow.QRChannelItem) {
	for item := range items {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			c.sink(Event{Kind: EventQR, QRCode: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			// PairSuccess arrives through the event handler.
		case whatsmeow.QRChannelTimeout.Event:
			c.sink(Event{Kind: EventAuthFailure, Reason: "pairing QR code expired"})
		case whatsmeow.QRChannelEventError:
			c.sink(Event{Kind: EventAuthFailure, Reason: fmt.Sprintf("pairing failed: %v", item.Error)})
		default:
			c.sink(Event{Kind: EventAuthFailure, Reason: item.Event})
		}
	}
}

func (c *whatsmeowClient) handleEvent(raw any) {
	switch evt := raw.(type) {
	case *events.PairSuccess:
		c.logger.Info("Paired as %s", evt.ID)
		c.sink(Event{Kind: EventAuthenticated})
	case *events.Connected:
		c.sink(Event{Kind: EventAuthenticated})
		c.sink(Event{Kind: EventReady})
	case *events.LoggedOut:
		c.sink(Event{Kind: EventAuthFailure, Reason: "logged out: " + evt.Reason.String()})
	case *events.ConnectFailure:
		reason := fmt.Sprintf("connect failure %d: %s", int(evt.Reason), evt.Message)
		if evt.Reason.IsLoggedOut() {
			c.sink(Event{Kind: EventAuthFailure, Reason: reason})
			return
		}
		c.sink(Event{Kind: EventDisconnected, Reason: reason})
	case *events.TemporaryBan:
		c.sink(Event{Kind: EventAuthFailure, Reason: evt.String()})
	case *events.ClientOutdated:
		c.sink(Event{Kind: EventAuthFailure, Reason: "client outdated"})
	case *events.StreamReplaced:
		c.sink(Event{Kind: EventDisconnected, Reason: "stream replaced by another connection"})
	case *events.Disconnected:
		c.sink(Event{Kind: EventDisconnected, Reason: "connection lost"})
	}
}

func (c *whatsmeowClient) Disconnect() {
	c.cli.RemoveEventHandlers()
	c.cli.Disconnect()
}

func (c *whatsmeowClient) ListChats(ctx context.Context) ([]Chat, error) {
	groups, err := c.cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	chats := make([]Chat, 0, len(groups))
	for _, group := range groups {
		if group == nil {
			continue
		}
		chats = append(chats, Chat{ID: group.JID.String(), Name: group.Name, IsGroup: true})
	}
	return chats, nil
}

func (c *whatsmeowClient) SendImage(ctx context.Context, chatID string, image OutboundImage) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("parse chat id %q: %w", chatID, err)
	}
	uploaded, err := c.cli.Upload(ctx, image.Data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	msg := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(image.Caption),
			Mimetype:      proto.String(image.MimeType),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		},
	}
	if _, err := c.cli.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
