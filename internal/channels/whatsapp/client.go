package whatsapp

import (
	"context"
)

// Client is the live handle to the underlying chat-automation backend.
//
// Lifecycle notifications are not returned from these methods; the client
// reports them asynchronously through the EventSink it was created with.
type Client interface {
	// Connect starts the connection handshake. It returns once the handshake
	// has been kicked off; readiness arrives later as EventReady.
	Connect(ctx context.Context) error
	// Disconnect tears down the connection. It must be safe to call more than once.
	Disconnect()
	// ListChats returns the chats visible to the session in backend order.
	ListChats(ctx context.Context) ([]Chat, error)
	// SendImage dispatches an image with caption to the chat identified by chatID.
	SendImage(ctx context.Context, chatID string, image OutboundImage) error
}

// ClientFactory creates a fresh client bound to sink.
type ClientFactory interface {
	NewClient(ctx context.Context, sink EventSink) (Client, error)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(ctx context.Context, sink EventSink) (Client, error)

func (f ClientFactoryFunc) NewClient(ctx context.Context, sink EventSink) (Client, error) {
	return f(ctx, sink)
}

// EventSink receives lifecycle events from a client.
type EventSink func(Event)

// EventKind enumerates the lifecycle notifications a client can emit.
type EventKind int

const (
	EventQR EventKind = iota + 1
	EventAuthenticated
	EventReady
	EventAuthFailure
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventQR:
		return "qr"
	case EventAuthenticated:
		return "authenticated"
	case EventReady:
		return "ready"
	case EventAuthFailure:
		return "auth_failure"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle notification.
type Event struct {
	Kind EventKind
	// QRCode carries the pairing payload for EventQR.
	QRCode string
	// Reason is a human-readable cause for failure and disconnect events.
	Reason string
	// Attempt is the generation of the client that raised the event. The
	// sink handed to the factory stamps it.
	Attempt uint64
}

// Chat is a conversation as reported by the backend.
type Chat struct {
	ID      string
	Name    string
	IsGroup bool
}

// Group is a resolved group chat destination.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OutboundImage is an image attachment with caption, built per send.
type OutboundImage struct {
	Data     []byte
	MimeType string
	FileName string
	Caption  string
}
