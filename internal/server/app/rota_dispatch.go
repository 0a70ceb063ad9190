package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/shared/logging"
)

// captionTimeLayout matches the en-US locale string shown in group chats.
const captionTimeLayout = "1/2/2006, 3:04:05 PM"

// DefaultCaption is the message attached to a rota image when the caller
// does not supply one.
func DefaultCaption(now time.Time) string {
	return "📅 Staff Rota Schedule\n\nGenerated: " + now.Format(captionTimeLayout) +
		"\n\n✨ Stay updated with the latest shifts!"
}

// RotaSession is the slice of the session manager the dispatcher needs.
type RotaSession interface {
	IsReady() bool
	SendToGroup(ctx context.Context, groupName string, image []byte, caption string) (whatsapp.Group, error)
}

// ImageRenderer produces the rota PNG.
type ImageRenderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// ImageFetcher downloads a pre-rendered image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SendRotaRequest is the body of a send-rota call.
type SendRotaRequest struct {
	GroupName string `json:"groupName"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// SendRotaResult identifies the group that received the rota.
type SendRotaResult struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

// RotaDispatcher renders (or fetches) the rota image and posts it to a group.
type RotaDispatcher struct {
	session  RotaSession
	renderer ImageRenderer
	fetcher  ImageFetcher
	baseURL  string
	now      func() time.Time
	logger   logging.Logger
}

// DispatcherOption customises a RotaDispatcher.
type DispatcherOption func(*RotaDispatcher)

// WithDispatcherClock overrides the caption timestamp source.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *RotaDispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithImageBaseURL resolves root-relative image URLs such as
// "/api/staff-rota/generate-image" against the server's public URL.
func WithImageBaseURL(base string) DispatcherOption {
	return func(d *RotaDispatcher) { d.baseURL = strings.TrimRight(base, "/") }
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger logging.Logger) DispatcherOption {
	return func(d *RotaDispatcher) { d.logger = logging.OrNop(logger) }
}

// NewRotaDispatcher wires the dispatcher. session may be nil when WhatsApp
// is disabled; fetcher may be nil when image URLs are not allowed.
func NewRotaDispatcher(session RotaSession, renderer ImageRenderer, fetcher ImageFetcher, opts ...DispatcherOption) *RotaDispatcher {
	d := &RotaDispatcher{
		session:  session,
		renderer: renderer,
		fetcher:  fetcher,
		now:      time.Now,
		logger:   logging.NewComponentLogger("RotaDispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send posts the rota to the first group matching req.GroupName. Readiness is
// checked before any image work so an unpaired session fails fast.
func (d *RotaDispatcher) Send(ctx context.Context, req SendRotaRequest) (SendRotaResult, error) {
	groupName := strings.TrimSpace(req.GroupName)
	if groupName == "" {
		return SendRotaResult{}, ValidationError("Group name is required")
	}
	if d.session == nil {
		return SendRotaResult{}, UnavailableError("WhatsApp is disabled")
	}
	if !d.session.IsReady() {
		return SendRotaResult{}, whatsapp.ErrNotReady
	}

	image, err := d.image(ctx, strings.TrimSpace(req.ImageURL))
	if err != nil {
		return SendRotaResult{}, err
	}

	caption := req.Caption
	if strings.TrimSpace(caption) == "" {
		caption = DefaultCaption(d.now())
	}

	group, err := d.session.SendToGroup(ctx, groupName, image, caption)
	if err != nil {
		return SendRotaResult{}, err
	}
	d.logger.Info("Staff rota sent to group %q (%s)", group.Name, group.ID)
	return SendRotaResult{GroupID: group.ID, GroupName: group.Name}, nil
}

func (d *RotaDispatcher) image(ctx context.Context, url string) ([]byte, error) {
	if url != "" {
		if d.fetcher == nil {
			return nil, ValidationError("imageUrl is not supported")
		}
		if strings.HasPrefix(url, "/") {
			if d.baseURL == "" {
				return nil, ValidationError("relative imageUrl needs a public URL")
			}
			url = d.baseURL + url
		}
		data, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		return data, nil
	}
	if d.renderer == nil {
		return nil, UnavailableError("rota renderer not configured")
	}
	data, err := d.renderer.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	return data, nil
}
