package whatsapp

import (
	"context"
	"sync"
	"time"
)

type sentImage struct {
	chatID string
	image  OutboundImage
}

type fakeClient struct {
	sink EventSink

	mu          sync.Mutex
	chats       []Chat
	connectErr  error
	listErr     error
	sendErr     error
	connects    int
	listCalls   int
	sent        []sentImage
	disconnects int
	onConnect   func(sink EventSink)
}

func (c *fakeClient) Connect(context.Context) error {
	c.mu.Lock()
	c.connects++
	err := c.connectErr
	hook := c.onConnect
	c.mu.Unlock()
	if hook != nil {
		hook(c.sink)
	}
	return err
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
}

func (c *fakeClient) ListChats(context.Context) ([]Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]Chat(nil), c.chats...), nil
}

func (c *fakeClient) SendImage(_ context.Context, chatID string, image OutboundImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, sentImage{chatID: chatID, image: image})
	return nil
}

func (c *fakeClient) networkCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls + len(c.sent)
}

func (c *fakeClient) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

func (c *fakeClient) emit(evt Event) { c.sink(evt) }

// fakeFactory hands out fakeClients and publishes each on created once its
// Connect has been entered.
type fakeFactory struct {
	mu      sync.Mutex
	calls   int
	clients []*fakeClient
	err     error
	// configure runs on every new client before it is returned.
	configure func(c *fakeClient)
	created   chan *fakeClient
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(chan *fakeClient, 16)}
}

func (f *fakeFactory) NewClient(_ context.Context, sink EventSink) (Client, error) {
	f.mu.Lock()
	f.calls++
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return nil, err
	}
	c := &fakeClient{sink: sink}
	if f.configure != nil {
		f.configure(c)
	}
	userHook := c.onConnect
	c.onConnect = func(sink EventSink) {
		if userHook != nil {
			userHook(sink)
		}
		f.created <- c
	}
	f.clients = append(f.clients, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// manualClock fires timers only when the test advances it.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}
