package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartsheet/internal/shared/async"
	"smartsheet/internal/shared/logging"
)

const (
	// DefaultInitTimeout bounds how long an attempt may take to reach Ready.
	DefaultInitTimeout = 120 * time.Second

	defaultImageMimeType = "image/png"
	defaultImageFileName = "staff-rota.png"
)

// Status is a point-in-time view of the session for status endpoints.
type Status struct {
	State     State     `json:"state"`
	Ready     bool      `json:"ready"`
	Attempt   uint64    `json:"attempt"`
	Waiters   int       `json:"waiters"`
	Since     time.Time `json:"since"`
	QRCode    string    `json:"qr_code,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// pendingInit is the single-flight result shared by every caller waiting on
// one connection attempt. It is settled exactly once.
type pendingInit struct {
	attempt uint64
	done    chan struct{}
	waiters int
	client  Client
	err     error
}

// SessionManager owns the one chat-automation session of the process.
//
// All state lives behind mu and only the transition helpers below mutate it.
// Client events are funnelled through HandleEvent, tagged with the attempt
// that created the client so late events from a torn-down client are dropped.
type SessionManager struct {
	factory     ClientFactory
	presenter   QRPresenter
	clock       Clock
	initTimeout time.Duration
	logger      logging.Logger
	metrics     *Metrics

	mu        sync.Mutex
	state     State
	client    Client
	lastErr   error
	attempt   uint64 // generation; bumped on every start and teardown
	started   uint64
	pending   *pendingInit
	timer     Timer
	cancel    context.CancelFunc
	enteredAt time.Time
	latestQR  string
}

// Option customises a SessionManager.
type Option func(*SessionManager)

// WithInitTimeout overrides DefaultInitTimeout.
func WithInitTimeout(d time.Duration) Option {
	return func(m *SessionManager) {
		if d > 0 {
			m.initTimeout = d
		}
	}
}

// WithQRPresenter sets where pairing codes are shown to the operator.
func WithQRPresenter(p QRPresenter) Option {
	return func(m *SessionManager) { m.presenter = p }
}

// WithClock injects a clock; tests use it to fire the init timeout.
func WithClock(c Clock) Option {
	return func(m *SessionManager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(l logging.Logger) Option {
	return func(m *SessionManager) { m.logger = logging.OrNop(l) }
}

// WithMetrics sets the metrics sink; nil disables metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *SessionManager) { m.metrics = metrics }
}

// NewSessionManager builds a manager in StateUninitialized. No client is
// created until the first EnsureReady.
func NewSessionManager(factory ClientFactory, opts ...Option) *SessionManager {
	m := &SessionManager{
		factory:     factory,
		clock:       systemClock{},
		initTimeout: DefaultInitTimeout,
		logger:      logging.NewComponentLogger("WhatsApp"),
		state:       StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.presenter == nil {
		m.presenter = LogQRPresenter{Logger: m.logger}
	}
	m.enteredAt = m.clock.Now()
	return m
}

// EnsureReady returns the ready client, joining an in-flight attempt or
// starting a new one. Cancelling ctx detaches this caller only; the attempt
// keeps running for everyone else.
func (m *SessionManager) EnsureReady(ctx context.Context) (Client, error) {
	if m.factory == nil {
		return nil, errors.New("whatsapp client factory not configured")
	}

	m.mu.Lock()
	if m.state == StateReady && m.client != nil {
		client := m.client
		m.mu.Unlock()
		return client, nil
	}
	p := m.pending
	if p == nil {
		p = m.beginAttemptLocked()
	}
	p.waiters++
	m.mu.Unlock()

	select {
	case <-p.done:
		return p.client, p.err
	case <-ctx.Done():
		m.mu.Lock()
		if m.pending == p {
			p.waiters--
		}
		m.mu.Unlock()
		return nil, ctx.Err()
	}
}

// IsReady is a non-blocking readiness check.
func (m *SessionManager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateReady && m.client != nil
}

// State returns the current lifecycle state.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the current status.
func (m *SessionManager) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := Status{
		State:   m.state,
		Ready:   m.state == StateReady && m.client != nil,
		Attempt: m.started,
		Since:   m.enteredAt,
	}
	if m.pending != nil {
		status.Waiters = m.pending.waiters
	}
	if m.state == StateAwaitingScan {
		status.QRCode = m.latestQR
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

// SendToGroup sends image with caption to the first group whose name contains
// groupName (case-insensitive, source order). It never retries.
func (m *SessionManager) SendToGroup(ctx context.Context, groupName string, image []byte, caption string) (Group, error) {
	if strings.TrimSpace(groupName) == "" {
		m.metrics.incSend(FailureReason(ErrEmptyGroupName))
		return Group{}, ErrEmptyGroupName
	}
	client, err := m.readyClient()
	if err != nil {
		m.metrics.incSend(FailureReason(err))
		return Group{}, err
	}

	groups, err := m.fetchGroups(ctx, client)
	if err != nil {
		m.metrics.incSend(FailureReason(err))
		return Group{}, err
	}

	target, ok := MatchGroup(groups, groupName)
	if !ok {
		m.metrics.incSend("group_not_found")
		return Group{}, &GroupNotFoundError{Query: groupName, Available: groupNames(groups)}
	}

	msg := OutboundImage{
		Data:     image,
		MimeType: defaultImageMimeType,
		FileName: defaultImageFileName,
		Caption:  caption,
	}
	if err := client.SendImage(ctx, target.ID, msg); err != nil {
		m.logger.Warn("Send to group %q failed: %v", target.Name, err)
		m.metrics.incSend("send_failed")
		return Group{}, sendError(err)
	}
	m.logger.Info("Sent image (%d bytes) to group %q", len(image), target.Name)
	m.metrics.incSend("ok")
	return target, nil
}

// ListGroups returns every group chat visible to the session. Zero groups is
// an empty slice, not an error.
func (m *SessionManager) ListGroups(ctx context.Context) ([]Group, error) {
	client, err := m.readyClient()
	if err != nil {
		return nil, err
	}
	return m.fetchGroups(ctx, client)
}

// Shutdown disconnects the live client, fails any waiters and resets.
func (m *SessionManager) Shutdown(context.Context) {
	m.mu.Lock()
	client := m.teardownLocked(ErrShutdown, StateUninitialized)
	m.mu.Unlock()
	m.disconnect(client)
}

func (m *SessionManager) readyClient() (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady || m.client == nil {
		return nil, ErrNotReady
	}
	return m.client, nil
}

func (m *SessionManager) fetchGroups(ctx context.Context, client Client) ([]Group, error) {
	chats, err := client.ListChats(ctx)
	if err != nil {
		return nil, transportError("fetch chats", err)
	}
	return groupsFromChats(chats), nil
}

// beginAttemptLocked moves Uninitialized -> Connecting and launches the
// client in the background. Callers hold mu.
func (m *SessionManager) beginAttemptLocked() *pendingInit {
	m.attempt++
	m.started++
	attempt := m.attempt
	p := &pendingInit{attempt: attempt, done: make(chan struct{})}
	m.pending = p
	m.lastErr = nil
	m.latestQR = ""
	m.transitionLocked(StateConnecting)
	m.metrics.incInitAttempt()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.timer = m.clock.AfterFunc(m.initTimeout, func() { m.expire(attempt) })

	m.logger.Info("Initializing WhatsApp client (attempt %d)", m.started)
	async.Go(m.logger, "whatsapp.connect", func() { m.connect(ctx, attempt) })
	return p
}

// connect runs outside the lock: the factory and Connect may block on the
// network and may emit events synchronously.
func (m *SessionManager) connect(ctx context.Context, attempt uint64) {
	sink := func(evt Event) {
		evt.Attempt = attempt
		m.HandleEvent(evt)
	}

	client, err := m.factory.NewClient(ctx, sink)
	if err != nil {
		m.fail(attempt, transportError("create client", err))
		return
	}

	m.mu.Lock()
	if m.attempt != attempt || !m.state.InFlight() {
		m.mu.Unlock()
		m.disconnect(client)
		return
	}
	m.client = client
	m.mu.Unlock()

	if err := client.Connect(ctx); err != nil {
		m.fail(attempt, transportError("connect", err))
	}
}

// HandleEvent applies one lifecycle event. It is the only path by which
// client events reach the state machine; each kind maps to one transition.
// Events whose Attempt is not the current generation are dropped.
func (m *SessionManager) HandleEvent(evt Event) {
	m.mu.Lock()
	if evt.Attempt != m.attempt {
		m.mu.Unlock()
		m.logger.Debug("Dropping %s event from superseded attempt %d", evt.Kind, evt.Attempt)
		return
	}

	var present string
	var stale Client
	switch evt.Kind {
	case EventQR:
		present = m.onQRLocked(evt)
	case EventAuthenticated:
		m.onAuthenticatedLocked()
	case EventReady:
		m.onReadyLocked()
	case EventAuthFailure:
		stale = m.onAuthFailureLocked(evt)
	case EventDisconnected:
		stale = m.onDisconnectedLocked(evt)
	default:
		m.logger.Warn("Ignoring unknown event kind %d", evt.Kind)
	}
	m.mu.Unlock()

	if present != "" {
		m.presenter.PresentQR(present)
	}
	m.disconnect(stale)
}

func (m *SessionManager) onQRLocked(evt Event) string {
	if m.state != StateConnecting && m.state != StateAwaitingScan {
		m.logger.Debug("Ignoring QR code in state %s", m.state)
		return ""
	}
	m.latestQR = evt.QRCode
	if m.state != StateAwaitingScan {
		m.transitionLocked(StateAwaitingScan)
	}
	m.logger.Info("QR code received; scan it with the WhatsApp mobile app")
	return evt.QRCode
}

func (m *SessionManager) onAuthenticatedLocked() {
	// Persisted credentials skip the QR step entirely.
	if m.state != StateConnecting && m.state != StateAwaitingScan {
		return
	}
	m.latestQR = ""
	m.transitionLocked(StateAuthenticated)
	m.logger.Info("WhatsApp authenticated")
}

func (m *SessionManager) onReadyLocked() {
	if m.state == StateReady {
		return
	}
	if !m.state.InFlight() || m.client == nil {
		m.logger.Warn("Ready event in state %s without client; ignoring", m.state)
		return
	}
	if m.state != StateAuthenticated {
		m.transitionLocked(StateAuthenticated)
	}
	m.latestQR = ""
	m.transitionLocked(StateReady)
	m.stopTimerLocked()
	m.settleLocked(m.client, nil)
	m.logger.Info("WhatsApp client is ready")
}

func (m *SessionManager) onAuthFailureLocked(evt Event) Client {
	err := ErrAuthFailure
	if evt.Reason != "" {
		err = fmt.Errorf("%w: %s", ErrAuthFailure, evt.Reason)
	}
	m.logger.Error("Authentication failure: %s", evt.Reason)
	return m.teardownLocked(err, StateFailed)
}

func (m *SessionManager) onDisconnectedLocked(evt Event) Client {
	if m.state == StateUninitialized {
		return nil
	}
	err := ErrDisconnected
	if evt.Reason != "" {
		err = fmt.Errorf("%w: %s", ErrDisconnected, evt.Reason)
	}
	m.logger.Warn("WhatsApp disconnected: %s", evt.Reason)
	return m.teardownLocked(err, StateDisconnected)
}

func (m *SessionManager) expire(attempt uint64) {
	m.mu.Lock()
	if attempt != m.attempt || !m.state.InFlight() {
		m.mu.Unlock()
		return
	}
	m.logger.Error("WhatsApp initialization timed out after %s", m.initTimeout)
	client := m.teardownLocked(ErrInitTimeout, StateFailed)
	m.mu.Unlock()
	m.disconnect(client)
}

func (m *SessionManager) fail(attempt uint64, err error) {
	m.mu.Lock()
	if attempt != m.attempt || !m.state.InFlight() {
		m.mu.Unlock()
		return
	}
	m.logger.Error("Failed to initialize WhatsApp: %v", err)
	client := m.teardownLocked(err, StateFailed)
	m.mu.Unlock()
	m.disconnect(client)
}

// teardownLocked passes through the terminal state, releases waiters with
// cause and resets to Uninitialized. The returned client must be
// disconnected by the caller after releasing mu.
func (m *SessionManager) teardownLocked(cause error, terminal State) Client {
	client := m.client
	m.client = nil
	m.latestQR = ""
	m.lastErr = cause
	m.stopTimerLocked()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.pending != nil {
		m.metrics.incInitFailure(FailureReason(cause))
		m.settleLocked(nil, cause)
	}
	// Bumping the attempt makes every callback of the old client stale.
	m.attempt++
	if m.state != StateUninitialized && terminal != StateUninitialized {
		m.transitionLocked(terminal)
	}
	if m.state != StateUninitialized {
		m.transitionLocked(StateUninitialized)
	}
	return client
}

func (m *SessionManager) settleLocked(client Client, err error) {
	p := m.pending
	if p == nil {
		return
	}
	p.client = client
	p.err = err
	close(p.done)
	m.pending = nil
}

func (m *SessionManager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *SessionManager) transitionLocked(to State) {
	from := m.state
	m.state = to
	m.enteredAt = m.clock.Now()
	m.metrics.observeTransition(from, to)
	m.logger.Debug("Session state %s -> %s", from, to)
}

func (m *SessionManager) disconnect(client Client) {
	if client == nil {
		return
	}
	// Disconnect may be called from inside the client's own event callback.
	async.Go(m.logger, "whatsapp.disconnect", client.Disconnect)
}
