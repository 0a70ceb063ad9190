package whatsapp

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report session activity.
type Metrics struct {
	transitions  *prometheus.CounterVec
	initAttempts prometheus.Counter
	initFailures *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	ready        prometheus.Gauge
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Registration errors other than AlreadyRegistered panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartsheet",
			Subsystem: "whatsapp",
			Name:      "session_transitions_total",
			Help:      "Session state transitions by source and target state.",
		}, []string{"from", "to"}),
		initAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartsheet",
			Subsystem: "whatsapp",
			Name:      "init_attempts_total",
			Help:      "Connection attempts started by the session manager.",
		}),
		initFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartsheet",
			Subsystem: "whatsapp",
			Name:      "init_failures_total",
			Help:      "Connection attempts that ended without reaching ready.",
		}, []string{"reason"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartsheet",
			Subsystem: "whatsapp",
			Name:      "messages_sent_total",
			Help:      "Group sends by outcome.",
		}, []string{"result"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartsheet",
			Subsystem: "whatsapp",
			Name:      "session_ready",
			Help:      "1 while the session is ready to send.",
		}),
	}

	m.transitions = registerOrReuse(reg, m.transitions)
	m.initAttempts = registerOrReuse(reg, m.initAttempts)
	m.initFailures = registerOrReuse(reg, m.initFailures)
	m.messagesSent = registerOrReuse(reg, m.messagesSent)
	m.ready = registerOrReuse(reg, m.ready)
	return m
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func (m *Metrics) observeTransition(from, to State) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
	if m.ready != nil {
		if to == StateReady {
			m.ready.Set(1)
		} else {
			m.ready.Set(0)
		}
	}
}

func (m *Metrics) incInitAttempt() {
	if m == nil || m.initAttempts == nil {
		return
	}
	m.initAttempts.Inc()
}

func (m *Metrics) incInitFailure(reason string) {
	if m == nil || m.initFailures == nil {
		return
	}
	m.initFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) incSend(result string) {
	if m == nil || m.messagesSent == nil {
		return
	}
	m.messagesSent.WithLabelValues(result).Inc()
}
