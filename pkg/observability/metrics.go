package observability

import (
	"context"
	"errors"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/history"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records history activity as Prometheus metrics.
type Metrics struct {
	history.NoopObserver

	transitions   *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	entities      *prometheus.GaugeVec
	historyLen    prometheus.Gauge
	historyIndex  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. Collectors already registered
// by a previous call (another session sharing the registry) are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_transitions_total",
			Help:      "Completed history transitions by kind.",
		}, []string{"transition"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_rejected_total",
			Help:      "History transitions rejected because the wiring could not be reconciled.",
		}, []string{"transition"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Change notifications emitted by category.",
		}, []string{"category"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "document_entities",
			Help:      "Entities in the current snapshot by kind.",
		}, []string{"kind"}),
		historyLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_snapshots",
			Help:      "Number of snapshots held by the history.",
		}),
		historyIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_index",
			Help:      "Position of the current snapshot.",
		}),
	}

	var err error
	m.transitions, err = register(reg, m.transitions)
	if err != nil {
		return nil, err
	}
	if m.rejected, err = register(reg, m.rejected); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	if m.entities, err = register(reg, m.entities); err != nil {
		return nil, err
	}
	if m.historyLen, err = register(reg, m.historyLen); err != nil {
		return nil, err
	}
	if m.historyIndex, err = register(reg, m.historyIndex); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) OnModulesChanged(context.Context, history.Event, domain.Delta[*domain.Module]) {
	m.notifications.WithLabelValues("modules").Inc()
}

func (m *Metrics) OnConnectionsChanged(context.Context, history.Event, domain.Delta[*domain.Connection]) {
	m.notifications.WithLabelValues("connections").Inc()
}

func (m *Metrics) OnViewsChanged(context.Context, history.Event, domain.Delta[*domain.ModuleView]) {
	m.notifications.WithLabelValues("views").Inc()
}

func (m *Metrics) OnActiveLayerChanged(context.Context, history.Event, string) {
	m.notifications.WithLabelValues("active_layer").Inc()
}

func (m *Metrics) OnDescriptionBoxesChanged(context.Context, history.Event, domain.Delta[*domain.DescriptionBox]) {
	m.notifications.WithLabelValues("description_boxes").Inc()
}

func (m *Metrics) OnTransition(_ context.Context, ev history.Event) {
	m.transitions.WithLabelValues(string(ev.Transition)).Inc()
	m.historyLen.Set(float64(ev.Len))
	m.historyIndex.Set(float64(ev.Index))

	w := ev.Project.Workflow
	m.entities.WithLabelValues("modules").Set(float64(len(w.Modules)))
	m.entities.WithLabelValues("plugins").Set(float64(len(w.Plugins)))
	m.entities.WithLabelValues("connections").Set(float64(len(w.Connections)))
	m.entities.WithLabelValues("views").Set(float64(len(ev.Project.BuilderRendering.ModulesView)))
	if w.RootLayerTree != nil {
		m.entities.WithLabelValues("layers").Set(float64(len(w.RootLayerTree.LayerIDs())))
	}
}

func (m *Metrics) OnRejected(_ context.Context, t history.Transition, _ error) {
	m.rejected.WithLabelValues(string(t)).Inc()
}

// Transitions returns the transition counter, labelled by transition.
func (m *Metrics) Transitions() *prometheus.CounterVec { return m.transitions }

// Rejected returns the rejected transition counter, labelled by transition.
func (m *Metrics) Rejected() *prometheus.CounterVec { return m.rejected }

// Notifications returns the notification counter, labelled by category.
func (m *Metrics) Notifications() *prometheus.CounterVec { return m.notifications }
