package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	activeTablesGauge      prometheus.Gauge
	wsConnectionsGauge     prometheus.Gauge
	roundsSettledCounter   prometheus.Counter
	tablesTornDownCounter  *prometheus.CounterVec
	actionsCounter         *prometheus.CounterVec
	rejectedActionsCounter *prometheus.CounterVec
	ledgerFailuresCounter  *prometheus.CounterVec
	ledgerRetriesCounter   *prometheus.CounterVec
}

func (m *metrics) SetActiveTables(count int) {
	m.activeTablesGauge.Set(float64(count))
}

func (m *metrics) ConnectionOpened() { m.wsConnectionsGauge.Inc() }
func (m *metrics) ConnectionClosed() { m.wsConnectionsGauge.Dec() }

func (m *metrics) RoundSettled() {
	m.roundsSettledCounter.Inc()
}

// TableTornDown counts table shutdowns by reason (closed, deleted, empty, fatal, shutdown).
func (m *metrics) TableTornDown(reason string) {
	m.tablesTornDownCounter.WithLabelValues(reason).Inc()
}

func (m *metrics) ActionAccepted(action string) {
	m.actionsCounter.WithLabelValues(action).Inc()
}

func (m *metrics) ActionRejected(action string) {
	m.rejectedActionsCounter.WithLabelValues(action).Inc()
}

func (m *metrics) LedgerFailed(op string) {
	m.ledgerFailuresCounter.WithLabelValues(op).Inc()
}

// LedgerRetry counts retry queue outcomes: queued, succeeded, dropped, abandoned.
func (m *metrics) LedgerRetry(outcome string) {
	m.ledgerRetriesCounter.WithLabelValues(outcome).Inc()
}

var Metrics = &metrics{
	activeTablesGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackjack_active_tables",
		Help: "Number of table actors currently running",
	}),
	wsConnectionsGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackjack_ws_connections",
		Help: "Number of open websocket connections",
	}),
	roundsSettledCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "blackjack_rounds_settled_total",
		Help: "Total number of rounds settled across all tables",
	}),
	tablesTornDownCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_tables_torn_down_total",
		Help: "Total number of table actors stopped, by reason",
	}, []string{"reason"}),
	actionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_actions_total",
		Help: "Total number of accepted player actions",
	}, []string{"action"}),
	rejectedActionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_actions_rejected_total",
		Help: "Total number of player actions rejected by validation",
	}, []string{"action"}),
	ledgerFailuresCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_ledger_failures_total",
		Help: "Total number of failed persistence calls, by operation",
	}, []string{"op"}),
	ledgerRetriesCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_ledger_retries_total",
		Help: "Ledger retry queue outcomes",
	}, []string{"outcome"}),
}
