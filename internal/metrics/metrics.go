// Package metrics exposes Prometheus gauges/counters for the poller,
// decoder, and fan-out concerns, grouped the way the teacher's
// monitoring package grouped bridge/chain-health metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poller metrics
	PollerPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_poller_polls_total",
			Help: "Total number of poll cycles run per program",
		},
		[]string{"program_id", "status"},
	)

	PollerTransactionsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_poller_transactions_fetched_total",
			Help: "Total number of transactions fetched per program",
		},
		[]string{"program_id"},
	)

	PollerLastSlot = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uho_poller_last_slot",
			Help: "Most recent slot seen by the poller for this program",
		},
		[]string{"program_id"},
	)

	PollerLastPollAgeSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uho_poller_last_poll_age_seconds",
			Help: "Seconds since this program's last successful poll",
		},
		[]string{"program_id"},
	)

	PollerRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_poller_retries_total",
			Help: "Total number of retried RPC calls",
		},
		[]string{"program_id", "reason"},
	)

	// Decoder metrics
	DecoderEventsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_decoder_events_decoded_total",
			Help: "Total number of events successfully decoded",
		},
		[]string{"program_id", "event_name"},
	)

	DecoderInstructionsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_decoder_instructions_decoded_total",
			Help: "Total number of instructions successfully decoded",
		},
		[]string{"program_id", "instruction_name"},
	)

	DecoderTokenTransfersDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_decoder_token_transfers_decoded_total",
			Help: "Total number of SPL token transfers decoded",
		},
		[]string{"program_id", "instruction_type"},
	)

	DecoderWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_decoder_warnings_total",
			Help: "Total number of decode warnings (malformed bodies, dangling type refs)",
		},
		[]string{"program_id", "reason"},
	)

	// Fan-out metrics
	FanoutRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_fanout_rows_written_total",
			Help: "Total number of rows written into subscriber schemas",
		},
		[]string{"program_id", "table"},
	)

	FanoutWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_fanout_write_errors_total",
			Help: "Total number of per-subscriber write failures",
		},
		[]string{"program_id", "user_id"},
	)

	FanoutBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uho_fanout_broadcasts_total",
			Help: "Total number of NOTIFY broadcasts emitted",
		},
		[]string{"program_id", "split"},
	)

	// Orchestrator metrics
	OrchestratorActivePrograms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uho_orchestrator_active_programs",
			Help: "Number of programs currently being polled",
		},
	)

	OrchestratorProgramState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uho_orchestrator_program_state",
			Help: "Current state of a program's poll loop (1 = active state, labeled by state)",
		},
		[]string{"program_id", "state"},
	)

	// Database metrics
	DatabaseConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uho_database_connections_open",
			Help: "Number of open database connections",
		},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uho_database_query_duration_seconds",
			Help:    "Database query duration",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)
)

// RecordPoll records the outcome of one poll cycle.
func RecordPoll(programID, status string, slot uint64, txCount int) {
	PollerPollsTotal.WithLabelValues(programID, status).Inc()
	if txCount > 0 {
		PollerTransactionsFetched.WithLabelValues(programID).Add(float64(txCount))
	}
	if slot > 0 {
		PollerLastSlot.WithLabelValues(programID).Set(float64(slot))
	}
	now := time.Now()
	lastSuccessMu.Lock()
	if status == "ok" {
		lastSuccess[programID] = now
	}
	last, seen := lastSuccess[programID]
	lastSuccessMu.Unlock()
	if seen {
		PollerLastPollAgeSeconds.WithLabelValues(programID).Set(now.Sub(last).Seconds())
	}
}

var (
	lastSuccessMu sync.Mutex
	lastSuccess   = map[string]time.Time{}
)

// RecordDecodeWarning records a decode-time warning for a program.
func RecordDecodeWarning(programID, reason string) {
	DecoderWarningsTotal.WithLabelValues(programID, reason).Inc()
}

// RecordFanoutWrite records rows written into one table for a program.
func RecordFanoutWrite(programID, table string, count int) {
	if count > 0 {
		FanoutRowsWritten.WithLabelValues(programID, table).Add(float64(count))
	}
}

// RecordFanoutError records an isolated per-subscriber write failure.
func RecordFanoutError(programID, userID string) {
	FanoutWriteErrors.WithLabelValues(programID, userID).Inc()
}

// SetProgramState sets the orchestrator's reported state for a program,
// zeroing every other known state label so only one is ever set to 1.
func SetProgramState(programID, state string, knownStates []string) {
	for _, s := range knownStates {
		if s == state {
			OrchestratorProgramState.WithLabelValues(programID, s).Set(1)
		} else {
			OrchestratorProgramState.WithLabelValues(programID, s).Set(0)
		}
	}
}
