// Package observability provides Prometheus metrics for the migration
// engine. Recording is fire-and-forget and never on the critical path; a nil
// *Metrics is valid and records nothing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	migrationAttempts  *prometheus.CounterVec
	rollbackAttempts   *prometheus.CounterVec
	phaseDuration      *prometheus.HistogramVec
	cleanupRepairs     *prometheus.CounterVec
	recordsMigrated    prometheus.Counter
	normalizerWarnings prometheus.Counter
}

// NewMetrics creates and registers the engine metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		migrationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicevault_migration_attempts_total",
			Help: "Migration attempts by result (committed, failed, refused).",
		}, []string{"result"}),
		rollbackAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicevault_rollback_attempts_total",
			Help: "Rollback attempts by result.",
		}, []string{"result"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicevault_migration_phase_duration_seconds",
			Help:    "Duration of migration phases.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"phase"}),
		cleanupRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicevault_cleanup_repairs_total",
			Help: "Rows repaired by cleanup category.",
		}, []string{"category"}),
		recordsMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicevault_records_migrated_total",
			Help: "Recordings migrated into knowledge captures.",
		}),
		normalizerWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicevault_normalizer_warnings_total",
			Help: "Warnings recorded while normalizing legacy JSON fields.",
		}),
	}

	collectors := []prometheus.Collector{
		m.migrationAttempts,
		m.rollbackAttempts,
		m.phaseDuration,
		m.cleanupRepairs,
		m.recordsMigrated,
		m.normalizerWarnings,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordMigrationAttempt counts one migration attempt outcome.
func (m *Metrics) RecordMigrationAttempt(result string) {
	if m == nil {
		return
	}
	m.migrationAttempts.WithLabelValues(result).Inc()
}

// RecordRollbackAttempt counts one rollback attempt outcome.
func (m *Metrics) RecordRollbackAttempt(result string) {
	if m == nil {
		return
	}
	m.rollbackAttempts.WithLabelValues(result).Inc()
}

// ObservePhaseDuration records the duration of one migration phase.
func (m *Metrics) ObservePhaseDuration(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordCleanupRepairs counts rows repaired in one cleanup category.
func (m *Metrics) RecordCleanupRepairs(category string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.cleanupRepairs.WithLabelValues(category).Add(float64(count))
}

// RecordMigratedRecords counts recordings migrated in an attempt.
func (m *Metrics) RecordMigratedRecords(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.recordsMigrated.Add(float64(count))
}

// RecordNormalizerWarnings counts normalizer warnings.
func (m *Metrics) RecordNormalizerWarnings(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.normalizerWarnings.Add(float64(count))
}
