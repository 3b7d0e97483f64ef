package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const metricsNamespace = "substitute"

// MetricsService owns a private Prometheus registry and keeps plain counters
// alongside it for the JSON summary endpoint.
type MetricsService struct {
	handler http.Handler

	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	dbQueryDuration *prometheus.HistogramVec
	proposals       *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	commits         *prometheus.CounterVec
	backups         *prometheus.CounterVec
	announcements   *prometheus.CounterVec

	requests        atomic.Uint64
	requestNanos    atomic.Uint64
	cacheHits       atomic.Uint64
	cacheMisses     atomic.Uint64
	dbQueries       atomic.Uint64
	dbQueryNanos    atomic.Uint64
	proposalSlots   atomic.Uint64
	uncoveredSlots  atomic.Uint64
	violationsFound atomic.Uint64
	commitsDone     atomic.Uint64
}

// NewMetricsService builds the collectors. Each call gets its own registry,
// so tests can create as many as they like.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache reads by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "read_seconds",
			Help:      "Cache read latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "write_seconds",
			Help:      "Cache write latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Latency of instrumented history queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_total",
			Help:      "Proposed slots by ranking tier.",
		}, []string{"tier"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "violations_total",
			Help:      "Assignment violations found during validation.",
		}, []string{"kind"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commits_total",
			Help:      "History commits by write mode.",
		}, []string{"mode"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "backups_total",
			Help:      "Backup workbook runs by outcome.",
		}, []string{"outcome"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "announcements_total",
			Help:      "Published announcements by outcome.",
		}, []string{"outcome"}),
	}

	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of cache reads that hit since start.",
	}, func() float64 { return ratio(m.cacheHits.Load(), m.cacheMisses.Load()) })

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.cacheLookups, m.cacheLatency, m.cacheWrite, hitRatio,
		m.dbQueryDuration, m.proposals, m.conflicts, m.commits, m.backups, m.announcements,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one finished request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requests.Add(1)
	m.requestNanos.Add(uint64(duration))
}

// RecordCacheOperation records one cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.cacheMisses.Add(1)
}

// ObserveCacheWrite records one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records one labelled query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueries.Add(1)
	m.dbQueryNanos.Add(uint64(duration))
}

// RecordProposals counts one proposal per slot under its ranking tier.
func (m *MetricsService) RecordProposals(proposals []models.SubstitutionProposal) {
	if m == nil {
		return
	}
	for _, p := range proposals {
		m.proposals.WithLabelValues(p.RankTier.String()).Inc()
		if p.RankTier == models.TierNone {
			m.uncoveredSlots.Add(1)
		}
	}
	m.proposalSlots.Add(uint64(len(proposals)))
}

// RecordViolations counts validator findings by kind.
func (m *MetricsService) RecordViolations(violations []models.Violation) {
	if m == nil {
		return
	}
	for _, v := range violations {
		m.conflicts.WithLabelValues(string(v.Kind)).Inc()
	}
	m.violationsFound.Add(uint64(len(violations)))
}

// RecordCommit counts a history write.
func (m *MetricsService) RecordCommit(mode models.HistoryWriteMode) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(string(mode)).Inc()
	m.commitsDone.Add(1)
}

// RecordBackup counts a backup run; err is the run's result.
func (m *MetricsService) RecordBackup(err error) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(outcome(err)).Inc()
}

// RecordAnnouncement counts a publish attempt.
func (m *MetricsService) RecordAnnouncement(err error) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(outcome(err)).Inc()
}

// Snapshot returns the counters behind GET /metrics/summary.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	requests, dbQueries := m.requests.Load(), m.dbQueries.Load()
	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(m.requestNanos.Load(), requests),
		DBQueryCount:             dbQueries,
		AverageDBQueryDurationMs: averageMillis(m.dbQueryNanos.Load(), dbQueries),
		ProposalsTotal:           m.proposalSlots.Load(),
		UncoveredTotal:           m.uncoveredSlots.Load(),
		ConflictsTotal:           m.violationsFound.Load(),
		CommitsTotal:             m.commitsDone.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
