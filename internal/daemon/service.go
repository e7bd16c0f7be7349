// Package daemon provides the long-running background insight monitor.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finlens/internal/backend"
	"github.com/theirongolddev/finlens/internal/model"
)

// Fetcher loads both insight summaries.
type Fetcher interface {
	FetchInsights(ctx context.Context, month string) *backend.Insights
}

// Config controls the daemon runtime behavior.
type Config struct {
	Month        string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Insight is one classified metric in a snapshot.
type Insight struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Phrase  string  `json:"phrase"`
	Tier    string  `json:"tier"`
}

// Snapshot is the insight state after a poll.
type Snapshot struct {
	At       time.Time `json:"at"`
	Insights []Insight `json:"insights"`
}

// TierChange records one insight moving between tiers.
type TierChange struct {
	Key  string `json:"key"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Event is emitted on the first poll and whenever a tier changes.
type Event struct {
	ID        int64        `json:"id"`
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Snapshot  Snapshot     `json:"snapshot"`
	Changes   []TierChange `json:"changes,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Month           string    `json:"month,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type metrics struct {
	registry   *prometheus.Registry
	percent    *prometheus.GaugeVec
	tier       *prometheus.GaugeVec
	polls      prometheus.Counter
	pollErrors prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		percent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finlens_insight_percent",
			Help: "Latest insight percent reported by the analytics API.",
		}, []string{"insight"}),
		tier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finlens_insight_tier",
			Help: "Latest insight tier (0 low, 1 medium, 2 high).",
		}, []string{"insight"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finlens_daemon_polls_total",
			Help: "Insight polls attempted.",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finlens_daemon_poll_errors_total",
			Help: "Insight polls that returned an error.",
		}),
	}
	m.registry.MustRegister(m.percent, m.tier, m.polls, m.pollErrors)
	return m
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	fetcher Fetcher
	log     zerolog.Logger
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, fetcher Fetcher, log zerolog.Logger) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		fetcher:   fetcher,
		log:       log.With().Str("component", "daemon").Logger(),
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	s.metrics.polls.Inc()
	result := s.fetcher.FetchInsights(ctx, s.cfg.Month)
	now := time.Now()

	if result.Error != nil {
		s.metrics.pollErrors.Inc()
		s.log.Warn().Err(result.Error).Msg("insight poll error")
	}

	metrics := result.Metrics()
	if len(metrics) == 0 {
		s.mu.Lock()
		if result.Error != nil {
			s.lastError = result.Error.Error()
		}
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		return
	}

	for _, m := range metrics {
		s.metrics.percent.WithLabelValues(m.Key).Set(m.Percent)
		s.metrics.tier.WithLabelValues(m.Key).Set(float64(m.Tier))
	}
	snap := snapshotFromMetrics(metrics, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	if result.Error != nil {
		s.lastError = result.Error.Error()
	}

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if changes := diffTiers(prev, snap); len(changes) > 0 {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "tier_change", Timestamp: now, Snapshot: snap, Changes: changes}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromMetrics(metrics []model.InsightMetric, at time.Time) Snapshot {
	snap := Snapshot{At: at, Insights: make([]Insight, 0, len(metrics))}
	for _, m := range metrics {
		snap.Insights = append(snap.Insights, Insight{
			Key:     m.Key,
			Label:   m.Label,
			Percent: m.Percent,
			Phrase:  m.Phrase,
			Tier:    m.Tier.String(),
		})
	}
	return snap
}

// diffTiers lists insights whose tier differs between snapshots. Insights
// missing from either side are skipped.
func diffTiers(prev, curr Snapshot) []TierChange {
	before := make(map[string]string, len(prev.Insights))
	for _, in := range prev.Insights {
		before[in.Key] = in.Tier
	}
	var changes []TierChange
	for _, in := range curr.Insights {
		if old, ok := before[in.Key]; ok && old != in.Tier {
			changes = append(changes, TierChange{Key: in.Key, From: old, To: in.Tier})
		}
	}
	return changes
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Month:           s.cfg.Month,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
