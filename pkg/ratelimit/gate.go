package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for throttle gate operations.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_rate_limit_remaining",
		Help: "Remaining request quota reported by the last API response",
	})

	rateLimitPausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_rate_limit_pauses_total",
		Help: "Total number of proactive pauses triggered by low remaining quota",
	})

	rateLimitPauseSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_rate_limit_pause_seconds",
		Help:    "Duration of proactive sliding-window pauses",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// UsageHeader carries the server-reported quota as "<used>/<max>".
const UsageHeader = "X-RateLimit-Usage"

// PauseEvent is an immutable snapshot emitted whenever a proactive
// pause is triggered. It is delivered to the optional OnPause hook and
// never stored.
type PauseEvent struct {
	// Used and Max are the quota figures reported by the server.
	Used int
	Max  int

	// Remaining is Max - Used at the time the pause was triggered.
	Remaining int

	// Wait is the pause applied before the next dispatch.
	Wait time.Duration

	// ResumeAt is the instant the pause ends.
	ResumeAt time.Time
}

// Config holds the throttle gate tuning. All fields are immutable
// after the gate is constructed.
type Config struct {
	// MinSpacing is the minimum delay between two dispatches. This
	// enforces the fixed per-minute cap independent of the sliding window.
	MinSpacing time.Duration

	// ThresholdRemaining triggers a proactive pause when the reported
	// remaining quota drops to or below this value.
	ThresholdRemaining int

	// WindowDuration is the span of the server's sliding rate window.
	WindowDuration time.Duration

	// RecoveryBuffer is how many of the oldest in-window dispatches must
	// age out before resuming. Larger values trade idle time for
	// longer uninterrupted bursts afterwards.
	RecoveryBuffer int

	// OnPause, if set, receives a PauseEvent for every proactive pause.
	OnPause func(PauseEvent)
}

// DefaultConfig returns safe throttle defaults for the inventory API
// (120 requests/min fixed cap, 1000 requests per 5-minute window).
func DefaultConfig() Config {
	return Config{
		MinSpacing:         500 * time.Millisecond,
		ThresholdRemaining: 20,
		WindowDuration:     5 * time.Minute,
		RecoveryBuffer:     10,
	}
}

// Gate serializes and spaces out requests for a single client
// instance. It is not safe for concurrent use: the client dispatches
// one request at a time, so lastDispatch, the window and the pending
// pause are only ever mutated from the in-flight call path. Callers
// sharing a client across goroutines must serialize access themselves.
type Gate struct {
	cfg     Config
	spacing *rate.Limiter
	window  *Window
	pending time.Duration
	// lastDispatch is the instant of the most recent dispatch, zero
	// before the first request.
	lastDispatch time.Time
	logger       zerolog.Logger
}

// NewGate creates a throttle gate from cfg. Zero or negative tuning
// values fall back to the defaults.
func NewGate(cfg Config, logger zerolog.Logger) *Gate {
	def := DefaultConfig()
	if cfg.MinSpacing <= 0 {
		cfg.MinSpacing = def.MinSpacing
	}
	if cfg.ThresholdRemaining <= 0 {
		cfg.ThresholdRemaining = def.ThresholdRemaining
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = def.WindowDuration
	}
	if cfg.RecoveryBuffer <= 0 {
		cfg.RecoveryBuffer = def.RecoveryBuffer
	}

	return &Gate{
		cfg:     cfg,
		spacing: rate.NewLimiter(rate.Every(cfg.MinSpacing), 1),
		window:  NewWindow(cfg.WindowDuration),
		logger:  logger.With().Str("component", "throttle-gate").Logger(),
	}
}

// BeforeRequest blocks until the next dispatch is allowed: it consumes
// any pending sliding-window pause, then waits for the spacing
// limiter. On success the dispatch instant is recorded exactly once,
// immediately before the transport call. A context cancellation during
// a wait abandons the dispatch without recording it; a pause that was
// not served stays staged for the next dispatch.
func (g *Gate) BeforeRequest(ctx context.Context) error {
	if g.pending > 0 {
		wait := g.pending

		g.logger.Debug().
			Dur("wait", wait).
			Msg("Applying sliding-window pause before dispatch")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			g.pending = 0
		}
	}

	if err := g.spacing.Wait(ctx); err != nil {
		return err
	}

	now := time.Now()
	g.lastDispatch = now
	g.window.Record(now)
	return nil
}

// AfterResponse inspects the quota header of a completed response and
// stages a proactive pause for the next dispatch when the remaining
// quota is at or below the configured threshold. A missing or
// malformed header is not an error; the check is simply skipped.
func (g *Gate) AfterResponse(header http.Header, now time.Time) {
	used, max, ok := parseUsage(header.Get(UsageHeader))
	if !ok {
		return
	}

	remaining := max - used
	rateLimitRemaining.Set(float64(remaining))

	if remaining > g.cfg.ThresholdRemaining {
		return
	}

	wait := g.window.TimeUntilRecovered(g.cfg.RecoveryBuffer, now)
	if wait > g.pending {
		g.pending = wait
	}

	event := PauseEvent{
		Used:      used,
		Max:       max,
		Remaining: remaining,
		Wait:      wait,
		ResumeAt:  now.Add(wait),
	}

	rateLimitPausesTotal.Inc()
	rateLimitPauseSeconds.Observe(wait.Seconds())

	g.logger.Warn().
		Int("used", used).
		Int("max", max).
		Int("remaining", remaining).
		Dur("wait", wait).
		Time("resume_at", event.ResumeAt).
		Msg("Remaining quota low - pausing before next dispatch")

	if g.cfg.OnPause != nil {
		g.cfg.OnPause(event)
	}
}

// LastDispatch returns the instant of the most recent dispatch.
func (g *Gate) LastDispatch() time.Time {
	return g.lastDispatch
}

// parseUsage parses a "<used>/<max>" quota pair. It reports ok=false
// for empty, non-numeric or structurally invalid values.
func parseUsage(value string) (used, max int, ok bool) {
	usedStr, maxStr, found := strings.Cut(strings.TrimSpace(value), "/")
	if !found {
		return 0, 0, false
	}

	used, err := strconv.Atoi(strings.TrimSpace(usedStr))
	if err != nil {
		return 0, 0, false
	}

	max, err = strconv.Atoi(strings.TrimSpace(maxStr))
	if err != nil {
		return 0, 0, false
	}

	return used, max, true
}
