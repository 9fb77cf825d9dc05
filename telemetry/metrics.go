// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics register on the default registry at package init so every import
// path (server, jobs, tests) sees the same instances.
var (
	// Counters
	MessagesSent         = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_sent_total", Help: "Number of user messages accepted"})
	AutoRepliesScheduled = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_replies_scheduled_total", Help: "Number of delayed auto replies scheduled"})
	AutoRepliesDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_replies_delivered_total", Help: "Number of auto replies persisted and broadcast"})
	AutoRepliesDropped   = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_replies_dropped_total", Help: "Number of auto replies dropped because the chat was gone at fire time"})
	AutoSendTicks        = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_send_ticks_total", Help: "Number of auto-send scheduler ticks"})
	AutoSendSkips        = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_send_skips_total", Help: "Number of scheduler ticks skipped (no chats or append failure)"})

	// Histograms (seconds)
	QuoteFetchDuration prometheus.Observer = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_quote_fetch_duration_seconds", Help: "Quote provider fetch duration seconds", Buckets: prometheus.DefBuckets})

	// Gauges
	ConnectedClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_connected_clients", Help: "Currently connected realtime clients"})
	RoomsGauge            = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_rooms", Help: "Rooms with at least one member"})
	AutoSendEnabledGauge  = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_auto_send_enabled", Help: "Auto-send scheduler running=1 stopped=0"})
)

// Init logs that metrics are live. Registration itself happens at package
// init; this hook exists so startup order is explicit in main.
func Init() {
	slog.Debug("metrics registered", slog.String("component", "telemetry"))
}

// UpdateAutoSendGauge sets gauge to 1 if the scheduler is running else 0.
func UpdateAutoSendGauge(running bool) {
	if running {
		AutoSendEnabledGauge.Set(1)
	} else {
		AutoSendEnabledGauge.Set(0)
	}
}

// SetConnectedClients records the current realtime connection count.
func SetConnectedClients(n int) {
	ConnectedClientsGauge.Set(float64(n))
}

// SetRooms records the current number of non-empty rooms.
func SetRooms(n int) {
	RoomsGauge.Set(float64(n))
}

// TimeFunc measures the duration of fn and records it in the observer.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
