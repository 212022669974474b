package analytics

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"spm-client/internal/logger"
)

type CtxKey string

const (
	ctxEmployeeIDKey CtxKey = "analytics_employee_id"
	ctxRequestIDKey  CtxKey = "analytics_request_id"
)

// Envelope is attached to every event.
type Envelope struct {
	EmployeeID   int
	SessionID    string
	RequestID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	env := Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
	if id, ok := EmployeeIDFromContext(r.Context()); ok {
		env.EmployeeID = id
	}
	if rid, ok := RequestIDFromContext(r.Context()); ok {
		env.RequestID = rid
	}
	return env
}

func WithEmployeeID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, ctxEmployeeIDKey, id)
}

func EmployeeIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(ctxEmployeeIDKey).(int)
	return id, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxRequestIDKey).(string)
	return id, ok && id != ""
}

// Recorder writes client events to the log and to Prometheus counters.
type Recorder struct {
	log      logger.Logger
	events   *prometheus.CounterVec
	shapes   *prometheus.CounterVec
	dropped  prometheus.Counter
	returned prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.Default()
	}
	r := &Recorder{
		log: log,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_client_events_total",
			Help: "Client events by name.",
		}, []string{"event"}),
		shapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_task_payload_shape_total",
			Help: "GET /tasks payloads by detected shape.",
		}, []string{"shape"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spm_task_duplicates_dropped_total",
			Help: "Task records removed by identifier de-duplication.",
		}),
		returned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spm_task_list_size",
			Help:    "Number of tasks returned after normalization.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(r.events, r.shapes, r.dropped, r.returned)
	}
	return r
}

// Log records one event. Callers pass sanitized props only: ids, counts, flags.
func (r *Recorder) Log(ctx context.Context, env Envelope, event string, props map[string]any) {
	if event == "" {
		return
	}
	if env.EmployeeID == 0 {
		if id, ok := EmployeeIDFromContext(ctx); ok {
			env.EmployeeID = id
		}
	}
	r.events.WithLabelValues(event).Inc()

	kv := []any{
		"event", event,
		"employee_id", env.EmployeeID,
		"platform", env.Platform,
	}
	if env.RequestID != "" {
		kv = append(kv, "request_id", env.RequestID)
	}
	if env.SessionID != "" {
		kv = append(kv, "session_id", env.SessionID)
	}
	if env.AppVersion != "" {
		kv = append(kv, "app_version", env.AppVersion)
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, props[k])
	}
	r.log.Info("analytics", kv...)
}

// ObservePayload records one normalization: the detected shape and the
// record counts before and after it.
func (r *Recorder) ObservePayload(shape string, in, out int) {
	r.shapes.WithLabelValues(shape).Inc()
	if in > out {
		r.dropped.Add(float64(in - out))
	}
	r.returned.Observe(float64(out))
}
