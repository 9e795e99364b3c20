package observability

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver translates loop and operation events into prometheus
// collectors. Events it does not aggregate are ignored.
type MetricsObserver struct {
	turns      *prometheus.CounterVec
	steps      prometheus.Histogram
	toolCalls  *prometheus.CounterVec
	retries    prometheus.Counter
	operations *prometheus.CounterVec
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_agent_turns_total",
			Help: "Conversation turns by outcome.",
		}, []string{"outcome"}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "course_agent_turn_steps",
			Help:    "Model steps taken per conversation turn.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_agent_tool_calls_total",
			Help: "Read-only tool calls by tool and error flag.",
		}, []string{"tool", "error"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_agent_model_retries_total",
			Help: "Model calls retried after a transport failure.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_agent_operations_total",
			Help: "Confirmed, rejected, edited, and failed operations by action.",
		}, []string{"action", "result"}),
	}
	for _, c := range []prometheus.Collector{m.turns, m.steps, m.toolCalls, m.retries, m.operations} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *MetricsObserver) OnEvent(_ context.Context, event Event) {
	switch event.Type {
	case EventOutcome:
		m.turns.WithLabelValues(str(event.Data, "outcome")).Inc()
		if n, ok := event.Data["steps"].(int); ok {
			m.steps.Observe(float64(n))
		}
	case EventToolComplete:
		failed, _ := event.Data["error"].(bool)
		m.toolCalls.WithLabelValues(str(event.Data, "name"), strconv.FormatBool(failed)).Inc()
	case EventModelRetry:
		m.retries.Inc()
	case EventOperationComplete:
		m.operations.WithLabelValues(str(event.Data, "action"), str(event.Data, "result")).Inc()
	}
}

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
