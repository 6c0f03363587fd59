package observability

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of colloquy_turns_total.
const (
	OutcomeCommitted = "committed"
	OutcomeRecovered = "recovered"
)

// Metrics holds the conversation collectors.
type Metrics struct {
	Turns       *prometheus.CounterVec
	Sentences   prometheus.Counter
	Repetitions prometheus.Counter
	Responder   *prometheus.HistogramVec
	TurnLatency prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colloquy_turns_total",
				Help: "Turns processed, by outcome.",
			},
			[]string{"outcome"},
		),
		Sentences: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "colloquy_sentences_total",
			Help: "Sentences handed to the responder.",
		}),
		Repetitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "colloquy_repetitions_total",
			Help: "Sentences replaced by the repetition sentinel.",
		}),
		Responder: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "colloquy_responder_duration_seconds",
				Help:    "Duration of responder calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		TurnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "colloquy_turn_duration_seconds",
			Help:    "End-to-end duration of a turn.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.Sentences, m.Repetitions, m.Responder, m.TurnLatency)
	}
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSentence: func(ctx context.Context, e *domain.SentenceEvent) {
			m.Sentences.Inc()
			if e.Repetition {
				m.Repetitions.Inc()
			}
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.Responder.WithLabelValues(status).Observe(e.Duration.Seconds())
		},
		OnTurnCommit: func(ctx context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(OutcomeCommitted).Inc()
			m.TurnLatency.Observe(e.Duration.Seconds())
		},
		OnTurnError: func(ctx context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(OutcomeRecovered).Inc()
			m.TurnLatency.Observe(e.Duration.Seconds())
		},
	}
}
