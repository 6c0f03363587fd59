package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnSentence(ctx, &domain.SentenceEvent{Duration: time.Millisecond})
	hooks.OnSentence(ctx, &domain.SentenceEvent{Repetition: true})
	hooks.OnSentence(ctx, &domain.SentenceEvent{Err: errors.New("x")})
	hooks.OnTurnCommit(ctx, &domain.TurnEvent{})
	hooks.OnTurnError(ctx, &domain.TurnEvent{})
	hooks.OnTurnError(ctx, &domain.TurnEvent{})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Sentences))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Repetitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues(observability.OutcomeCommitted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Turns.WithLabelValues(observability.OutcomeRecovered)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Responder))

	count, err := testutil.GatherAndCount(reg, "colloquy_turn_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilRegistererSkipsRegistration(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelWarn))
	ctx := context.Background()

	hooks.OnTurnCommit(ctx, &domain.TurnEvent{SessionID: "s1"})
	assert.Empty(t, buf.String())

	hooks.OnTurnError(ctx, &domain.TurnEvent{SessionID: "s1", Err: errors.New("down")})
	assert.Contains(t, buf.String(), "turn_recovered")
	assert.Contains(t, buf.String(), "err=down")
}
