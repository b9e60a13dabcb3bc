package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mmsim/internal/models"
	"mmsim/internal/stream"
)

func TestTerminalReporterTrade(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf, 1, 0)
	ts := time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)

	r.OnEvent(stream.Event{
		Type:      stream.EventTrade,
		Timestamp: ts,
		Trade: &models.Trade{
			ID: 1, Timestamp: ts, Side: models.SideLong,
			Price: 59940.5, Size: 0.25, Margin: 1498.51,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "10:00:05")
	assert.Contains(t, out, "FILL LONG")
	assert.Contains(t, out, "0.25 @ 59940.5")
	assert.Contains(t, out, "margin 1498.51")
}

func TestTerminalReporterCollapse(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf, 1, 0)
	ts := time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)

	r.OnEvent(stream.Event{
		Type:      stream.EventCollapse,
		Timestamp: ts,
		Collapse:  &models.Collapse{ID: 1, Size: 0.5, RealizedPnL: -12.5},
	})

	assert.Contains(t, buf.String(), "COLLAPSE 0.5  realized -12.50")
}

func TestTerminalReporterTickSampling(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf, 0, 10)
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 25; i++ {
		r.OnEvent(stream.Event{
			Type:      stream.EventTick,
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Point:     &models.DataPoint{Tick: i, Mid: 60000, Bid: 59940, Ask: 60060, Equity: 10000},
		})
	}

	// Only ticks 10 and 20 printed.
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, buf.String(), "tick 10")
	assert.Contains(t, buf.String(), "tick 20")
}

func TestTerminalReporterTicksDisabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf, 0, 0)
	r.OnEvent(stream.Event{
		Type:  stream.EventTick,
		Point: &models.DataPoint{Tick: 10},
	})
	assert.Empty(t, buf.String())
}
