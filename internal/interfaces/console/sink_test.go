package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickalert/internal/domain/model"
)

func sampleAlert(news int) *model.Alert {
	a := &model.Alert{
		Detection: model.Detection{
			Symbol:    "AAPL",
			Price:     decimal.RequireFromString("189.5"),
			Volume:    75000,
			Condition: 2,
		},
		Text:      "🚨 [AAPL] hello",
		CreatedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
	}
	for i := 0; i < news; i++ {
		a.News = append(a.News, model.NewsItem{Headline: "h"})
	}
	return a
}

func TestSinkWritesDeliveriesAndAlerts(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)

	require.NoError(t, s.Deliver(context.Background(), "42", "🚨 [AAPL] hello"))
	require.NoError(t, s.Publish(context.Background(), sampleAlert(3)))

	out := buf.String()
	assert.Contains(t, out, "--> 42\n🚨 [AAPL] hello")
	assert.Contains(t, out, "2024-01-02 15:04:05 [TICKALERT] AAPL $189.50 vol=75,000 cond=2 news=3")
	assert.NotContains(t, out, "\033[")
	assert.Equal(t, "console", s.Name())
}

func TestRendererColors(t *testing.T) {
	line := NewRenderer(true).RenderLine(sampleAlert(0))
	assert.Contains(t, line, Colorize("AAPL", ansiRed))
	assert.Contains(t, line, Colorize("news=0", ansiDim))
	assert.True(t, strings.HasPrefix(line, "2024-01-02 15:04:05 "))
}
