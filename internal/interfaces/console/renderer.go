package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tickalert/internal/domain/model"
)

// ANSI color codes
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

// Colorize applies ANSI color to a string
func Colorize(s, color string) string {
	return color + s + ansiReset
}

// Renderer formats one alert as a single terminal line
type Renderer struct {
	color bool
}

func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

func (r *Renderer) paint(s, color string) string {
	if !r.color {
		return s
	}
	return Colorize(s, color)
}

// RenderLine e.g. "2024-01-02 15:04:05 [TICKALERT] AAPL $189.50 vol=75,000 cond=2 news=3"
func (r *Renderer) RenderLine(a *model.Alert) string {
	var sb strings.Builder
	d := a.Detection

	sb.WriteString(a.CreatedAt.Format(time.DateTime))
	sb.WriteString(" ")
	sb.WriteString(r.paint("[TICKALERT] ", ansiDim))
	sb.WriteString(r.paint(d.Symbol, ansiRed))
	sb.WriteString(" ")
	sb.WriteString(r.paint("$"+d.Price.StringFixed(2), ansiYellow))
	sb.WriteString(" ")
	sb.WriteString(r.paint("vol="+humanize.Comma(d.Volume), ansiYellow))
	sb.WriteString(fmt.Sprintf(" cond=%d", d.Condition))

	newsCol := ansiGreen
	if len(a.News) == 0 {
		newsCol = ansiDim
	}
	sb.WriteString(" ")
	sb.WriteString(r.paint(fmt.Sprintf("news=%d", len(a.News)), newsCol))
	return sb.String()
}
