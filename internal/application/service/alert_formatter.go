package service

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"tickalert/internal/domain/model"
)

// NoNewsMarker body used when enrichment returned nothing
const NoNewsMarker = "No related news."

// AlertFormatter renders a detection and its news into the subscriber message
type AlertFormatter struct {
	MaxNews int
}

func NewAlertFormatter(maxNews int) *AlertFormatter {
	if maxNews <= 0 {
		maxNews = 3
	}
	return &AlertFormatter{MaxNews: maxNews}
}

func (f *AlertFormatter) Header(d model.Detection) string {
	return fmt.Sprintf("🚨 [%s] $%s · %s shares (cond %d) volume spike detected",
		d.Symbol, d.Price.StringFixed(2), humanize.Comma(d.Volume), d.Condition)
}

func (f *AlertFormatter) Render(d model.Detection, news []model.NewsItem) string {
	var sb strings.Builder
	sb.WriteString(f.Header(d))
	sb.WriteString("\n\n")

	if len(news) == 0 {
		sb.WriteString(NoNewsMarker)
		return sb.String()
	}

	for i, n := range news {
		if i >= f.MaxNews {
			break
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "📰 %d. %s\n🔗 %s", i+1, n.Headline, n.URL)
	}
	return sb.String()
}
