package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tickalert/internal/application/port"
	"tickalert/internal/domain/model"
	"tickalert/internal/infrastructure/metrics"
)

// DispatchResult per-alert delivery counts
type DispatchResult struct {
	AlertID     string
	Subscribers int
	Delivered   int
	Failed      int
}

// AlertDispatcher fans one alert out to every registered subscriber.
// A failing subscriber or publisher never stops the others.
type AlertDispatcher struct {
	store      port.SubscriberStore
	deliverer  port.Deliverer
	publishers []port.AlertPublisher
	formatter  *AlertFormatter
	now        func() time.Time
}

type DispatcherDeps struct {
	Store      port.SubscriberStore
	Deliverer  port.Deliverer
	Publishers []port.AlertPublisher
	Formatter  *AlertFormatter
}

func NewAlertDispatcher(deps DispatcherDeps) *AlertDispatcher {
	f := deps.Formatter
	if f == nil {
		f = NewAlertFormatter(0)
	}
	pubs := make([]port.AlertPublisher, 0, len(deps.Publishers))
	for _, p := range deps.Publishers {
		if p != nil {
			pubs = append(pubs, p)
		}
	}
	return &AlertDispatcher{
		store:      deps.Store,
		deliverer:  deps.Deliverer,
		publishers: pubs,
		formatter:  f,
		now:        time.Now,
	}
}

// Dispatch renders the alert, delivers it to the current subscriber snapshot and
// hands it to every publisher. The only returned error is a failed subscriber listing;
// publishers still receive the alert in that case.
func (d *AlertDispatcher) Dispatch(ctx context.Context, det model.Detection, news []model.NewsItem) (DispatchResult, error) {
	alert := &model.Alert{
		ID:        uuid.NewString(),
		Detection: det,
		News:      news,
		Text:      d.formatter.Render(det, news),
		CreatedAt: d.now(),
	}
	res := DispatchResult{AlertID: alert.ID}

	// snapshot: subscribers registered after this read miss this alert
	ids, listErr := d.store.ListAll(ctx)
	if listErr != nil {
		log.Error().Err(listErr).Str("symbol", det.Symbol).Msg("list subscribers failed")
	} else {
		res.Subscribers = len(ids)
		d.deliverAll(ctx, alert, ids, &res)
	}

	d.publish(ctx, alert)

	log.Info().
		Str("alert_id", alert.ID).
		Str("symbol", det.Symbol).
		Str("price", det.Price.String()).
		Int64("volume", det.Volume).
		Int("news", len(news)).
		Int("subscribers", res.Subscribers).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Msg("alert dispatched")

	if listErr != nil {
		return res, fmt.Errorf("list subscribers: %w", listErr)
	}
	return res, nil
}

func (d *AlertDispatcher) deliverAll(ctx context.Context, alert *model.Alert, ids []string, res *DispatchResult) {
	if d.deliverer == nil {
		return
	}
	channel := d.deliverer.Name()
	for i, id := range ids {
		if ctx.Err() != nil {
			log.Warn().
				Str("alert_id", alert.ID).
				Int("skipped", len(ids)-i).
				Msg("dispatch cancelled, remaining subscribers skipped")
			res.Failed += len(ids) - i
			return
		}
		if err := d.deliverer.Deliver(ctx, id, alert.Text); err != nil {
			res.Failed++
			metrics.DeliveriesTotal.WithLabelValues(channel, "error").Inc()
			log.Error().
				Err(err).
				Str("channel", channel).
				Str("subscriber", id).
				Str("symbol", alert.Detection.Symbol).
				Msg("deliver alert failed")
			continue
		}
		res.Delivered++
		metrics.DeliveriesTotal.WithLabelValues(channel, "ok").Inc()
	}
}

func (d *AlertDispatcher) publish(ctx context.Context, alert *model.Alert) {
	for _, p := range d.publishers {
		if err := p.Publish(ctx, alert); err != nil {
			metrics.PublishesTotal.WithLabelValues(p.Name(), "error").Inc()
			log.Error().Err(err).Str("publisher", p.Name()).Str("alert_id", alert.ID).Msg("publish alert failed")
			continue
		}
		metrics.PublishesTotal.WithLabelValues(p.Name(), "ok").Inc()
	}
}
