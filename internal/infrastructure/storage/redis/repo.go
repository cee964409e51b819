package redis

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"tickalert/internal/application/port"
	"tickalert/internal/domain/model"
)

// Repo keeps the subscriber set in Redis and mirrors every alert to a capped stream and a pub/sub channel.
// The stream is a bounded fan-out buffer for downstream consumers, trimmed by MAXLEN.
type Repo struct {
	rdb         *redis.Client
	prefix      string
	keySubs     string // prefix + ":subscribers"
	alertStream string
	alertChan   string
	streamLen   int64
}

// AlertEvent payload written to the stream and channel
type AlertEvent struct {
	ID        string           `json:"id"`
	Symbol    string           `json:"symbol"`
	Price     string           `json:"price"`
	Volume    int64            `json:"volume"`
	Condition int              `json:"condition"`
	News      []model.NewsItem `json:"news"`
	Text      string           `json:"text"`
	Ts        int64            `json:"ts_ms"`
}

func New(rdb *redis.Client, prefix string, alertStream, alertChan string, streamLen int64) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "tickalert"
	}
	if strings.TrimSpace(alertStream) == "" {
		alertStream = prefix + ":alerts"
	}
	if strings.TrimSpace(alertChan) == "" {
		alertChan = prefix + ":alerts:pub"
	}
	return &Repo{
		rdb:         rdb,
		prefix:      prefix,
		keySubs:     prefix + ":subscribers",
		alertStream: alertStream,
		alertChan:   alertChan,
		streamLen:   streamLen,
	}
}

func (r *Repo) Name() string { return "redis" }

// Upsert adds id to the subscriber set; the set never expires
func (r *Repo) Upsert(ctx context.Context, id string) error {
	return r.rdb.SAdd(ctx, r.keySubs, id).Err()
}

func (r *Repo) ListAll(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.keySubs).Result()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *Repo) Publish(ctx context.Context, a *model.Alert) error {
	ev := AlertEvent{
		ID:        a.ID,
		Symbol:    a.Detection.Symbol,
		Price:     a.Detection.Price.String(),
		Volume:    a.Detection.Volume,
		Condition: a.Detection.Condition,
		News:      a.News,
		Text:      a.Text,
		Ts:        a.CreatedAt.UnixMilli(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> * id symbol volume payload
	args := &redis.XAddArgs{
		Stream: r.alertStream,
		Values: map[string]any{
			"id":      ev.ID,
			"symbol":  ev.Symbol,
			"volume":  ev.Volume,
			"ts_ms":   ev.Ts,
			"payload": string(payload),
		},
	}
	if r.streamLen > 0 {
		args.MaxLen = r.streamLen
		args.Approx = true
	}
	if err := r.rdb.XAdd(ctx, args).Err(); err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	return r.rdb.Publish(ctx, r.alertChan, payload).Err()
}

// Close is a no-op; the client is owned by the service context
func (r *Repo) Close() error { return nil }

var (
	_ port.SubscriberStore = (*Repo)(nil)
	_ port.AlertPublisher  = (*Repo)(nil)
)
