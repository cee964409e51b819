package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tickalert/internal/application/port"
	"tickalert/internal/application/service"
	"tickalert/internal/domain/model"
	dsvc "tickalert/internal/domain/service"
	"tickalert/internal/infrastructure/metrics"
)

// Dispatcher delivers one enriched detection
type Dispatcher interface {
	Dispatch(ctx context.Context, det model.Detection, news []model.NewsItem) (service.DispatchResult, error)
}

type ServiceDeps struct {
	Rule       dsvc.SpikeRule
	Cooldown   *dsvc.Cooldown
	News       port.NewsFetcher
	Dispatcher Dispatcher
	Pool       *Pool
}

// Service turns trades into alerts: detect, throttle, then enrich and dispatch on the pool.
type Service struct {
	deps ServiceDeps
	now  func() time.Time

	lastSweep atomic.Int64 // unix nano of the last cooldown cleanup
}

func NewService(deps ServiceDeps) *Service {
	return &Service{deps: deps, now: time.Now}
}

var _ port.TradeHandler = (*Service)(nil)

// OnTrade runs on the frame-receive path and never performs I/O itself.
func (s *Service) OnTrade(ctx context.Context, t model.TradeEvent) {
	if !s.deps.Rule.Detect(t) {
		return
	}

	now := s.now()
	det := model.Detection{
		Symbol:     t.Symbol,
		Price:      t.Price,
		Volume:     t.Volume,
		Condition:  t.FirstCondition(),
		DetectedAt: now,
	}

	s.sweepCooldown(now)
	if !s.deps.Cooldown.Allow(det.Symbol, now) {
		metrics.DetectionsTotal.WithLabelValues("cooldown").Inc()
		log.Debug().Str("symbol", det.Symbol).Dur("remaining", s.deps.Cooldown.Remaining(det.Symbol, now)).Msg("detection suppressed by cooldown")
		return
	}

	if !s.deps.Pool.Submit(func(jobCtx context.Context) { s.handle(jobCtx, det) }) {
		// 未投递的检测不占用冷却窗口
		s.deps.Cooldown.Release(det.Symbol, now)
		metrics.DetectionsTotal.WithLabelValues("dropped").Inc()
		log.Warn().Str("symbol", det.Symbol).Int64("volume", det.Volume).Msg("detection queue full, dropped")
		return
	}
	metrics.DetectionsTotal.WithLabelValues("queued").Inc()
	log.Info().
		Str("symbol", det.Symbol).
		Str("price", det.Price.String()).
		Int64("volume", det.Volume).
		Int("condition", det.Condition).
		Msg("spike detected")
}

// sweepCooldown 每个冷却窗口最多清理一次过期记录
func (s *Service) sweepCooldown(now time.Time) {
	cd := s.deps.Cooldown
	if cd == nil || cd.Window <= 0 {
		return
	}
	last := s.lastSweep.Load()
	if last != 0 && now.UnixNano()-last < int64(cd.Window) {
		return
	}
	if s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		cd.Cleanup(now)
	}
}

func (s *Service) handle(ctx context.Context, det model.Detection) {
	news := s.deps.News.FetchNews(ctx, det.Symbol)
	if _, err := s.deps.Dispatcher.Dispatch(ctx, det, news); err != nil {
		log.Error().Err(err).Str("symbol", det.Symbol).Msg("dispatch incomplete")
	}
}

// Shutdown drains detection handling within grace
func (s *Service) Shutdown(grace time.Duration) {
	if ok := s.deps.Pool.Shutdown(grace); ok {
		log.Info().Msg("detection workers drained")
	}
	if n := s.deps.Pool.Dropped(); n > 0 {
		log.Warn().Int64("dropped", n).Msg("detections dropped during run")
	}
}
