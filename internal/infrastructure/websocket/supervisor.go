package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tickalert/internal/infrastructure/metrics"
)

// ErrTransportFatal 流连接丢失且策略要求进程退出
var ErrTransportFatal = errors.New("stream transport lost")

// Session 一次完整的流式会话（拨号、认证、订阅、读循环）
type Session interface {
	Name() string
	// Run 阻塞直到连接结束；streamed 表示本次会话是否进入过 streaming 状态
	Run(ctx context.Context) (streamed bool, err error)
	Terminate()
	Reconnecting()
}

type Policy string

const (
	PolicyExit      Policy = "exit"
	PolicyReconnect Policy = "reconnect"
)

// RetryConfig WebSocket 重连配置
type RetryConfig struct {
	MaxRetries int           // 连续失败会话上限，0 表示不限
	InitialDel time.Duration // 初始延迟
	MaxDelay   time.Duration // 最大延迟
}

// DefaultRetryConfig 默认重连配置
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	InitialDel: 1 * time.Second,
	MaxDelay:   30 * time.Second,
}

type SupervisorConfig struct {
	Policy    Policy
	ExitDelay time.Duration
	Retry     RetryConfig
}

// Supervisor 管理流会话的生命周期：exit 策略下连接丢失即退出，reconnect 策略下指数退避重连
type Supervisor struct {
	session Session
	cfg     SupervisorConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewSupervisor(session Session, cfg SupervisorConfig) *Supervisor {
	if cfg.Policy == "" {
		cfg.Policy = PolicyExit
	}
	if cfg.Retry.InitialDel <= 0 {
		cfg.Retry.InitialDel = DefaultRetryConfig.InitialDel
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	if cfg.Retry.MaxDelay < cfg.Retry.InitialDel {
		cfg.Retry.MaxDelay = cfg.Retry.InitialDel
	}
	return &Supervisor{session: session, cfg: cfg, sleep: sleepCtx}
}

// Run 阻塞直到 ctx 取消（返回 nil）或连接不可恢复（返回 ErrTransportFatal）
func (s *Supervisor) Run(ctx context.Context) error {
	name := s.session.Name()
	delay := s.cfg.Retry.InitialDel
	failures := 0

	for {
		streamed, err := s.session.Run(ctx)
		if ctx.Err() != nil {
			s.session.Terminate()
			metrics.StreamSessions.WithLabelValues("shutdown").Inc()
			log.Info().Str("stream", name).Msg("stream stopped by shutdown")
			return nil
		}

		reason := "closed"
		if err != nil {
			reason = "error"
		}
		metrics.StreamSessions.WithLabelValues(reason).Inc()
		log.Error().Err(err).Str("stream", name).Bool("streamed", streamed).Msg("stream connection lost")

		if s.cfg.Policy != PolicyReconnect {
			return s.exit(ctx, err)
		}

		// 成功进入 streaming 后视为健康会话，重置退避
		if streamed {
			failures = 0
			delay = s.cfg.Retry.InitialDel
		}
		failures++
		if s.cfg.Retry.MaxRetries > 0 && failures > s.cfg.Retry.MaxRetries {
			log.Error().Str("stream", name).Int("failures", failures-1).Msg("reconnect attempts exhausted")
			return s.exit(ctx, err)
		}

		s.session.Reconnecting()
		log.Info().
			Str("stream", name).
			Int("attempt", failures).
			Int64("delay_ms", delay.Milliseconds()).
			Msg("reconnecting stream")
		if s.sleep(ctx, delay) != nil {
			s.session.Terminate()
			return nil
		}
		// 指数退避：每次翻倍，但不超过最大延迟
		delay *= 2
		if delay > s.cfg.Retry.MaxDelay {
			delay = s.cfg.Retry.MaxDelay
		}
	}
}

// exit 等待 ExitDelay 后返回致命错误，由外部进程管理器负责重启
func (s *Supervisor) exit(ctx context.Context, cause error) error {
	s.session.Terminate()
	log.Warn().Dur("delay", s.cfg.ExitDelay).Msg("terminating process after stream loss")
	if s.sleep(ctx, s.cfg.ExitDelay) != nil {
		return nil
	}
	if cause == nil {
		return ErrTransportFatal
	}
	return fmt.Errorf("%w: %v", ErrTransportFatal, cause)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
