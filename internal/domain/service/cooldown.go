package service

import (
	"sync"
	"time"
)

// Cooldown suppresses repeated alerts for the same symbol inside Window.
// A zero Window allows every alert.
type Cooldown struct {
	mu     sync.Mutex
	Window time.Duration
	last   map[string]time.Time // symbol -> last allowed alert
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		Window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether an alert for symbol may go out at now, and records it if so.
func (c *Cooldown) Allow(symbol string, now time.Time) bool {
	if c == nil || c.Window <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.last[symbol]; ok && now.Sub(prev) < c.Window {
		return false
	}
	c.last[symbol] = now
	return true
}

// Release undoes the record Allow made at the same instant, so a detection
// that never went out does not hold the window.
func (c *Cooldown) Release(symbol string, at time.Time) {
	if c == nil || c.Window <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.last[symbol]; ok && prev.Equal(at) {
		delete(c.last, symbol)
	}
}

// Remaining time until symbol may alert again, 0 when allowed
func (c *Cooldown) Remaining(symbol string, now time.Time) time.Duration {
	if c == nil || c.Window <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.last[symbol]
	if !ok {
		return 0
	}
	if left := c.Window - now.Sub(prev); left > 0 {
		return left
	}
	return 0
}

// Cleanup drops entries older than the window
func (c *Cooldown) Cleanup(now time.Time) {
	if c == nil || c.Window <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for sym, ts := range c.last {
		if now.Sub(ts) >= c.Window {
			delete(c.last, sym)
		}
	}
}
