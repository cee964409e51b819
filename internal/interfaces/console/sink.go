package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"tickalert/internal/application/port"
	"tickalert/internal/domain/model"
)

// Sink 开发模式下把告警直接打印到终端，同时充当 Deliverer 和 AlertPublisher
type Sink struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *Renderer
}

// NewSink 为 nil 时写入 stdout 并启用颜色
func NewSink(out io.Writer) *Sink {
	color := false
	if out == nil {
		out = os.Stdout
		color = true
	}
	return &Sink{out: out, renderer: NewRenderer(color)}
}

func (s *Sink) Name() string { return "console" }

// Deliver 打印发给单个订阅者的消息
func (s *Sink) Deliver(ctx context.Context, subscriberID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "--> %s\n%s\n\n", subscriberID, text)
	return err
}

// Publish 打印告警摘要行，前后留空行
func (s *Sink) Publish(ctx context.Context, a *model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\n%s\n\n", s.renderer.RenderLine(a))
	return err
}

var (
	_ port.Deliverer      = (*Sink)(nil)
	_ port.AlertPublisher = (*Sink)(nil)
)
