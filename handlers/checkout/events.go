package checkout

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/utils/sse"
	"go.uber.org/zap"
)

const (
	keepAliveInterval = 15 * time.Second
	reconnectMillis   = 2000
)

// Events handles GET /api/v1/checkout/events, streaming a view after every change
func (h *CheckoutHandler) Events(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	views, stop := s.Watch()
	log := h.log.With(zap.String("storefront_id", s.ID()))

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stop()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		seq := 0
		for {
			select {
			case v, ok := <-views:
				if !ok {
					sse.SendClosed(w, reconnectMillis)
					return
				}
				seq++
				if err := sse.SendView(w, seq, v); err != nil {
					log.Debug("event stream closed by client", zap.Error(err))
					return
				}
			case <-ticker.C:
				if err := sse.SendKeepAlive(w); err != nil {
					log.Debug("event stream closed by client", zap.Error(err))
					return
				}
			}
		}
	})

	return nil
}
