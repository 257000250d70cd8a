package httpserver

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/logging"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
)

// publishEvent emits a domain event best-effort: a broker outage must not
// fail the request that already committed.
func publishEvent(c echo.Context, p *mykafka.Producer, topic, key string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("publish event failed",
			"topic", topic, "key", key, "error", err)
	}
}
