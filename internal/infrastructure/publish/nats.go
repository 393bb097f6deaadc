package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"tickfeed/internal/application/port"
	"tickfeed/internal/domain"
)

// Publisher republishes every accepted tick on the message bus, one subject
// per (topic, symbol): <prefix>.<topic>.<symbol>. Delivery is fire-and-forget
// NATS core; slow bus consumers cannot back-pressure the feed.
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
}

func New(url, subjectPrefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("tickfeed-publisher"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{nc: nc, subjectPrefix: subjectPrefix}, nil
}

func (p *Publisher) WriteTick(_ context.Context, tick domain.Tick) error {
	subject := fmt.Sprintf("%s.%s.%s", p.subjectPrefix, tick.Topic, tick.Symbol)
	b, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("marshal tick for %s: %w", subject, err)
	}
	return p.nc.Publish(subject, b)
}

func (p *Publisher) Close() error {
	return p.nc.Drain()
}

var _ port.TickSink = (*Publisher)(nil)
