package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSPublisher forwards realtime messages to NATS so other services (the
// kitchen display, the order service) can follow table state.
// Messages go to <subject>.<event>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     logrus.FieldLogger
}

func NewNATSPublisher(url, subject string, log logrus.FieldLogger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("tablehub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject, log: log}, nil
}

func (p *NATSPublisher) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data, OccurredAt: time.Now()})
	if err != nil {
		p.log.WithError(err).WithField("event", event).Error("failed to marshal NATS message")
		return
	}
	if err := p.conn.Publish(p.subject+"."+event, payload); err != nil {
		p.log.WithError(err).WithField("event", event).Warn("failed to publish to NATS")
	}
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
