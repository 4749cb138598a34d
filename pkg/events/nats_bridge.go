package events

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/logging"
)

// NATSConfig configures the NATS bridge
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NATSBridge forwards bus events to NATS subjects so other processes can
// follow presence without polling
type NATSBridge struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewNATSBridge connects to NATS
func NewNATSBridge(cfg NATSConfig, logger *logging.Logger) (*NATSBridge, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "chat"
	}
	logger = logger.Named("nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	return &NATSBridge{
		nc:     nc,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

// OnEvent publishes the event as JSON
func (b *NATSBridge) OnEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	if err := b.nc.Publish(Subject(b.prefix, event), data); err != nil {
		b.logger.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}

// Close drains the connection
func (b *NATSBridge) Close() error {
	if b.nc == nil {
		return nil
	}
	return b.nc.Drain()
}

// Subject returns the NATS subject for an event: <prefix>.<type>[.room.<id>]
func Subject(prefix string, event Event) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('.')
	sb.WriteString(event.Type)
	if event.RoomID != 0 {
		sb.WriteString(".room.")
		sb.WriteString(strconv.FormatUint(uint64(event.RoomID), 10))
	}
	return sb.String()
}
