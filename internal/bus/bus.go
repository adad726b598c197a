// Package bus provides the event bus that carries compliance events and
// delegated evaluation requests.
package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

var (
	// ErrClosed is returned by every operation on a closed bus.
	ErrClosed = errors.New("bus is closed")

	// ErrNoResponders means a request found nobody subscribed to its topic.
	ErrNoResponders = errors.New("no responders for request")

	// ErrNoReplyAddress means Reply was called for a message that was not a request.
	ErrNoReplyAddress = errors.New("message has no reply address")

	errTenantRequired = fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
)

const defaultRequestTimeout = 30 * time.Second

// New creates a new event bus based on configuration.
// For Community tier: returns ChannelBus.
// For Pro tier: returns NATSBus.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}

func newMessage(tenantID, topic string, payload []byte) *domain.Message {
	return &domain.Message{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}
}
