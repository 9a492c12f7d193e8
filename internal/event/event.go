// Package event defines the domain events the admin service publishes on the
// message bus and the envelope they travel in.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/messaging"
)

// Type names an event kind; it is also sent as the "event-type" header.
type Type string

const (
	OrderStatusChanged Type = "order.status_changed"
	ProductLowStock    Type = "product.low_stock"
	PremiumReviewed    Type = "premium.reviewed"
	CatalogChanged     Type = "catalog.changed"
)

const typeHeader = "event-type"

// Envelope wraps every event payload.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// OrderStatusChangedData is the payload of OrderStatusChanged.
type OrderStatusChangedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// ProductLowStockData is the payload of ProductLowStock.
type ProductLowStockData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// PremiumReviewedData is the payload of PremiumReviewed.
type PremiumReviewedData struct {
	RequestID   string `json:"request_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Decision    string `json:"decision"`
	PremiumCode string `json:"premium_code,omitempty"`
}

// CatalogChangedData is the payload of CatalogChanged.
type CatalogChangedData struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

// ErrEmptyEnvelope is returned when a message carries no event type.
var ErrEmptyEnvelope = errors.New("event envelope has no type")

// Decode parses a bus message into an Envelope.
func Decode(msg messaging.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		env.Type = Type(msg.Headers[typeHeader])
	}
	if env.Type == "" {
		return Envelope{}, ErrEmptyEnvelope
	}
	return env, nil
}

// Module provides the Publisher to Fx.
var Module = fx.Provide(NewPublisher)

// Publisher emits domain events. Publishing is fire-and-forget: failures are
// logged and never fail the admin operation that triggered them.
type Publisher struct {
	client messaging.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher wires a Publisher on top of the messaging client.
func NewPublisher(client messaging.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger, now: time.Now}
}

// Publish sends data as an event of type t, keyed by key for partitioning.
func (p *Publisher) Publish(ctx context.Context, t Type, key string, data any) {
	if p == nil || p.client == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		p.logger.Error("marshal event", zap.String("type", string(t)), zap.Error(err))
		return
	}
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: p.now().UTC(),
		Data:       raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("marshal event envelope", zap.String("type", string(t)), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: map[string]string{typeHeader: string(t)},
	}
	if err := p.client.Publish(ctx, msg); err != nil {
		p.logger.Error("publish event", zap.String("type", string(t)), zap.String("key", key), zap.Error(err))
	}
}
