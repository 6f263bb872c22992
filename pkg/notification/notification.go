// Package notification verifies ZRU webhook notifications and resolves the
// resources they refer to.
//
// A Notification wraps the fields of one delivery. CheckSignature tells
// whether ZRU sent it; the resource accessors fetch the transaction,
// subscription, authorization or sale it is about, and only the ones that
// apply to the payload.
package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/zrupay/zru-go/pkg/resource"
)

// ResourceClient is what a Notification needs from the API client.
type ResourceClient interface {
	// Retrieve fetches one resource by id.
	Retrieve(ctx context.Context, kind resource.Kind, id string) (*resource.Object, error)
	// SecretKey is the shared secret notifications are signed with.
	SecretKey() string
}

// Notification is one ZRU webhook delivery bound to the client used to
// verify it and fetch what it refers to. It is not modified after New.
type Notification struct {
	payload Payload
	client  ResourceClient
	logger  *zap.Logger
}

// Option configures a Notification in New.
type Option func(*Notification)

// WithLogger sets the logger used for unknown field warnings. The global zap
// logger is used otherwise.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notification) {
		n.logger = logger
	}
}

// New wraps payload. The payload is borrowed and must not be modified while
// the Notification is in use.
func New(payload Payload, client ResourceClient, opts ...Option) *Notification {
	n := &Notification{
		payload: payload,
		client:  client,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = zap.L()
	}
	return n
}

// Payload returns the wrapped fields.
func (n *Notification) Payload() Payload {
	return n.payload
}

// Field returns a raw payload value. ok is false when the field was not sent,
// which is different from a field sent as null (nil, true).
func (n *Notification) Field(name string) (value any, ok bool) {
	value, ok = n.payload[name]
	if !ok {
		n.logger.Debug("unknown notification field", zap.String("field", name))
	}
	return value, ok
}

// String returns a field as text; unknown and null fields are "".
func (n *Notification) String(name string) string {
	v, ok := n.Field(name)
	if !ok {
		return ""
	}
	return stringify(v)
}

// ID is the id of the notified transaction, subscription or authorization.
func (n *Notification) ID() string {
	return n.String(FieldID)
}

// Type is the raw type code; see IsTransaction and friends.
func (n *Notification) Type() Type {
	return Type(n.String(FieldType))
}

// Status is the payment status code.
func (n *Notification) Status() Status {
	return Status(n.String(FieldStatus))
}

func (n *Notification) SubscriptionStatus() SubscriptionStatus {
	return SubscriptionStatus(n.String(FieldSubscriptionStatus))
}

func (n *Notification) AuthorizationStatus() AuthorizationStatus {
	return AuthorizationStatus(n.String(FieldAuthorizationStatus))
}

func (n *Notification) SaleAction() SaleAction {
	return SaleAction(n.String(FieldSaleAction))
}

// SaleID is the sale created by the notified payment, if any.
func (n *Notification) SaleID() (string, bool) {
	v, ok := n.payload[FieldSaleID]
	if !ok || v == nil {
		return "", false
	}
	return stringify(v), true
}

// Signature is the signature sent with the payload, "" when absent.
func (n *Notification) Signature() string {
	return n.String(FieldSignature)
}
