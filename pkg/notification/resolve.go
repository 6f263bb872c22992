package notification

import (
	"context"

	"github.com/zrupay/zru-go/pkg/resource"
)

// ResourceKind maps the notification type to the resource it describes.
// ok is false for payloads without a known type.
func (n *Notification) ResourceKind() (kind resource.Kind, ok bool) {
	switch {
	case n.IsTransaction():
		return resource.KindTransaction, true
	case n.IsSubscription():
		return resource.KindSubscription, true
	case n.IsAuthorization():
		return resource.KindAuthorization, true
	default:
		return "", false
	}
}

// Resource fetches the transaction, subscription or authorization named by
// the notification type. It returns nil without calling the API when the
// type is unknown.
//
// Results are not cached: every call is a round-trip. Fetch errors are
// returned as the client produced them.
func (n *Notification) Resource(ctx context.Context) (*resource.Object, error) {
	kind, ok := n.ResourceKind()
	if !ok {
		return nil, nil
	}
	return n.client.Retrieve(ctx, kind, n.ID())
}

// Transaction fetches the notified transaction. nil when the notification
// is not about a transaction.
func (n *Notification) Transaction(ctx context.Context) (*resource.Transaction, error) {
	if !n.IsTransaction() {
		return nil, nil
	}
	obj, err := n.client.Retrieve(ctx, resource.KindTransaction, n.ID())
	if err != nil {
		return nil, err
	}
	return resource.NewTransaction(obj), nil
}

// Subscription fetches the notified subscription. nil when the notification
// is not about a subscription.
func (n *Notification) Subscription(ctx context.Context) (*resource.Subscription, error) {
	if !n.IsSubscription() {
		return nil, nil
	}
	obj, err := n.client.Retrieve(ctx, resource.KindSubscription, n.ID())
	if err != nil {
		return nil, err
	}
	return resource.NewSubscription(obj), nil
}

// Authorization fetches the notified authorization. nil when the
// notification is not about an authorization.
func (n *Notification) Authorization(ctx context.Context) (*resource.Authorization, error) {
	if !n.IsAuthorization() {
		return nil, nil
	}
	obj, err := n.client.Retrieve(ctx, resource.KindAuthorization, n.ID())
	if err != nil {
		return nil, err
	}
	return resource.NewAuthorization(obj), nil
}

// Sale fetches the sale referenced by sale_id, whatever the notification
// type. nil when no sale_id was sent.
func (n *Notification) Sale(ctx context.Context) (*resource.Sale, error) {
	saleID, ok := n.SaleID()
	if !ok {
		return nil, nil
	}
	obj, err := n.client.Retrieve(ctx, resource.KindSale, saleID)
	if err != nil {
		return nil, err
	}
	return resource.NewSale(obj), nil
}
