// Package zru is a client for the ZRU payments API.
//
//	client, err := zru.New(apiKey, secretKey, zru.Options{})
//	tx, err := client.Transaction.Create(ctx, map[string]any{"currency": "EUR", ...})
//
// Client also implements notification.ResourceClient, so webhook deliveries
// can be checked and resolved with client.Notification(payload).
package zru

import (
	"context"
	"fmt"
	"net/url"

	"github.com/zrupay/zru-go/pkg/notification"
	"github.com/zrupay/zru-go/pkg/resource"
)

// Client holds one Resource per API collection. It is safe for concurrent use.
type Client struct {
	request *APIRequest

	Product       *Resource
	Plan          *Resource
	Tax           *Resource
	Shipping      *Resource
	Coupon        *Resource
	Transaction   *Resource
	Subscription  *Resource
	Authorization *Resource
	Currency      *Resource
	Gateway       *Resource
	PayData       *Resource
	Sale          *Resource
	Client        *Resource
	Wallet        *Resource

	resources map[resource.Kind]*Resource
}

var _ notification.ResourceClient = (*Client)(nil)

func New(apiKey, secretKey string, opts Options) (*Client, error) {
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("zru: api key and secret key are required")
	}

	request, err := NewAPIRequest(apiKey, secretKey, opts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		request:   request,
		resources: map[resource.Kind]*Resource{},
	}
	for _, kind := range resource.Kinds() {
		c.resources[kind] = newResource(kind, request)
	}

	c.Product = c.resources[resource.KindProduct]
	c.Plan = c.resources[resource.KindPlan]
	c.Tax = c.resources[resource.KindTax]
	c.Shipping = c.resources[resource.KindShipping]
	c.Coupon = c.resources[resource.KindCoupon]
	c.Transaction = c.resources[resource.KindTransaction]
	c.Subscription = c.resources[resource.KindSubscription]
	c.Authorization = c.resources[resource.KindAuthorization]
	c.Currency = c.resources[resource.KindCurrency]
	c.Gateway = c.resources[resource.KindGateway]
	c.PayData = c.resources[resource.KindPayData]
	c.Sale = c.resources[resource.KindSale]
	c.Client = c.resources[resource.KindClient]
	c.Wallet = c.resources[resource.KindWallet]

	return c, nil
}

// Resource returns the endpoint of kind.
func (c *Client) Resource(kind resource.Kind) (*Resource, error) {
	r, ok := c.resources[kind]
	if !ok {
		return nil, fmt.Errorf("zru: unknown resource kind %q", kind)
	}
	return r, nil
}

// Retrieve fetches one object of any kind.
func (c *Client) Retrieve(ctx context.Context, kind resource.Kind, id string) (*resource.Object, error) {
	r, err := c.Resource(kind)
	if err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, id)
}

func (c *Client) SecretKey() string {
	return c.request.SecretKey()
}

// Notification wraps a webhook payload with this client.
func (c *Client) Notification(payload notification.Payload, opts ...notification.Option) *notification.Notification {
	return notification.New(payload, c, opts...)
}

func (c *Client) RetrieveTransaction(ctx context.Context, id string) (*resource.Transaction, error) {
	obj, err := c.Transaction.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	return resource.NewTransaction(obj), nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, id string) (*resource.Subscription, error) {
	obj, err := c.Subscription.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	return resource.NewSubscription(obj), nil
}

// CaptureSale captures the funds of a held sale.
func (c *Client) CaptureSale(ctx context.Context, id string) (*resource.Sale, error) {
	return c.saleAction(ctx, id, resource.SaleActionCapture)
}

func (c *Client) RefundSale(ctx context.Context, id string) (*resource.Sale, error) {
	return c.saleAction(ctx, id, resource.SaleActionRefund)
}

func (c *Client) VoidSale(ctx context.Context, id string) (*resource.Sale, error) {
	return c.saleAction(ctx, id, resource.SaleActionVoid)
}

func (c *Client) saleAction(ctx context.Context, id, action string) (*resource.Sale, error) {
	obj, err := c.Sale.Action(ctx, id, action, nil)
	if err != nil {
		return nil, err
	}
	return resource.NewSale(obj), nil
}

// Ping checks that the API answers with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Currency.List(ctx, url.Values{"limit": []string{"1"}})
	return err
}
