package resource

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind names a remote ZRU resource collection.
type Kind string

const (
	KindProduct       Kind = "product"
	KindPlan          Kind = "plan"
	KindTax           Kind = "tax"
	KindShipping      Kind = "shipping"
	KindCoupon        Kind = "coupon"
	KindTransaction   Kind = "transaction"
	KindSubscription  Kind = "subscription"
	KindAuthorization Kind = "authorization"
	KindCurrency      Kind = "currency"
	KindGateway       Kind = "gateway"
	KindPayData       Kind = "pay"
	KindSale          Kind = "sale"
	KindClient        Kind = "client"
	KindWallet        Kind = "wallet"
)

// Kinds returns every resource kind the API exposes.
func Kinds() []Kind {
	return []Kind{
		KindProduct,
		KindPlan,
		KindTax,
		KindShipping,
		KindCoupon,
		KindTransaction,
		KindSubscription,
		KindAuthorization,
		KindCurrency,
		KindGateway,
		KindPayData,
		KindSale,
		KindClient,
		KindWallet,
	}
}

// ParseKind converts a collection name like "sale" into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind: %q", s)
}

// Path is the collection route relative to the API base, e.g. "/sale/".
func (k Kind) Path() string {
	return "/" + string(k) + "/"
}

// ItemPath is the route of a single item, e.g. "/sale/<id>/". The id is
// escaped so it always stays one path segment.
func (k Kind) ItemPath(id string) string {
	return k.Path() + escapeSegment(id) + "/"
}

func escapeSegment(s string) string {
	escaped := url.PathEscape(s)
	if escaped == "." || escaped == ".." {
		return strings.ReplaceAll(escaped, ".", "%2E")
	}
	return escaped
}

func (k Kind) String() string {
	return string(k)
}
