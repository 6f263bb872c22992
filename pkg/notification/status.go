package notification

// Type says which resource a notification is about.
type Type string

const (
	TypeTransaction   Type = "P"
	TypeSubscription  Type = "S"
	TypeAuthorization Type = "A"
)

// Status is the payment status of the notified resource.
type Status string

const (
	StatusDone      Status = "D"
	StatusCancelled Status = "C"
	StatusExpired   Status = "E"
	StatusPending   Status = "N"
)

// SubscriptionStatus is the state of a notified subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusWaiting SubscriptionStatus = "W"
	SubscriptionStatusActive  SubscriptionStatus = "A"
	SubscriptionStatusPaused  SubscriptionStatus = "P"
	SubscriptionStatusStopped SubscriptionStatus = "S"
)

// AuthorizationStatus is the state of a notified card authorization.
type AuthorizationStatus string

const (
	AuthorizationStatusActive  AuthorizationStatus = "A"
	AuthorizationStatusRemoved AuthorizationStatus = "R"
)

// SaleAction is the operation that produced a sale notification.
type SaleAction string

const (
	SaleGet            SaleAction = "G"
	SaleHold           SaleAction = "H"
	SaleVoid           SaleAction = "V"
	SaleCapture        SaleAction = "C"
	SaleRefund         SaleAction = "R"
	SaleSettle         SaleAction = "S"
	SaleEscrowRejected SaleAction = "E"
	SaleError          SaleAction = "I"
)

// payload field names
const (
	FieldID                  = "id"
	FieldType                = "type"
	FieldStatus              = "status"
	FieldSubscriptionStatus  = "subscription_status"
	FieldAuthorizationStatus = "authorization_status"
	FieldSaleID              = "sale_id"
	FieldSaleAction          = "sale_action"
	FieldSignature           = "signature"
	FieldFail                = "fail"
)

// codeIs reports whether field holds exactly the string code. Absent, null
// and non-string values never match.
func (n *Notification) codeIs(field, code string) bool {
	v, ok := n.payload[field]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == code
}

// IsTransaction reports whether the notification is about a transaction.
func (n *Notification) IsTransaction() bool {
	return n.codeIs(FieldType, string(TypeTransaction))
}

// IsSubscription reports whether the notification is about a subscription.
func (n *Notification) IsSubscription() bool {
	return n.codeIs(FieldType, string(TypeSubscription))
}

// IsAuthorization reports whether the notification is about an authorization.
func (n *Notification) IsAuthorization() bool {
	return n.codeIs(FieldType, string(TypeAuthorization))
}

// IsStatusDone reports whether status is StatusDone.
func (n *Notification) IsStatusDone() bool {
	return n.codeIs(FieldStatus, string(StatusDone))
}

// IsStatusCancelled reports whether status is StatusCancelled.
func (n *Notification) IsStatusCancelled() bool {
	return n.codeIs(FieldStatus, string(StatusCancelled))
}

// IsStatusExpired reports whether status is StatusExpired.
func (n *Notification) IsStatusExpired() bool {
	return n.codeIs(FieldStatus, string(StatusExpired))
}

// IsStatusPending reports whether status is StatusPending.
func (n *Notification) IsStatusPending() bool {
	return n.codeIs(FieldStatus, string(StatusPending))
}

// IsSubscriptionWaiting reports whether subscription_status is SubscriptionStatusWaiting.
func (n *Notification) IsSubscriptionWaiting() bool {
	return n.codeIs(FieldSubscriptionStatus, string(SubscriptionStatusWaiting))
}

// IsSubscriptionActive reports whether subscription_status is SubscriptionStatusActive.
func (n *Notification) IsSubscriptionActive() bool {
	return n.codeIs(FieldSubscriptionStatus, string(SubscriptionStatusActive))
}

// IsSubscriptionPaused reports whether subscription_status is SubscriptionStatusPaused.
func (n *Notification) IsSubscriptionPaused() bool {
	return n.codeIs(FieldSubscriptionStatus, string(SubscriptionStatusPaused))
}

// IsSubscriptionStopped reports whether subscription_status is SubscriptionStatusStopped.
func (n *Notification) IsSubscriptionStopped() bool {
	return n.codeIs(FieldSubscriptionStatus, string(SubscriptionStatusStopped))
}

// IsAuthorizationActive reports whether authorization_status is AuthorizationStatusActive.
func (n *Notification) IsAuthorizationActive() bool {
	return n.codeIs(FieldAuthorizationStatus, string(AuthorizationStatusActive))
}

// IsAuthorizationRemoved reports whether authorization_status is AuthorizationStatusRemoved.
func (n *Notification) IsAuthorizationRemoved() bool {
	return n.codeIs(FieldAuthorizationStatus, string(AuthorizationStatusRemoved))
}

// IsSaleGet reports whether sale_action is SaleGet.
func (n *Notification) IsSaleGet() bool {
	return n.codeIs(FieldSaleAction, string(SaleGet))
}

// IsSaleHold reports whether sale_action is SaleHold.
func (n *Notification) IsSaleHold() bool {
	return n.codeIs(FieldSaleAction, string(SaleHold))
}

// IsSaleVoid reports whether sale_action is SaleVoid.
func (n *Notification) IsSaleVoid() bool {
	return n.codeIs(FieldSaleAction, string(SaleVoid))
}

// IsSaleCapture reports whether sale_action is SaleCapture.
func (n *Notification) IsSaleCapture() bool {
	return n.codeIs(FieldSaleAction, string(SaleCapture))
}

// IsSaleRefund reports whether sale_action is SaleRefund.
func (n *Notification) IsSaleRefund() bool {
	return n.codeIs(FieldSaleAction, string(SaleRefund))
}

// IsSaleSettle reports whether sale_action is SaleSettle.
func (n *Notification) IsSaleSettle() bool {
	return n.codeIs(FieldSaleAction, string(SaleSettle))
}

// IsSaleEscrowRejected reports whether sale_action is SaleEscrowRejected.
func (n *Notification) IsSaleEscrowRejected() bool {
	return n.codeIs(FieldSaleAction, string(SaleEscrowRejected))
}

// IsSaleError reports whether sale_action is SaleError.
func (n *Notification) IsSaleError() bool {
	return n.codeIs(FieldSaleAction, string(SaleError))
}
