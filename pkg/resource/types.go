package resource

// status codes shared by transactions and subscriptions
const (
	StatusDone      = "D"
	StatusCancelled = "C"
	StatusExpired   = "E"
	StatusPending   = "N"
)

// payable is the part of transactions and subscriptions that a customer
// is redirected to.
type payable struct {
	*Object
}

// PayURL is the hosted payment page for the customer.
func (p payable) PayURL() string {
	return p.String("pay_url")
}

// IframeURL is the embeddable variant of PayURL.
func (p payable) IframeURL() string {
	return p.String("iframe_url")
}

func (p payable) Status() string {
	return p.String("status")
}

func (p payable) IsPaid() bool {
	return p.Status() == StatusDone
}

type Transaction struct {
	payable
}

type Subscription struct {
	payable
}

type Authorization struct {
	*Object
}

func (a Authorization) Status() string {
	return a.String("status")
}

type Sale struct {
	*Object
}

// Action is the last action applied to the sale, e.g. "C" for capture.
func (s Sale) Action() string {
	return s.String("action")
}

// sale actions accepted by the API
const (
	SaleActionCapture = "capture"
	SaleActionRefund  = "refund"
	SaleActionVoid    = "void"
)

func NewTransaction(o *Object) *Transaction {
	return &Transaction{payable{o}}
}

func NewSubscription(o *Object) *Subscription {
	return &Subscription{payable{o}}
}

func NewAuthorization(o *Object) *Authorization {
	return &Authorization{o}
}

func NewSale(o *Object) *Sale {
	return &Sale{o}
}
