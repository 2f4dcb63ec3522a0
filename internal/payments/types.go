package payments

type PaymentRequest struct {
	OrderID       string
	Amount        int64 // KRW
	ProductName   string
	CustomerName  string
	CustomerEmail string
}

type PaymentResponse struct {
	PaymentURL string
	Data       map[string]string // fields the client passes to the checkout widget
}

type PaymentVerifyRequest struct {
	OrderID string
	Amount  int64
	Data    map[string]string // provider specific, e.g. paymentKey
}

type PaymentVerifyResponse struct {
	Success     bool
	State       string
	Terminal    bool
	ProviderRef string
	Raw         map[string]any
}
