package payments

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// PaymentGateway is one payment provider. InitiatePayment prepares checkout
// data for the client widget; VerifyPayment confirms the charge server side.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResponse, error)
}

// PaymentManager routes calls to the gateway registered for a provider.
type PaymentManager struct {
	mu       sync.RWMutex
	gateways map[string]PaymentGateway
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{gateways: make(map[string]PaymentGateway)}
}

func (m *PaymentManager) RegisterGateway(provider string, gateway PaymentGateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateways[provider] = gateway
}

// Providers lists registered provider names in order.
func (m *PaymentManager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.gateways))
	for name := range m.gateways {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *PaymentManager) gateway(provider string) (PaymentGateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gateway, ok := m.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("payment provider not registered: %s", provider)
	}
	return gateway, nil
}

func (m *PaymentManager) InitiatePayment(ctx context.Context, provider string, req PaymentRequest) (PaymentResponse, error) {
	gateway, err := m.gateway(provider)
	if err != nil {
		return PaymentResponse{}, err
	}
	return gateway.InitiatePayment(ctx, req)
}

func (m *PaymentManager) VerifyPayment(ctx context.Context, provider string, req PaymentVerifyRequest) (PaymentVerifyResponse, error) {
	gateway, err := m.gateway(provider)
	if err != nil {
		return PaymentVerifyResponse{}, err
	}
	return gateway.VerifyPayment(ctx, req)
}
