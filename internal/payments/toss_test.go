package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToss(t *testing.T, h http.HandlerFunc) *TossAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	toss := NewTossAdapter("ck_test", "sk_test", "https://app/success", "https://app/fail")
	toss.BaseURL = srv.URL
	return toss
}

func TestToss_InitiateReturnsCheckoutData(t *testing.T) {
	toss := NewTossAdapter("ck_test", "sk_test", "https://app/success", "https://app/fail")

	res, err := toss.InitiatePayment(context.Background(), PaymentRequest{
		OrderID: "DOLL-abc", Amount: 33000, ProductName: "Store ad (30 days)",
	})

	require.NoError(t, err)
	assert.Equal(t, "ck_test", res.Data["client_key"])
	assert.Equal(t, "DOLL-abc", res.Data["order_id"])
	assert.Equal(t, "33000", res.Data["amount"])
	assert.Equal(t, "https://app/fail", res.Data["fail_url"])
}

func TestToss_InitiateRejectsEmptyOrder(t *testing.T) {
	toss := NewTossAdapter("ck", "sk", "", "")

	_, err := toss.InitiatePayment(context.Background(), PaymentRequest{Amount: 100})

	assert.Error(t, err)
}

func TestToss_ConfirmDone(t *testing.T) {
	toss := newTestToss(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test:"))
		assert.Equal(t, want, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pk_1", body["paymentKey"])
		assert.Equal(t, "DOLL-1", body["orderId"])
		assert.EqualValues(t, 33000, body["amount"])

		_, _ = w.Write([]byte(`{"paymentKey":"pk_1","orderId":"DOLL-1","status":"DONE","totalAmount":33000}`))
	})

	res, err := toss.VerifyPayment(context.Background(), PaymentVerifyRequest{
		OrderID: "DOLL-1", Amount: 33000, Data: map[string]string{"payment_key": "pk_1"},
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Terminal)
	assert.Equal(t, "DONE", res.State)
	assert.Equal(t, "pk_1", res.ProviderRef)
}

func TestToss_ConfirmRejected(t *testing.T) {
	toss := newTestToss(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"limit exceeded"}`))
	})

	res, err := toss.VerifyPayment(context.Background(), PaymentVerifyRequest{
		OrderID: "DOLL-1", Amount: 33000, Data: map[string]string{"payment_key": "pk_1"},
	})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.Terminal)
	assert.Equal(t, "REJECT_CARD_PAYMENT", res.State)
}

func TestToss_ConfirmAmountMismatchIsNotSuccess(t *testing.T) {
	toss := newTestToss(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"paymentKey":"pk_1","orderId":"DOLL-1","status":"DONE","totalAmount":100}`))
	})

	res, err := toss.VerifyPayment(context.Background(), PaymentVerifyRequest{
		OrderID: "DOLL-1", Amount: 33000, Data: map[string]string{"payment_key": "pk_1"},
	})

	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestToss_ConfirmRequiresPaymentKey(t *testing.T) {
	toss := NewTossAdapter("ck", "sk", "", "")

	_, err := toss.VerifyPayment(context.Background(), PaymentVerifyRequest{OrderID: "DOLL-1", Amount: 1})

	assert.Error(t, err)
}

func TestPaymentManager_UnknownGateway(t *testing.T) {
	m := NewPaymentManager()
	m.RegisterGateway(ProviderToss, NewTossAdapter("ck", "sk", "", ""))
	assert.Equal(t, []string{ProviderToss}, m.Providers())

	_, err := m.InitiatePayment(context.Background(), "kakao", PaymentRequest{OrderID: "x", Amount: 1})
	assert.Error(t, err)

	_, err = m.InitiatePayment(context.Background(), ProviderToss, PaymentRequest{OrderID: "x", Amount: 1})
	assert.NoError(t, err)
}
