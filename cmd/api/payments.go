package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/domain/ads"
	"github.com/Gwonyeong/doll-backend/internal/domain/paymentsrepo"
	"github.com/Gwonyeong/doll-backend/internal/domain/storage"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
	"github.com/Gwonyeong/doll-backend/internal/payments"
)

type CreateAdPaymentPayload struct {
	StoreID     int64   `json:"store_id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Link        *string `json:"link" validate:"omitempty,url"`
	Days        int     `json:"days" validate:"required,min=1,max=90"`
}

type CheckoutResponse struct {
	PaymentID int64             `json:"payment_id"`
	OrderID   string            `json:"order_id"`
	AdID      int64             `json:"ad_id"`
	Amount    int64             `json:"amount"`
	Provider  string            `json:"provider"`
	Checkout  map[string]string `json:"checkout"`
}

// createAdPaymentHandler godoc
//
//	@Summary		Buy an ad
//	@Description	Creates an inactive ad and a pending payment, and returns what the Toss checkout widget needs.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateAdPaymentPayload	true	"Ad to buy"
//	@Success		201		{object}	CheckoutResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error	"Store not found"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/payments/ads [post]
func (app *application) createAdPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	user := getUserFromContext(r)

	var payload CreateAdPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Title = strings.TrimSpace(payload.Title)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.GetByID(ctx, payload.StoreID)
	if err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	orderID, err := app.orderNumbers.Generate(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	imageURL := ""
	if len(store.ImageURLs) > 0 {
		imageURL = store.ImageURLs[0]
	}

	payment := &paymentsrepo.Payment{
		OrderID:  orderID,
		UserID:   user.ID,
		Provider: payments.ProviderToss,
		Amount:   int64(payload.Days) * app.config.payment.adPricePerDay,
		Days:     payload.Days,
		Status:   paymentsrepo.StatusPending,
	}

	err = app.store.WithPaymentTx(ctx, func(s *storage.PaymentTx) error {
		ad, err := s.Ads.CreateAd(ctx, ads.CreateAdRequest{
			StoreID:     store.ID,
			Title:       payload.Title,
			Description: payload.Description,
			ImageURL:    imageURL,
			Link:        payload.Link,
			Active:      false,
		})
		if err != nil {
			return err
		}
		payment.AdID = ad.ID
		return s.Payments.Create(ctx, payment)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp, err := app.payments.InitiatePayment(ctx, payment.Provider, payments.PaymentRequest{
		OrderID:       payment.OrderID,
		Amount:        payment.Amount,
		ProductName:   fmt.Sprintf("%s ad (%d days)", store.Name, payment.Days),
		CustomerName:  user.Nickname,
		CustomerEmail: user.Email,
	})
	if err != nil {
		_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "error", map[string]string{"stage": "initiate", "error": err.Error()})
		app.internalServerError(w, r, fmt.Errorf("failed to initiate payment: %w", err))
		return
	}
	_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "request", resp.Data)

	if err := app.jsonResponse(w, http.StatusCreated, CheckoutResponse{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		AdID:      payment.AdID,
		Amount:    payment.Amount,
		Provider:  payment.Provider,
		Checkout:  resp.Data,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ConfirmPaymentPayload struct {
	PaymentKey string `json:"payment_key" validate:"required,max=200"`
	OrderID    string `json:"order_id" validate:"required,max=64"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

type ConfirmPaymentResponse struct {
	Status  string                `json:"status"` // paid, failed, pending
	State   string                `json:"state,omitempty"`
	Payment *paymentsrepo.Payment `json:"payment"`
}

// confirmPaymentHandler godoc
//
//	@Summary		Confirm a payment
//	@Description	Called by the app after the Toss widget redirects to the success URL. Confirms with Toss and activates the ad. Confirming a paid order again returns it unchanged.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ConfirmPaymentPayload	true	"Toss success redirect values"
//	@Success		200		{object}	ConfirmPaymentResponse
//	@Failure		400		{object}	ErrorBadRequestResponse	"Amount mismatch"
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Failure		502		{object}	error	"Provider unavailable"
//	@Security		ApiKeyAuth
//	@Router			/payments/confirm [post]
func (app *application) confirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	user := getUserFromContext(r)

	var payload ConfirmPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// 1) Load payment by order id
	payment, err := app.store.Payments.GetByOrderID(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, paymentsrepo.ErrPaymentNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if payment.UserID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	if payment.Status == paymentsrepo.StatusPaid {
		app.writeConfirmResponse(w, r, payment, "")
		return
	}

	// 2) The redirect amount can be tampered with
	if payload.Amount != payment.Amount {
		_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "error", map[string]any{
			"stage": "amount_check", "expected": payment.Amount, "got": payload.Amount,
		})
		app.badRequestResponse(w, r, errors.New("amount does not match the order"))
		return
	}

	_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "redirect", payload)

	// 3) Confirm with the provider
	ver, err := app.payments.VerifyPayment(ctx, payment.Provider, payments.PaymentVerifyRequest{
		OrderID: payment.OrderID,
		Amount:  payment.Amount,
		Data:    map[string]string{"payment_key": payload.PaymentKey},
	})
	if err != nil {
		app.logger.Errorw("payment confirm failed", "order_id", payment.OrderID, "error", err)
		_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "error", map[string]string{"stage": "confirm", "error": err.Error()})
		writeJSONError(w, http.StatusBadGateway, "payment provider unavailable, please retry")
		return
	}
	_ = app.store.PayLogs.InsertPaymentLog(ctx, payment.ID, "response", ver.Raw)

	// 4) Apply DB transitions
	activated := false
	err = app.store.WithPaymentTx(ctx, func(s *storage.PaymentTx) error {
		p, err := s.Payments.GetByOrderID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if p.Status == paymentsrepo.StatusPaid {
			return nil // idempotent
		}

		if ver.Success {
			if err := s.Payments.MarkPaid(ctx, p.ID, ver.ProviderRef, ver.Raw); err != nil {
				return err
			}
			now := time.Now()
			if err := s.Ads.Activate(ctx, p.AdID, now, now.AddDate(0, 0, p.Days)); err != nil {
				return err
			}
			activated = true
			return nil
		}

		if ver.Terminal {
			return s.Payments.SetStatus(ctx, p.ID, paymentsrepo.StatusFailed)
		}
		return nil
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	payment, err = app.store.Payments.GetByOrderID(ctx, payment.OrderID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if activated {
		app.notifyPayment(payment)
	}

	app.writeConfirmResponse(w, r, payment, ver.State)
}

func (app *application) writeConfirmResponse(w http.ResponseWriter, r *http.Request, p *paymentsrepo.Payment, state string) {
	resp := ConfirmPaymentResponse{Status: p.Status, State: state, Payment: p}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) notifyPayment(p *paymentsrepo.Payment) {
	if app.slack == nil {
		return
	}
	app.background(func(ctx context.Context) {
		storeName := "unknown store"
		if ad, err := app.store.Ads.GetAdByID(ctx, p.AdID); err == nil {
			if s, err := app.store.Stores.GetByID(ctx, ad.StoreID); err == nil {
				storeName = s.Name
			}
		}
		if err := app.slack.Notify(ctx, notifications.PaymentMessage(p.OrderID, p.Amount, storeName)); err != nil {
			app.logger.Warnw("slack notify failed", "error", err)
		}
	})
}
