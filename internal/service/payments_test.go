package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captzio/internal/domain"
	"captzio/internal/providers/payment"
)

func newPaymentFixture(t *testing.T) (*memStore, *stubGateway, *PaymentService) {
	t.Helper()
	store := newMemStore()
	gw := &stubGateway{
		pref:     &payment.Preference{ID: "pref-1", RedirectURL: "https://mp.test/pay"},
		payments: map[string]*payment.Payment{},
	}
	svc := NewPaymentService(store.repos(), store, gw, PaymentServiceConfig{
		PublicURL:   "https://api.captzio.test/",
		FrontendURL: "https://app.captzio.test",
	}, testLogger)
	return store, gw, svc
}

func TestCheckoutCreatesPendingTransaction(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	account := fakeAccount(t, store, 0)

	res, err := svc.Checkout(context.Background(), account, "creator")
	require.NoError(t, err)
	assert.Equal(t, "pref-1", res.PreferenceID)
	assert.Equal(t, "https://mp.test/pay", res.RedirectURL)

	txn := store.transactions[res.TransactionID]
	assert.Equal(t, domain.TransactionPending, txn.Status)
	assert.Equal(t, 100, txn.Credits)
	assert.Equal(t, "pref-1", txn.PreferenceID)
	assert.Equal(t, res.TransactionID, gw.lastPref.ExternalReference)
	assert.Equal(t, "https://api.captzio.test/v1/webhooks/mercadopago", gw.lastPref.NotificationURL)
	assert.True(t, decimal.RequireFromString("39.90").Equal(gw.lastPref.UnitPrice))
}

func TestCheckoutUnknownPackage(t *testing.T) {
	store, _, svc := newPaymentFixture(t)
	_, err := svc.Checkout(context.Background(), fakeAccount(t, store, 0), "platinum")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCheckoutGatewayFailureFailsTransaction(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	gw.pref, gw.prefErr = nil, errors.New("gateway down")

	_, err := svc.Checkout(context.Background(), fakeAccount(t, store, 0), "starter")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	for _, txn := range store.transactions {
		assert.Equal(t, domain.TransactionFailed, txn.Status)
	}
}

func TestApprovedPaymentGrantsCreditsOnce(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	account := fakeAccount(t, store, 2)
	res, err := svc.Checkout(context.Background(), account, "starter")
	require.NoError(t, err)

	gw.payments["555"] = &payment.Payment{ID: "555", Status: "approved", ExternalReference: res.TransactionID, Method: "pix", Amount: decimal.RequireFromString("9.90")}
	n := Notification{Type: "payment", DataID: "555"}

	require.NoError(t, svc.HandleNotification(context.Background(), n))
	require.NoError(t, svc.HandleNotification(context.Background(), n))

	assert.Equal(t, 22, store.balance(account.ID))
	txn := store.transactions[res.TransactionID]
	assert.Equal(t, domain.TransactionApproved, txn.Status)
	assert.Equal(t, "555", txn.ExternalReference)
	assert.Equal(t, "pix", txn.Method)
}

func TestRefundedPaymentRevokesCreditsClamped(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	account := fakeAccount(t, store, 0)
	res, err := svc.Checkout(context.Background(), account, "starter")
	require.NoError(t, err)

	gw.payments["1"] = &payment.Payment{ID: "1", Status: "approved", ExternalReference: res.TransactionID}
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Action: "payment.updated", DataID: "1"}))
	assert.Equal(t, 20, store.balance(account.ID))

	_, err = store.repos().Accounts.Debit(context.Background(), account.ID, 15)
	require.NoError(t, err)

	gw.payments["1"].Status = "charged_back"
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "payment", DataID: "1"}))
	assert.Equal(t, 0, store.balance(account.ID))
	assert.Equal(t, domain.TransactionRefunded, store.transactions[res.TransactionID].Status)
}

func TestRejectedPaymentFailsTransaction(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	account := fakeAccount(t, store, 0)
	res, err := svc.Checkout(context.Background(), account, "agency")
	require.NoError(t, err)

	gw.payments["9"] = &payment.Payment{ID: "9", Status: "rejected", ExternalReference: res.TransactionID}
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "payment", DataID: "9"}))
	assert.Equal(t, domain.TransactionFailed, store.transactions[res.TransactionID].Status)
	assert.Equal(t, 0, store.balance(account.ID))

	// a late approval cannot resurrect a failed purchase
	gw.payments["9"].Status = "approved"
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "payment", DataID: "9"}))
	assert.Equal(t, 0, store.balance(account.ID))
}

func TestUnderpaidApprovalWithheld(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	account := fakeAccount(t, store, 0)
	res, err := svc.Checkout(context.Background(), account, "agency")
	require.NoError(t, err)

	gw.payments["7"] = &payment.Payment{ID: "7", Status: "approved", ExternalReference: res.TransactionID, Amount: decimal.RequireFromString("1.00")}
	require.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "payment", DataID: "7"}))
	assert.Equal(t, 0, store.balance(account.ID))
	assert.Equal(t, domain.TransactionPending, store.transactions[res.TransactionID].Status)
}

func TestNotificationIgnoresOtherTopicsAndUnknownReferences(t *testing.T) {
	store, gw, svc := newPaymentFixture(t)
	gw.fetchErr = errors.New("must not be called")
	assert.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "merchant_order", DataID: "1"}))

	gw.fetchErr = nil
	gw.payments["2"] = &payment.Payment{ID: "2", Status: "approved", ExternalReference: "not-ours"}
	assert.NoError(t, svc.HandleNotification(context.Background(), Notification{Type: "payment", DataID: "2"}))
	assert.Empty(t, store.transactions)
}

func TestVerifyWebhookOnlyWithSecret(t *testing.T) {
	_, _, svc := newPaymentFixture(t)
	assert.NoError(t, svc.VerifyWebhook("", "", ""))

	svc.cfg.WebhookSecret = "hook-secret"
	assert.ErrorIs(t, svc.VerifyWebhook("ts=1,v1=deadbeef", "req", "1"), domain.ErrInvalidSignature)
	good := "ts=1,v1=" + payment.Sign("hook-secret", "req", "1", "1")
	assert.NoError(t, svc.VerifyWebhook(good, "req", "1"))
}
