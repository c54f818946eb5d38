package handlers

import (
	"net/http"
	"strings"

	"captzio/internal/service"
)

type checkoutRequest struct {
	PackageID string `json:"packageId"`
}

// webhookBody is the JSON Mercado Pago posts to the notification url.
type webhookBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (a *App) Packages(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Payments.Packages()})
}

func (a *App) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Payments.Checkout(r.Context(), currentAccount(r), req.PackageID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, res)
}

// MercadoPagoWebhook applies a gateway notification. Query parameters win
// over the body, matching both IPN and webhook deliveries.
func (a *App) MercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	var body webhookBody
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	n := service.Notification{
		Type:   firstNonEmpty(q.Get("type"), q.Get("topic"), body.Type),
		Action: body.Action,
		DataID: firstNonEmpty(q.Get("data.id"), q.Get("id"), body.Data.ID),
	}

	if err := a.Payments.VerifyWebhook(r.Header.Get("x-signature"), r.Header.Get("x-request-id"), n.DataID); err != nil {
		a.logger(r).Warn().Str("data_id", n.DataID).Msg("webhook signature rejected")
		a.fail(w, r, err)
		return
	}
	if err := a.Payments.HandleNotification(r.Context(), n); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
