package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"captzio/internal/domain"
)

type accountDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Credits   int       `json:"credits"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type transactionDTO struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"accountId"`
	PackageID         string    `json:"packageId"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	Credits           int       `json:"credits"`
	Status            string    `json:"status"`
	ExternalReference string    `json:"externalReference,omitempty"`
	Method            string    `json:"method,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (a *App) AdminAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.Admin.ListAccounts(r.Context(), currentAccount(r), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]accountDTO, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, accountDTO{
			ID:        acc.ID,
			Email:     acc.Email,
			Name:      acc.DisplayName,
			Credits:   acc.Credits,
			Role:      string(acc.Role),
			CreatedAt: acc.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) AdminAdjustCredits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	balance, err := a.Admin.AdjustCredits(r.Context(), currentAccount(r), id, req.Delta)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"accountId": id, "credits": balance})
}

func (a *App) AdminSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Admin.SetRole(r.Context(), currentAccount(r), chi.URLParam(r, "id"), domain.Role(req.Role)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) AdminTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := a.Admin.ListTransactions(r.Context(), currentAccount(r), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]transactionDTO, 0, len(txns))
	for _, t := range txns {
		items = append(items, transactionDTO{
			ID:                t.ID,
			AccountID:         t.OwnerID,
			PackageID:         t.PackageID,
			Amount:            t.Amount.StringFixed(2),
			Currency:          t.Currency,
			Credits:           t.Credits,
			Status:            string(t.Status),
			ExternalReference: t.ExternalReference,
			Method:            t.Method,
			CreatedAt:         t.CreatedAt,
			UpdatedAt:         t.UpdatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
