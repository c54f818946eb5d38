package handlers

import (
	"context"
	"net/http"
	"time"

	"captzio/internal/domain"
	"captzio/internal/middleware"
)

type accountKey struct{}

type meResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Credits    int       `json:"credits"`
	Role       string    `json:"role"`
	Privileged bool      `json:"privileged"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RequireAccount resolves the authenticated identity into an account,
// creating it on first use. It must run after middleware.AuthJWT.
func (a *App) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
			return
		}
		account, err := a.Accounts.Resolve(r.Context(), identity)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, account)))
	})
}

func currentAccount(r *http.Request) *domain.Account {
	account, _ := r.Context().Value(accountKey{}).(*domain.Account)
	return account
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	if account == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, meResponse{
		ID:         account.ID,
		Email:      account.Email,
		Name:       account.DisplayName,
		Credits:    account.Credits,
		Role:       string(account.Role),
		Privileged: a.Accounts.IsPrivileged(account),
		CreatedAt:  account.CreatedAt,
	})
}
