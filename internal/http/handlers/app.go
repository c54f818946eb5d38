package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/service"
)

const maxBodyBytes = 1 << 20

// AccountResolver maps the authenticated identity onto an account.
type AccountResolver interface {
	Resolve(ctx context.Context, id domain.Identity) (*domain.Account, error)
	IsPrivileged(a *domain.Account) bool
}

type ImageJobs interface {
	Submit(ctx context.Context, account *domain.Account, req service.ImageRequest) (string, error)
	GetStatus(ctx context.Context, jobID, ownerID string) (domain.JobSnapshot, error)
	ListJobs(ctx context.Context, ownerID string, limit int) ([]domain.GenerationJob, error)
}

type Captions interface {
	Generate(ctx context.Context, account *domain.Account, params service.CaptionParams) (*service.CaptionResult, error)
	ListCaptions(ctx context.Context, ownerID string, limit int) ([]domain.CaptionRecord, error)
}

type Payments interface {
	Packages() []domain.CreditPackage
	Checkout(ctx context.Context, account *domain.Account, packageID string) (*service.CheckoutResult, error)
	VerifyWebhook(signature, requestID, dataID string) error
	HandleNotification(ctx context.Context, n service.Notification) error
}

type Admin interface {
	ListAccounts(ctx context.Context, caller *domain.Account, limit, offset int) ([]domain.Account, error)
	AdjustCredits(ctx context.Context, caller *domain.Account, accountID string, delta int) (int, error)
	SetRole(ctx context.Context, caller *domain.Account, accountID string, role domain.Role) error
	ListTransactions(ctx context.Context, caller *domain.Account, limit, offset int) ([]domain.Transaction, error)
	Stats(ctx context.Context, caller *domain.Account) (*domain.Stats, error)
}

// App carries the services the HTTP handlers call into.
type App struct {
	Accounts AccountResolver
	Images   ImageJobs
	Captions Captions
	Payments Payments
	Admin    Admin
	Logger   infra.Logger
	// Ping reports database health; nil skips the check.
	Ping func(ctx context.Context) error
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.errorWith(w, code, errCode, message, nil)
}

func (a *App) errorWith(w http.ResponseWriter, code int, errCode, message string, extra map[string]any) {
	body := map[string]any{"code": errCode, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	a.json(w, code, map[string]any{"error": body})
}

// fail translates service errors into HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *domain.ValidationError
		credits *domain.InsufficientCreditsError
		limited *domain.RateLimitError
	)
	switch {
	case errors.As(err, &verr):
		a.errorWith(w, http.StatusBadRequest, "validation_error", verr.Error(), map[string]any{"field": verr.Field})
	case errors.As(err, &credits):
		a.errorWith(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits", map[string]any{
			"required":  credits.Required,
			"available": credits.Available,
		})
	case errors.As(err, &limited):
		wait := time.Until(limited.ResetAt)
		if wait < time.Second {
			wait = time.Second
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		a.errorWith(w, http.StatusTooManyRequests, "rate_limited", "too many caption requests", map[string]any{
			"resetAt": limited.ResetAt.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrInvalidSignature):
		a.error(w, http.StatusUnauthorized, "invalid_signature", "signature mismatch")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "admin only")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrProviderFailure):
		a.logger(r).Error().Err(err).Msg("provider failure")
		a.error(w, http.StatusInternalServerError, "generation_failed", "generation failed")
	default:
		a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) logger(r *http.Request) *infra.Logger {
	if l := infra.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return &a.Logger
}

// decode reads a JSON body; an empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return &domain.ValidationError{Reason: "invalid JSON body"}
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
