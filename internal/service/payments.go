package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/providers/payment"
)

type PaymentServiceConfig struct {
	PublicURL     string
	FrontendURL   string
	WebhookSecret string
}

// CheckoutResult tells the client where to pay.
type CheckoutResult struct {
	TransactionID string `json:"transactionId"`
	PreferenceID  string `json:"preferenceId"`
	RedirectURL   string `json:"redirectUrl"`
}

// Notification is the relevant part of a gateway webhook.
type Notification struct {
	Type   string
	Action string
	DataID string
}

// PaymentService sells credit packages and applies gateway notifications.
type PaymentService struct {
	repos   domain.Repositories
	tx      domain.TxManager
	gateway payment.Gateway
	cfg     PaymentServiceConfig
	logger  infra.Logger
}

func NewPaymentService(repos domain.Repositories, tx domain.TxManager, gateway payment.Gateway, cfg PaymentServiceConfig, logger infra.Logger) *PaymentService {
	return &PaymentService{
		repos:   repos,
		tx:      tx,
		gateway: gateway,
		cfg:     cfg,
		logger:  infra.Component(logger, "payments"),
	}
}

// Packages lists the purchasable credit bundles.
func (s *PaymentService) Packages() []domain.CreditPackage {
	return domain.CreditPackages()
}

// Checkout records a pending purchase and opens a gateway checkout for it.
func (s *PaymentService) Checkout(ctx context.Context, account *domain.Account, packageID string) (*CheckoutResult, error) {
	if account == nil {
		return nil, domain.ErrUnauthorized
	}
	pkg, ok := domain.FindCreditPackage(strings.TrimSpace(packageID))
	if !ok {
		return nil, &domain.ValidationError{Field: "packageId", Reason: "unknown package"}
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: payments are not configured", domain.ErrProviderFailure)
	}

	txn := &domain.Transaction{
		ID:        uuid.NewString(),
		OwnerID:   account.ID,
		PackageID: pkg.ID,
		Amount:    pkg.Price,
		Currency:  pkg.Currency,
		Credits:   pkg.Credits,
		Status:    domain.TransactionPending,
	}
	if err := s.repos.Transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	billing := strings.TrimRight(s.cfg.FrontendURL, "/") + "/billing"
	pref, err := s.gateway.CreatePreference(ctx, payment.PreferenceRequest{
		ExternalReference: txn.ID,
		Title:             fmt.Sprintf("%s (%d credits)", pkg.Title, pkg.Credits),
		Quantity:          1,
		UnitPrice:         pkg.Price,
		Currency:          pkg.Currency,
		PayerEmail:        account.Email,
		NotificationURL:   strings.TrimRight(s.cfg.PublicURL, "/") + "/v1/webhooks/mercadopago",
		SuccessURL:        billing + "?status=success",
		FailureURL:        billing + "?status=failure",
		PendingURL:        billing + "?status=pending",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("transaction_id", txn.ID).Msg("checkout preference failed")
		if _, terr := s.repos.Transactions.Transition(ctx, txn.ID, domain.TransactionPending, domain.TransactionFailed, "", ""); terr != nil {
			s.logger.Error().Err(terr).Str("transaction_id", txn.ID).Msg("could not fail transaction")
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	if err := s.repos.Transactions.SetPreference(ctx, txn.ID, pref.ID); err != nil {
		return nil, fmt.Errorf("store preference: %w", err)
	}

	return &CheckoutResult{TransactionID: txn.ID, PreferenceID: pref.ID, RedirectURL: pref.RedirectURL}, nil
}

// VerifyWebhook checks the gateway signature when a secret is configured.
func (s *PaymentService) VerifyWebhook(signature, requestID, dataID string) error {
	if s.cfg.WebhookSecret == "" {
		return nil
	}
	return payment.VerifySignature(s.cfg.WebhookSecret, signature, requestID, dataID)
}

// HandleNotification applies a payment notification. Unrelated topics,
// unknown references and replays are no-ops.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) error {
	if !isPaymentTopic(n) || strings.TrimSpace(n.DataID) == "" {
		return nil
	}
	if s.gateway == nil {
		return fmt.Errorf("%w: payments are not configured", domain.ErrProviderFailure)
	}
	p, err := s.gateway.GetPayment(ctx, n.DataID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	log := s.logger.With().Str("payment_id", p.ID).Str("transaction_id", p.ExternalReference).Str("status", p.Status).Logger()

	txn, err := s.repos.Transactions.Get(ctx, p.ExternalReference)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Msg("payment references unknown transaction")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	switch payment.MapStatus(p.Status) {
	case domain.TransactionApproved:
		if !p.Amount.IsZero() && p.Amount.LessThan(txn.Amount) {
			log.Error().Str("paid", p.Amount.String()).Str("expected", txn.Amount.String()).Msg("underpaid, credits withheld")
			return nil
		}
		return s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
			moved, err := repos.Transactions.Transition(ctx, txn.ID, domain.TransactionPending, domain.TransactionApproved, p.ID, p.Method)
			if err != nil || !moved {
				return err
			}
			balance, err := repos.Accounts.Credit(ctx, txn.OwnerID, txn.Credits)
			if err != nil {
				return fmt.Errorf("grant credits: %w", err)
			}
			log.Info().Int("credits", txn.Credits).Int("balance", balance).Msg("purchase approved")
			return nil
		})
	case domain.TransactionFailed:
		moved, err := s.repos.Transactions.Transition(ctx, txn.ID, domain.TransactionPending, domain.TransactionFailed, p.ID, p.Method)
		if err == nil && moved {
			log.Info().Msg("purchase failed")
		}
		return err
	case domain.TransactionRefunded:
		return s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
			moved, err := repos.Transactions.Transition(ctx, txn.ID, domain.TransactionApproved, domain.TransactionRefunded, p.ID, p.Method)
			if err != nil || !moved {
				return err
			}
			balance, err := repos.Accounts.DebitClamped(ctx, txn.OwnerID, txn.Credits)
			if err != nil {
				return fmt.Errorf("revoke credits: %w", err)
			}
			log.Info().Int("credits", txn.Credits).Int("balance", balance).Msg("purchase refunded")
			return nil
		})
	default:
		log.Debug().Msg("payment still in flight")
		return nil
	}
}

func isPaymentTopic(n Notification) bool {
	return strings.EqualFold(n.Type, "payment") || strings.HasPrefix(strings.ToLower(n.Action), "payment.")
}
