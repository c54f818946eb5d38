package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"captzio/internal/domain"
	"captzio/internal/infra"
)

// AccountService maps authenticated identities onto credit accounts.
type AccountService struct {
	accounts      domain.AccountRepository
	policy        domain.PrivilegePolicy
	signupCredits int
	logger        infra.Logger
}

func NewAccountService(accounts domain.AccountRepository, policy domain.PrivilegePolicy, signupCredits int, logger infra.Logger) *AccountService {
	return &AccountService{
		accounts:      accounts,
		policy:        policy,
		signupCredits: signupCredits,
		logger:        infra.Component(logger, "accounts"),
	}
}

// Resolve returns the caller's account, creating it with the signup grant on
// first sight.
func (s *AccountService) Resolve(ctx context.Context, id domain.Identity) (*domain.Account, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return nil, domain.ErrUnauthorized
	}
	account, err := s.accounts.GetByID(ctx, id.UserID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load account: %w", err)
	}

	account, err = s.accounts.Create(ctx, &domain.Account{
		ID:          id.UserID,
		Email:       strings.TrimSpace(id.Email),
		DisplayName: strings.TrimSpace(id.Name),
		Credits:     s.signupCredits,
		Role:        domain.RoleUser,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info().Str("account_id", account.ID).Int("credits", account.Credits).Msg("account created")
	return account, nil
}

// IsPrivileged reports whether the account skips credit checks.
func (s *AccountService) IsPrivileged(a *domain.Account) bool {
	return s.policy.IsPrivileged(a)
}
