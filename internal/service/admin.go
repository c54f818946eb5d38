package service

import (
	"context"
	"fmt"

	"captzio/internal/domain"
	"captzio/internal/infra"
)

// AdminService exposes operator actions. Every method requires a privileged
// caller.
type AdminService struct {
	repos  domain.Repositories
	policy domain.PrivilegePolicy
	logger infra.Logger
}

func NewAdminService(repos domain.Repositories, policy domain.PrivilegePolicy, logger infra.Logger) *AdminService {
	return &AdminService{repos: repos, policy: policy, logger: infra.Component(logger, "admin")}
}

func (s *AdminService) authorize(caller *domain.Account) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if !s.policy.IsPrivileged(caller) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *AdminService) ListAccounts(ctx context.Context, caller *domain.Account, limit, offset int) ([]domain.Account, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.repos.Accounts.List(ctx, limit, offset)
}

// AdjustCredits applies a signed delta; negative deltas stop at zero.
func (s *AdminService) AdjustCredits(ctx context.Context, caller *domain.Account, accountID string, delta int) (int, error) {
	if err := s.authorize(caller); err != nil {
		return 0, err
	}
	if delta == 0 {
		return 0, &domain.ValidationError{Field: "delta", Reason: "must not be zero"}
	}
	var (
		balance int
		err     error
	)
	if delta > 0 {
		balance, err = s.repos.Accounts.Credit(ctx, accountID, delta)
	} else {
		balance, err = s.repos.Accounts.DebitClamped(ctx, accountID, -delta)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust credits: %w", err)
	}
	s.logger.Info().Str("admin_id", caller.ID).Str("account_id", accountID).Int("delta", delta).Int("balance", balance).Msg("credits adjusted")
	return balance, nil
}

func (s *AdminService) SetRole(ctx context.Context, caller *domain.Account, accountID string, role domain.Role) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if !role.Valid() {
		return &domain.ValidationError{Field: "role", Reason: "must be user or admin"}
	}
	if err := s.repos.Accounts.SetRole(ctx, accountID, role); err != nil {
		return err
	}
	s.logger.Info().Str("admin_id", caller.ID).Str("account_id", accountID).Str("role", string(role)).Msg("role changed")
	return nil
}

func (s *AdminService) ListTransactions(ctx context.Context, caller *domain.Account, limit, offset int) ([]domain.Transaction, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.repos.Transactions.List(ctx, limit, offset)
}

func (s *AdminService) Stats(ctx context.Context, caller *domain.Account) (*domain.Stats, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	return s.repos.Stats.Summary(ctx)
}
