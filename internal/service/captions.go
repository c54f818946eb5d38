package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/providers/text"
	"captzio/internal/ratelimit"
)

type CaptionServiceConfig struct {
	Cost        int
	RateLimit   int
	RateWindow  time.Duration
	HistorySize int
}

// CaptionResult is what a caller receives after a paid caption generation.
type CaptionResult struct {
	Record           *domain.CaptionRecord
	Variants         []domain.CaptionVariant
	CreditsUsed      int
	CreditsRemaining int
}

// CaptionService generates captions synchronously.
type CaptionService struct {
	repos     domain.Repositories
	tx        domain.TxManager
	policy    domain.PrivilegePolicy
	generator text.Generator
	limiter   ratelimit.Limiter
	cfg       CaptionServiceConfig
	logger    infra.Logger
}

func NewCaptionService(repos domain.Repositories, tx domain.TxManager, policy domain.PrivilegePolicy, generator text.Generator, limiter ratelimit.Limiter, cfg CaptionServiceConfig, logger infra.Logger) *CaptionService {
	return &CaptionService{
		repos:     repos,
		tx:        tx,
		policy:    policy,
		generator: generator,
		limiter:   limiter,
		cfg:       cfg,
		logger:    infra.Component(logger, "captions"),
	}
}

// Generate rate limits, validates, charges and persists one caption request.
// The record insert and the debit commit together or not at all.
func (s *CaptionService) Generate(ctx context.Context, account *domain.Account, params CaptionParams) (*CaptionResult, error) {
	if account == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := s.admit(ctx, account.ID); err != nil {
		return nil, err
	}
	if err := params.normalize(); err != nil {
		return nil, err
	}

	cost := s.cfg.Cost
	if s.policy.IsPrivileged(account) {
		cost = 0
	}
	if cost > 0 {
		current, err := s.repos.Accounts.GetByID(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("load balance: %w", err)
		}
		if current.Credits < cost {
			return nil, &domain.InsufficientCreditsError{Required: cost, Available: current.Credits}
		}
	}

	out, err := s.generator.GenerateCaptions(ctx, text.CaptionRequest{
		Description: params.Description,
		Tone:        params.Tone,
		Platform:    params.Platform,
		Goal:        params.Goal,
		Variations:  params.Variations,
		Locale:      params.Locale,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", account.ID).Msg("caption provider failed")
		return nil, err
	}
	if out == nil || len(out.Variants) == 0 {
		return nil, fmt.Errorf("%w: no captions returned", domain.ErrProviderFailure)
	}

	first := out.Variants[0]
	record := &domain.CaptionRecord{
		ID:          uuid.NewString(),
		OwnerID:     account.ID,
		Caption:     first.Caption,
		Hashtags:    first.Hashtags,
		CTA:         first.CTA,
		Tone:        params.Tone,
		Platform:    params.Platform,
		Goal:        params.Goal,
		CreditsUsed: cost,
	}

	var remaining int
	err = s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		if err := repos.Captions.Create(ctx, record); err != nil {
			return fmt.Errorf("save caption: %w", err)
		}
		if cost == 0 {
			current, err := repos.Accounts.GetByID(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("load balance: %w", err)
			}
			remaining = current.Credits
			return nil
		}
		balance, err := repos.Accounts.Debit(ctx, account.ID, cost)
		if err != nil {
			return err
		}
		remaining = balance
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", account.ID).Msg("caption not persisted, nothing charged")
		return nil, err
	}

	entry := &domain.UsageLogEntry{
		OwnerID:      account.ID,
		Action:       domain.UsageCaptionGenerate,
		Credits:      cost,
		CostEstimate: EstimateCaptionCost(out.Model, out.PromptTokens, out.CompletionTokens),
		Metadata: map[string]any{
			"caption_id":        record.ID,
			"model":             out.Model,
			"prompt_tokens":     out.PromptTokens,
			"completion_tokens": out.CompletionTokens,
			"variations":        len(out.Variants),
			"platform":          params.Platform,
		},
	}
	if err := s.repos.Usage.Append(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("caption_id", record.ID).Msg("usage log append failed")
	}

	return &CaptionResult{
		Record:           record,
		Variants:         out.Variants,
		CreditsUsed:      cost,
		CreditsRemaining: remaining,
	}, nil
}

// admit applies the per-owner window. A limiter outage lets the request
// through; the window is advisory.
func (s *CaptionService) admit(ctx context.Context, ownerID string) error {
	if s.limiter == nil || s.cfg.RateLimit <= 0 {
		return nil
	}
	res, err := s.limiter.Allow(ctx, "caption:"+ownerID, s.cfg.RateLimit, s.cfg.RateWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rate limiter unavailable, admitting request")
		return nil
	}
	if !res.Allowed {
		return &domain.RateLimitError{ResetAt: res.ResetAt}
	}
	return nil
}

// ListCaptions returns the owner's most recent captions, newest first.
func (s *CaptionService) ListCaptions(ctx context.Context, ownerID string, limit int) ([]domain.CaptionRecord, error) {
	if limit <= 0 {
		limit = s.cfg.HistorySize
	}
	return s.repos.Captions.ListByOwner(ctx, ownerID, limit)
}
