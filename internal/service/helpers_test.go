package service

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"captzio/internal/domain"
)

func fastRetry() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

var testLogger = zerolog.Nop()

func fakeAccount(t *testing.T, store *memStore, credits int) *domain.Account {
	t.Helper()
	return store.addAccount(domain.Account{
		ID:          uuid.NewString(),
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Credits:     credits,
	})
}

func adminPolicy(emails ...string) domain.PrivilegePolicy {
	return domain.NewPrivilegePolicy(emails)
}
