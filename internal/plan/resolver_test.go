package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra/identity"
)

type accountAPIFunc func(ctx context.Context, userID string) (*identity.Account, error)

func (f accountAPIFunc) Account(ctx context.Context, userID string) (*identity.Account, error) {
	return f(ctx, userID)
}

func TestResolverResolveOrder(t *testing.T) {
	tests := []struct {
		name       string
		account    *identity.Account
		err        error
		wantPlan   domain.PlanName
		wantOK     bool
		wantSource Source
	}{
		{
			name: "subscription field wins",
			account: &identity.Account{
				Subscription:   &identity.Subscription{Plan: "Standard"},
				PublicMetadata: map[string]any{"plan": "premium"},
			},
			wantPlan:   domain.PlanStandard,
			wantOK:     true,
			wantSource: SourceSubscription,
		},
		{
			name: "empty subscription falls through to public metadata",
			account: &identity.Account{
				Subscription:    &identity.Subscription{Plan: "  "},
				PublicMetadata:  map[string]any{"plan": "premium"},
				PrivateMetadata: map[string]any{"plan": "standard"},
			},
			wantPlan:   domain.PlanPremium,
			wantOK:     true,
			wantSource: SourceDirectMetadata,
		},
		{
			name: "private metadata is last lookup",
			account: &identity.Account{
				PrivateMetadata: map[string]any{"plan": "standard"},
			},
			wantPlan:   domain.PlanStandard,
			wantOK:     true,
			wantSource: SourcePrivateMetadata,
		},
		{
			name: "non-string metadata plan ignored",
			account: &identity.Account{
				PublicMetadata: map[string]any{"plan": 7},
			},
			wantPlan:   domain.DefaultPlan,
			wantOK:     true,
			wantSource: SourceFallbackDefault,
		},
		{
			name:       "bare account resolves to default",
			account:    &identity.Account{},
			wantPlan:   domain.DefaultPlan,
			wantOK:     true,
			wantSource: SourceFallbackDefault,
		},
		{
			name:       "missing account is not a provider failure",
			err:        identity.ErrAccountNotFound,
			wantPlan:   domain.DefaultPlan,
			wantOK:     true,
			wantSource: SourceFallbackDefault,
		},
		{
			name:       "provider error degrades",
			err:        errors.New("connection refused"),
			wantPlan:   domain.DefaultPlan,
			wantOK:     false,
			wantSource: SourceFallbackDefault,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := accountAPIFunc(func(ctx context.Context, userID string) (*identity.Account, error) {
				return tc.account, tc.err
			})
			r := NewResolver(api, time.Second, zerolog.Nop())

			got := r.Resolve(context.Background(), "user-1")
			if got.PlanName != tc.wantPlan || got.Succeeded != tc.wantOK || got.Source != tc.wantSource {
				t.Fatalf("Resolve() = %+v, want {%s %v %s}", got, tc.wantPlan, tc.wantOK, tc.wantSource)
			}
		})
	}
}

func TestResolverUnauthenticatedSkipsProvider(t *testing.T) {
	called := false
	api := accountAPIFunc(func(ctx context.Context, userID string) (*identity.Account, error) {
		called = true
		return &identity.Account{}, nil
	})
	r := NewResolver(api, time.Second, zerolog.Nop())

	got := r.Resolve(context.Background(), "")
	if called {
		t.Fatalf("Resolve() contacted provider for empty user id")
	}
	if got.Succeeded || got.PlanName != domain.DefaultPlan || got.Source != SourceFallbackDefault {
		t.Fatalf("Resolve() = %+v, want failed fallback", got)
	}
}

func TestResolverTimeoutReturnsFallback(t *testing.T) {
	api := accountAPIFunc(func(ctx context.Context, userID string) (*identity.Account, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := NewResolver(api, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	got := r.Resolve(context.Background(), "user-1")
	elapsed := time.Since(start)

	if got.Succeeded || got.PlanName != domain.DefaultPlan || got.Source != SourceFallbackDefault {
		t.Fatalf("Resolve() = %+v, want failed fallback", got)
	}
	if elapsed > time.Second {
		t.Fatalf("Resolve() took %v, want bounded by the timeout", elapsed)
	}
}
