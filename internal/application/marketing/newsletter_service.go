package marketing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/marketing"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NewsletterService manages mailing-list subscriptions and the one-time
// newsletter bonus for members
type NewsletterService struct {
	scope     apployalty.TransactionScope
	cfg       loyalty.PointsConfig
	tiers     *loyalty.TierTable
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewNewsletterService creates a new NewsletterService
func NewNewsletterService(scope apployalty.TransactionScope, cfg loyalty.PointsConfig, tiers *loyalty.TierTable, publisher shared.EventPublisher, logger *zap.Logger) *NewsletterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsletterService{
		scope:     scope,
		cfg:       cfg,
		tiers:     tiers,
		publisher: publisher,
		logger:    logger,
	}
}

// bonusReference keys the newsletter bonus per member, so a member subscribing
// several addresses is credited once
func bonusReference(userID uuid.UUID) string {
	return "newsletter:" + userID.String()
}

// Subscribe adds the address to the list. Subscribing an active address is a
// no-op. A logged-in member is credited the newsletter bonus the first time.
func (s *NewsletterService) Subscribe(ctx context.Context, input SubscribeInput) (*SubscribeResult, error) {
	email := identity.NormalizeEmail(input.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}

	result := &SubscribeResult{Email: email}
	var account *loyalty.Account
	err := s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		subscriber, err := repos.Newsletter().FindByEmail(ctx, email)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			subscriber, err = marketing.NewNewsletterSubscriber(email, input.UserID)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		case !subscriber.Resubscribe(input.UserID):
			result.AlreadySubscribed = true
			return nil
		}

		if subscriber.ShouldAwardBonus() && s.cfg.NewsletterBonus > 0 {
			account, err = s.awardBonus(ctx, repos, *subscriber.UserID)
			if err != nil {
				return err
			}
			if account != nil {
				result.BonusPoints = s.cfg.NewsletterBonus
			}
			subscriber.BonusAwarded = true
		}
		return repos.Newsletter().Save(ctx, subscriber)
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadySubscribed {
		return result, nil
	}
	s.logger.Info("Newsletter subscription",
		zap.Bool("member", input.UserID != nil),
		zap.Int64("bonus_points", result.BonusPoints))

	if account != nil && s.publisher != nil {
		if err := s.publisher.Publish(ctx, account.GetDomainEvents()...); err != nil {
			s.logger.Error("Failed to publish newsletter bonus events", zap.Error(err))
		}
	}
	return result, nil
}

// awardBonus credits the bonus unless the member already received it. It
// returns a nil account when nothing was credited.
func (s *NewsletterService) awardBonus(ctx context.Context, repos apployalty.TransactionalRepositories, userID uuid.UUID) (*loyalty.Account, error) {
	account, err := repos.Accounts().FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref := bonusReference(userID)
	previous, err := repos.Ledger().FindByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(previous) > 0 {
		return nil, nil
	}

	if _, err := account.Credit(s.cfg.NewsletterBonus, loyalty.EntryKindEarn, loyalty.EntrySourceNewsletter, ref, "Newsletter subscription bonus"); err != nil {
		return nil, err
	}
	account.RefreshTier(s.tiers)
	if err := repos.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}
	if err := repos.Audit().Append(ctx, audit.NewEntry(audit.ActorCustomer, &userID, "newsletter.bonus_awarded", "user", userID.String(), map[string]any{
		"amount":  s.cfg.NewsletterBonus,
		"balance": account.Balance(),
	})); err != nil {
		return nil, err
	}
	return account, nil
}

// Unsubscribe stamps unsubscribed_at. Unsubscribing twice is not an error.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	email = identity.NormalizeEmail(email)
	return s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		subscriber, err := repos.Newsletter().FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return marketing.ErrSubscriberNotFound
			}
			return err
		}
		if !subscriber.Unsubscribe(time.Now()) {
			return nil
		}
		return repos.Newsletter().Save(ctx, subscriber)
	})
}
