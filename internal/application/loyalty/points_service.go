package loyalty

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// maxReasonLength bounds the free-text reason of a manual adjustment
const maxReasonLength = 255

// PointsService serves the member-facing points endpoints and admin adjustments
type PointsService struct {
	accounts  loyalty.AccountRepository
	ledger    loyalty.LedgerRepository
	orders    order.Repository
	scope     TransactionScope
	cfg       loyalty.PointsConfig
	tiers     *loyalty.TierTable
	currency  string
	publisher shared.EventPublisher
}

// NewPointsService creates a new PointsService
func NewPointsService(
	accounts loyalty.AccountRepository,
	ledger loyalty.LedgerRepository,
	orders order.Repository,
	scope TransactionScope,
	cfg loyalty.PointsConfig,
	tiers *loyalty.TierTable,
	currency string,
	publisher shared.EventPublisher,
) *PointsService {
	return &PointsService{
		accounts:  accounts,
		ledger:    ledger,
		orders:    orders,
		scope:     scope,
		cfg:       cfg,
		tiers:     tiers,
		currency:  currency,
		publisher: publisher,
	}
}

// Summary returns balance, tier progress and the redemption rules
func (s *PointsService) Summary(ctx context.Context, userID uuid.UUID) (*SummaryResponse, error) {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.orders.SumPendingPointsUsed(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := account.CurrentTier(s.tiers)
	summary := &SummaryResponse{
		Balance:         account.Balance(),
		Reserved:        reserved,
		Available:       max(account.Balance()-reserved, 0),
		Tier:            current.Name(),
		BonusMultiplier: current.BonusMultiplier(),
		Redemption:      s.rules(),
	}
	if next, ok := s.tiers.Next(current); ok {
		name := next.Name()
		summary.NextTier = &name
		summary.PointsToNext = next.MinPoints() - account.Balance()
	}
	return summary, nil
}

// History returns the member's ledger, newest first
func (s *PointsService) History(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[LedgerEntryResponse], error) {
	filter = filter.Normalize()
	entries, total, err := s.ledger.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, toLedgerEntryResponse(&entries[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Preview quotes a redemption for a subtotal. Guests have no points, so they
// always get a zero quote. A subtotal under the minimum is a valid answer
// with MinOrderMet false, not an error.
func (s *PointsService) Preview(ctx context.Context, input PreviewInput) (*PreviewResponse, error) {
	if input.Subtotal < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Subtotal cannot be negative")
	}

	var available int64
	if input.UserID != nil {
		account, err := s.accounts.FindByUserID(ctx, *input.UserID)
		if err != nil {
			return nil, err
		}
		reserved, err := s.orders.SumPendingPointsUsed(ctx, *input.UserID)
		if err != nil {
			return nil, err
		}
		available = max(account.Balance()-reserved, 0)
	}

	redemption := loyalty.ComputeRedemption(s.cfg, input.Subtotal, available, input.Points)
	return &PreviewResponse{
		Redemption:        redemption,
		Available:         available,
		DiscountFormatted: valueobject.NewMoney(redemption.DiscountAmount, s.currency).Format(language.AmericanEnglish),
		TotalAfter:        input.Subtotal - redemption.DiscountAmount,
	}, nil
}

// Adjust posts an ADJUST/ADMIN entry. A debit larger than the balance is
// rejected so the balance never goes negative.
func (s *PointsService) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	reason := strings.TrimSpace(input.Reason)
	if input.Amount == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Amount cannot be zero")
	}
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, shared.NewDomainError(shared.CodeValidation, "Reason cannot exceed 255 characters")
	}

	var (
		account     *loyalty.Account
		entry       *loyalty.LedgerEntry
		tierChanged bool
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.Accounts().FindByUserIDForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		if account.Balance()+input.Amount < 0 {
			return shared.ErrInsufficientPoints.WithMessage("Adjustment would make the balance negative")
		}

		entry, err = account.Credit(input.Amount, loyalty.EntryKindAdjust, loyalty.EntrySourceAdmin, input.AdminID.String(), reason)
		if err != nil {
			return err
		}
		tierChanged = account.RefreshTier(s.tiers)
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		return repos.Audit().Append(ctx, audit.NewEntry(audit.ActorAdmin, &input.AdminID, "points.adjusted", "user", input.UserID.String(), map[string]any{
			"amount":  input.Amount,
			"reason":  reason,
			"balance": account.Balance(),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Points adjusted",
		zap.String("user_id", input.UserID.String()),
		zap.String("admin_id", input.AdminID.String()),
		zap.Int64("amount", input.Amount),
		zap.Int64("balance", account.Balance()))

	if s.publisher != nil {
		events := []shared.DomainEvent{loyalty.NewPointsAdjustedEvent(input.UserID, input.AdminID, input.Amount, reason, account.Balance())}
		events = append(events, account.GetDomainEvents()...)
		if err := s.publisher.Publish(ctx, events...); err != nil {
			logger.L(ctx).Error("Failed to publish adjustment events", zap.Error(err))
		}
	}

	return &AdjustResult{
		EntryID:     entry.ID,
		Balance:     account.Balance(),
		Tier:        account.TierName(),
		TierChanged: tierChanged,
	}, nil
}

func (s *PointsService) rules() RedemptionRules {
	return RedemptionRules{
		PointsPerUnitDiscount: s.cfg.PointsPerUnitDiscount,
		UnitValue:             s.cfg.UnitValue,
		MaxDiscountPercent:    s.cfg.MaxDiscountPercent,
		MinOrderForRedemption: s.cfg.MinOrderForRedemption,
	}
}
