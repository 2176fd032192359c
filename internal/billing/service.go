// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/core"
)

const plansCacheKey = "plans:all"

type Service struct {
	repo    Repository
	cache   *core.Cache[[]Plan]
	planTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewService caches the plan catalog in cache when it is non-nil.
// Subscription lookups are never cached.
func NewService(
	repo Repository,
	cache *core.Cache[[]Plan],
	planTTL time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		planTTL: planTTL,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	if s.cache != nil {
		if plans, ok := s.cache.Get(plansCacheKey); ok {
			return plans, nil
		}
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(plans) > 0 {
		s.cache.Set(plansCacheKey, plans, int64(len(plans)), s.planTTL)
	}

	return plans, nil
}

func (s *Service) CurrentSubscription(
	ctx context.Context,
	tenantID string,
) (*Subscription, error) {
	return s.repo.GetByOrganization(ctx, tenantID)
}

// HasFeature resolves key against the tenant's current plan. Every failure
// path yields the zero Feature.
func (s *Service) HasFeature(ctx context.Context, tenantID, key string) Feature {
	sub, err := s.repo.GetByOrganization(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.logger.Error("feature lookup failed",
				"tenant_id", tenantID,
				"feature", key,
				"error", err,
			)
		}
		return Feature{}
	}

	if !sub.IsCurrent(s.now()) {
		return Feature{}
	}

	feature, ok := resolveFeature(&sub.Plan, key)
	if !ok {
		s.logger.Warn("unknown feature key", "feature", key)
		return Feature{}
	}

	return feature
}

func (s *Service) IsFeatureEnabled(ctx context.Context, tenantID, key string) bool {
	return s.HasFeature(ctx, tenantID, key).Granted()
}

func (s *Service) FeatureLevel(ctx context.Context, tenantID, key string) string {
	return s.HasFeature(ctx, tenantID, key).Level
}

// Features resolves every known key with a single subscription lookup.
func (s *Service) Features(ctx context.Context, tenantID string) (map[string]Feature, error) {
	out := make(map[string]Feature, len(FeatureKeys))
	for _, key := range FeatureKeys {
		out[key] = Feature{}
	}

	sub, err := s.repo.GetByOrganization(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return out, nil
		}
		return nil, err
	}

	if !sub.IsCurrent(s.now()) {
		return out, nil
	}

	for _, key := range FeatureKeys {
		out[key], _ = resolveFeature(&sub.Plan, key)
	}

	return out, nil
}

// CurrentPlan returns the plan of the tenant's current subscription, or
// core.ErrPlanUpgradeRequired when there is none.
func (s *Service) CurrentPlan(ctx context.Context, tenantID string) (*Plan, error) {
	sub, err := s.repo.GetByOrganization(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("current plan: %w", core.ErrPlanUpgradeRequired)
		}
		return nil, err
	}

	if !sub.IsCurrent(s.now()) {
		return nil, fmt.Errorf("current plan: %w", core.ErrPlanUpgradeRequired)
	}

	return &sub.Plan, nil
}

// StartTrial opens a monthly ESSENTIAL trial for a new organization. repo
// is usually bound to the signup transaction.
func StartTrial(
	ctx context.Context,
	repo Repository,
	organizationID string,
	trialDays int,
	now time.Time,
) (*Subscription, error) {
	plan, err := repo.GetPlanByName(ctx, PlanEssential)
	if err != nil {
		return nil, err
	}

	endsAt := now.AddDate(0, 0, trialDays)
	sub := &Subscription{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		PlanID:         plan.ID,
		Cycle:          CycleMonthly,
		Status:         StatusTrial,
		StartsAt:       now,
		EndsAt:         &endsAt,
		Plan:           *plan,
	}

	if err := repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}
