// AngelaMos | 2026
// service_test.go

package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListPlans(ctx context.Context) ([]Plan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]Plan)
	return plans, args.Error(1)
}

func (m *mockRepo) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	args := m.Called(ctx, name)
	plan, _ := args.Get(0).(*Plan)
	return plan, args.Error(1)
}

func (m *mockRepo) GetByOrganization(ctx context.Context, orgID string) (*Subscription, error) {
	args := m.Called(ctx, orgID)
	sub, _ := args.Get(0).(*Subscription)
	return sub, args.Error(1)
}

func (m *mockRepo) CreateSubscription(ctx context.Context, sub *Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func intPtr(v int) *int { return &v }

func essential() Plan {
	return Plan{
		ID: "p1", Name: PlanEssential, PriceMonthlyCents: 14900,
		MaxDentists: intPtr(1), MaxClinics: intPtr(1),
		AgendaLevel: "basic", CRMLevel: "basic",
		WhatsappLimit: intPtr(100),
	}
}

func enterprise() Plan {
	return Plan{
		ID: "p3", Name: PlanEnterprise, PriceMonthlyCents: 59900,
		AgendaLevel: "advanced", CRMLevel: "advanced",
		ProstheticsEnabled: true, AIDashboardEnabled: true, MulticlinicEnabled: true,
	}
}

func subscriptionOn(plan Plan, status string, endsAt *time.Time) *Subscription {
	return &Subscription{ID: "s1", OrganizationID: "t1", PlanID: plan.ID, Status: status, Cycle: CycleMonthly, EndsAt: endsAt, Plan: plan}
}

func TestHasFeatureWithoutSubscriptionIsDeniedForEveryKey(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetByOrganization", mock.Anything, "t1").
		Return(nil, core.ErrNotFound)

	svc := NewService(repo, nil, 0, nil)

	for _, key := range FeatureKeys {
		f := svc.HasFeature(context.Background(), "t1", key)
		assert.Equal(t, Feature{}, f, key)
		assert.False(t, svc.IsFeatureEnabled(context.Background(), "t1", key), key)
		assert.Empty(t, svc.FeatureLevel(context.Background(), "t1", key), key)
	}
}

func TestHasFeatureReturnsStoredValues(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetByOrganization", mock.Anything, "t1").
		Return(subscriptionOn(essential(), StatusActive, nil), nil)

	svc := NewService(repo, nil, 0, nil)
	ctx := context.Background()

	agenda := svc.HasFeature(ctx, "t1", FeatureAgenda)
	assert.Equal(t, KindLevel, agenda.Kind)
	assert.Equal(t, "basic", agenda.Level)
	assert.Equal(t, "basic", svc.FeatureLevel(ctx, "t1", FeatureCRM))

	prosthetics := svc.HasFeature(ctx, "t1", FeatureProsthetics)
	assert.Equal(t, KindBool, prosthetics.Kind)
	assert.False(t, prosthetics.Enabled)
	assert.False(t, svc.IsFeatureEnabled(ctx, "t1", FeatureAIDashboard))

	whatsapp := svc.HasFeature(ctx, "t1", FeatureWhatsappLimit)
	assert.Equal(t, KindLimit, whatsapp.Kind)
	require.NotNil(t, whatsapp.Limit)
	assert.Equal(t, 100, *whatsapp.Limit)
	assert.True(t, whatsapp.Granted())
}

func TestUnlimitedWhatsapp(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetByOrganization", mock.Anything, "t1").
		Return(subscriptionOn(enterprise(), StatusTrial, nil), nil)

	svc := NewService(repo, nil, 0, nil)

	f := svc.HasFeature(context.Background(), "t1", FeatureWhatsappLimit)
	assert.Nil(t, f.Limit)
	assert.True(t, f.Unlimited)
	assert.True(t, f.Enabled)
}

func TestHasFeatureFailClosed(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		sub  *Subscription
		err  error
		key  string
		want bool
	}{
		{"canceled", subscriptionOn(enterprise(), StatusCanceled, nil), nil, FeatureProsthetics, false},
		{"expired", subscriptionOn(enterprise(), StatusActive, &past), nil, FeatureProsthetics, false},
		{"past due still current", subscriptionOn(enterprise(), StatusPastDue, &future), nil, FeatureProsthetics, true},
		{"lookup failure", nil, errors.New("connection reset"), FeatureProsthetics, false},
		{"unknown key", subscriptionOn(enterprise(), StatusActive, nil), nil, "teleportation", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{}
			repo.On("GetByOrganization", mock.Anything, "t1").Return(tc.sub, tc.err)

			svc := NewService(repo, nil, 0, nil)
			assert.Equal(t, tc.want, svc.IsFeatureEnabled(context.Background(), "t1", tc.key))
		})
	}
}

func TestFeaturesMap(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetByOrganization", mock.Anything, "t1").
		Return(subscriptionOn(enterprise(), StatusActive, nil), nil).Once()

	svc := NewService(repo, nil, 0, nil)

	features, err := svc.Features(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, features, len(FeatureKeys))
	assert.True(t, features[FeatureAIDashboard].Enabled)
	assert.Equal(t, "advanced", features[FeatureAgenda].Level)
	repo.AssertExpectations(t)
}

func TestListPlansIsCached(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListPlans", mock.Anything).Return([]Plan{essential(), enterprise()}, nil).Once()

	cache, err := core.NewCache[[]Plan](1000)
	require.NoError(t, err)
	defer cache.Close()

	svc := NewService(repo, cache, time.Minute, nil)

	for range 3 {
		plans, err := svc.ListPlans(context.Background())
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	}

	repo.AssertNumberOfCalls(t, "ListPlans", 1)
}

func TestCurrentPlanRequiresSubscription(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetByOrganization", mock.Anything, "t1").Return(nil, core.ErrNotFound)

	_, err := NewService(repo, nil, 0, nil).CurrentPlan(context.Background(), "t1")
	assert.ErrorIs(t, err, core.ErrPlanUpgradeRequired)
}

func TestStartTrial(t *testing.T) {
	plan := essential()
	repo := &mockRepo{}
	repo.On("GetPlanByName", mock.Anything, PlanEssential).Return(&plan, nil)
	repo.On("CreateSubscription", mock.Anything, mock.AnythingOfType("*billing.Subscription")).Return(nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub, err := StartTrial(context.Background(), repo, "org-1", 14, now)
	require.NoError(t, err)

	assert.Equal(t, StatusTrial, sub.Status)
	assert.Equal(t, CycleMonthly, sub.Cycle)
	assert.Equal(t, "p1", sub.PlanID)
	require.NotNil(t, sub.EndsAt)
	assert.Equal(t, now.AddDate(0, 0, 14), *sub.EndsAt)
	assert.True(t, sub.IsCurrent(now))
}

func TestAllowsDentists(t *testing.T) {
	p := essential()
	assert.True(t, p.AllowsDentists(1))
	assert.False(t, p.AllowsDentists(2))

	e := enterprise()
	assert.True(t, e.AllowsDentists(500))
}
