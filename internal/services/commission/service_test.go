package commission

import (
	"context"
	"testing"

	"moneta/internal/models"
	"moneta/internal/repositories/repotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompute(t *testing.T) {
	svc := NewService(repotest.New(), nil)

	min := dec("100")
	max := dec("10000")

	tests := []struct {
		name   string
		rule   *models.CommissionRule
		amount string
		want   string
	}{
		{
			name:   "nil rule yields zero",
			rule:   nil,
			amount: "500",
			want:   "0",
		},
		{
			name:   "fixed rule",
			rule:   &models.CommissionRule{Kind: models.CommissionFixed, Value: dec("50")},
			amount: "500",
			want:   "50",
		},
		{
			name:   "percentage rule",
			rule:   &models.CommissionRule{Kind: models.CommissionPercentage, Value: dec("1")},
			amount: "500",
			want:   "5",
		},
		{
			name:   "percentage rounds half to even",
			rule:   &models.CommissionRule{Kind: models.CommissionPercentage, Value: dec("1")},
			amount: "1250.50",
			want:   "12.50", // 12.505 banker-rounds down
		},
		{
			name:   "amount below min yields zero",
			rule:   &models.CommissionRule{Kind: models.CommissionPercentage, Value: dec("1"), MinAmount: &min},
			amount: "99.99",
			want:   "0",
		},
		{
			name:   "amount above max yields zero",
			rule:   &models.CommissionRule{Kind: models.CommissionPercentage, Value: dec("1"), MaxAmount: &max},
			amount: "10000.01",
			want:   "0",
		},
		{
			name:   "amount at min is charged",
			rule:   &models.CommissionRule{Kind: models.CommissionPercentage, Value: dec("1"), MinAmount: &min},
			amount: "100",
			want:   "1",
		},
		{
			name:   "zero amount yields zero",
			rule:   &models.CommissionRule{Kind: models.CommissionFixed, Value: dec("50")},
			amount: "0",
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Compute(tt.rule, dec(tt.amount))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCreateRule_DeactivatesPrior(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, nil)
	ctx := context.Background()

	first := &models.CommissionRule{
		Action:   models.ActionSendMoney,
		Audience: models.AudienceUser,
		Kind:     models.CommissionPercentage,
		Value:    dec("1"),
	}
	require.NoError(t, svc.CreateRule(ctx, first))

	second := &models.CommissionRule{
		Action:   models.ActionSendMoney,
		Audience: models.AudienceUser,
		Kind:     models.CommissionPercentage,
		Value:    dec("2"),
	}
	require.NoError(t, svc.CreateRule(ctx, second))

	active, err := svc.Resolve(ctx, models.ActionSendMoney, models.AudienceUser)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.Value.Equal(dec("2")))

	rules, err := svc.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	activeCount := 0
	for _, r := range rules {
		if r.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount, "exactly one rule per pair may be active")
}

func TestCreateRule_Validation(t *testing.T) {
	svc := NewService(repotest.New(), nil)
	ctx := context.Background()

	min := dec("100")
	max := dec("50")

	tests := []struct {
		name    string
		rule    *models.CommissionRule
		wantErr error
	}{
		{
			name:    "missing action",
			rule:    &models.CommissionRule{Audience: models.AudienceUser, Kind: models.CommissionFixed, Value: dec("1")},
			wantErr: ErrInvalidRule,
		},
		{
			name:    "unknown kind",
			rule:    &models.CommissionRule{Action: models.ActionSendMoney, Audience: models.AudienceUser, Kind: "tiered", Value: dec("1")},
			wantErr: ErrInvalidRule,
		},
		{
			name:    "negative value",
			rule:    &models.CommissionRule{Action: models.ActionSendMoney, Audience: models.AudienceUser, Kind: models.CommissionFixed, Value: dec("-1")},
			wantErr: ErrInvalidRule,
		},
		{
			name: "max below min",
			rule: &models.CommissionRule{
				Action: models.ActionSendMoney, Audience: models.AudienceUser,
				Kind: models.CommissionFixed, Value: dec("1"),
				MinAmount: &min, MaxAmount: &max,
			},
			wantErr: ErrInvalidBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.CreateRule(ctx, tt.rule), tt.wantErr)
		})
	}
}

func TestResolve_NoRuleIsNotAnError(t *testing.T) {
	svc := NewService(repotest.New(), nil)

	rule, err := svc.Resolve(context.Background(), models.ActionSendMoney, models.AudienceUser)
	assert.NoError(t, err)
	assert.Nil(t, rule)
}

func TestQuote_SumsAudiences(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, nil)
	ctx := context.Background()

	store.AddRule(models.CommissionRule{
		Action: models.ActionQRPayment, Audience: models.AudienceUser,
		Kind: models.CommissionPercentage, Value: dec("1"),
	})
	store.AddRule(models.CommissionRule{
		Action: models.ActionQRPayment, Audience: models.AudienceMerchant,
		Kind: models.CommissionFixed, Value: dec("25"),
	})

	total, err := svc.Quote(ctx, models.ActionQRPayment,
		[]models.CommissionAudience{models.AudienceUser, models.AudienceMerchant}, dec("1000"))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("35")), "got %s", total)
}
