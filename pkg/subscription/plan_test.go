package subscription_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

func TestDefaultPlans(t *testing.T) {
	t.Parallel()

	plans := subscription.DefaultPlans()
	require.NoError(t, subscription.ValidatePlans(plans))
	require.Len(t, plans, 2)

	assert.Equal(t, "starter", plans[0].ID)
	assert.Equal(t, int64(10000), plans[0].Price.Amount)
	assert.Equal(t, "INR", plans[0].Price.Currency)
	assert.Equal(t, 14, plans[0].TrialDays)
	assert.Equal(t, "pro", plans[1].ID)
	assert.Equal(t, int64(50000), plans[1].Price.Amount)
}

func TestValidatePlans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		plans []subscription.Plan
	}{
		{name: "empty", plans: nil},
		{name: "missing id", plans: []subscription.Plan{{Name: "A"}}},
		{name: "duplicate id", plans: []subscription.Plan{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
		{name: "missing name", plans: []subscription.Plan{{ID: "a"}}},
		{name: "negative price", plans: []subscription.Plan{{ID: "a", Name: "A", Price: subscription.Money{Amount: -1, Currency: "INR"}}}},
		{name: "missing currency", plans: []subscription.Plan{{ID: "a", Name: "A", Price: subscription.Money{Amount: 100}}}},
		{name: "negative trial", plans: []subscription.Plan{{ID: "a", Name: "A", TrialDays: -3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := subscription.ValidatePlans(tt.plans)
			assert.ErrorIs(t, err, subscription.ErrInvalidPlanCatalog)
		})
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := subscription.NewCatalog(
		subscription.Plan{ID: "pro", Name: "Pro", PriceID: "pri_pro", Features: []string{"a"}},
		subscription.Plan{ID: "free", Name: "Free"},
	)
	require.NoError(t, err)

	plans := catalog.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, "pro", plans[0].ID, "catalog keeps declaration order")

	p, ok := catalog.Get("pro")
	require.True(t, ok)
	assert.Equal(t, "pri_pro", p.GatewayPriceID())
	p.Features[0] = "mutated"
	p2, _ := catalog.Get("pro")
	assert.Equal(t, "a", p2.Features[0])

	free, _ := catalog.Get("free")
	assert.Equal(t, "free", free.GatewayPriceID())

	byPrice, ok := catalog.ByPriceID("pri_pro")
	require.True(t, ok)
	assert.Equal(t, "pro", byPrice.ID)

	_, ok = catalog.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "Pro", catalog.NameOf("pro"))
	assert.Equal(t, "gone", catalog.NameOf("gone"))
}

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	doc := []byte(`
plans:
  - id: starter
    name: Starter Plan
    price_id: pri_01starter
    price: {amount: 10000, currency: INR}
    trial_days: 14
    features: [Basic features]
  - id: pro
    name: Pro Plan
    price: {amount: 50000, currency: INR}
    trial_days: 7
`)

	t.Run("in memory", func(t *testing.T) {
		t.Parallel()

		catalog, err := subscription.LoadCatalog(context.Background(), subscription.NewYAMLSource(doc))
		require.NoError(t, err)

		p, ok := catalog.Get("starter")
		require.True(t, ok)
		assert.Equal(t, "pri_01starter", p.GatewayPriceID())
		assert.Equal(t, int64(10000), p.Price.Amount)
		assert.Equal(t, []string{"Basic features"}, p.Features)

		pro, _ := catalog.Get("pro")
		assert.Equal(t, 7, pro.TrialDays)
	})

	t.Run("from file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, doc, 0o600))

		plans, err := subscription.NewYAMLFileSource(path).Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.LoadCatalog(context.Background(), subscription.NewYAMLFileSource("/nonexistent/plans.yaml"))
		assert.ErrorIs(t, err, subscription.ErrInvalidPlanCatalog)
	})

	t.Run("invalid plans", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.LoadCatalog(context.Background(), subscription.NewYAMLSource([]byte("plans:\n  - id: x\n    trial_days: -1\n")))
		assert.ErrorIs(t, err, subscription.ErrInvalidPlanCatalog)
	})
}

func TestInMemSource(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { subscription.NewInMemSource() })

	src := subscription.NewInMemSource(subscription.DefaultPlans()...)
	plans, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
