package paybill_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlans records manager calls and fails them with err when set.
type fakePlans struct {
	paybill.PlansClient

	calls   []string
	pricing []paybill.PricingSchemeUpdate
	err     error
}

func (f *fakePlans) Activate(ctx context.Context, id string) error {
	f.calls = append(f.calls, "activate "+id)

	return f.err
}

func (f *fakePlans) Deactivate(ctx context.Context, id string) error {
	f.calls = append(f.calls, "deactivate "+id)

	return f.err
}

func (f *fakePlans) Update(ctx context.Context, id string, patch *paybill.PlanPatch) error {
	f.calls = append(f.calls, "update "+id)

	return f.err
}

func (f *fakePlans) UpdatePricing(ctx context.Context, id string, updates []paybill.PricingSchemeUpdate) error {
	f.calls = append(f.calls, "update-pricing "+id)
	f.pricing = updates

	return f.err
}

func rejected() error {
	return paybill.ParseResponseError(http.StatusUnprocessableEntity,
		[]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.","details":[{"issue":"PLAN_STATUS_INVALID"}]}`))
}

func newPlan(status string, manager paybill.PlansClient) *paybill.Plan {
	plan := &paybill.Plan{
		ID:     "P-1",
		Status: status,
		BillingCycles: []paybill.BillingCycle{
			{Sequence: 1, TenureType: "REGULAR", PricingScheme: fixed("10.00"), Frequency: monthly(), TotalCycles: 12},
		},
	}

	return plan.Bind(manager)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestPlan_Transitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name      string
		status    string
		action    func(*paybill.Plan) error
		wantCall  bool
		wantState string
	}{
		{"activate created", "CREATED", func(p *paybill.Plan) error { return p.Activate(ctx) }, true, "ACTIVE"},
		{"activate inactive", "INACTIVE", func(p *paybill.Plan) error { return p.Activate(ctx) }, true, "ACTIVE"},
		{"activate active", "ACTIVE", func(p *paybill.Plan) error { return p.Activate(ctx) }, false, "ACTIVE"},
		{"deactivate created", "CREATED", func(p *paybill.Plan) error { return p.Deactivate(ctx) }, true, "INACTIVE"},
		{"deactivate active", "ACTIVE", func(p *paybill.Plan) error { return p.Deactivate(ctx) }, true, "INACTIVE"},
		{"deactivate inactive", "INACTIVE", func(p *paybill.Plan) error { return p.Deactivate(ctx) }, false, "INACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			manager := &fakePlans{}
			plan := newPlan(tt.status, manager)

			err := tt.action(plan)
			if tt.wantCall {
				require.NoError(t, err)
				assert.Len(t, manager.calls, 1)
			} else {
				var invalid *paybill.InvalidStateError
				require.ErrorAs(t, err, &invalid)
				require.ErrorIs(t, err, paybill.ErrInvalidState)
				assert.Empty(t, manager.calls)
			}

			assert.Equal(t, tt.wantState, plan.Status)
		})
	}

	t.Run("rejected transition keeps status", func(t *testing.T) {
		t.Parallel()

		manager := &fakePlans{err: rejected()}
		plan := newPlan("CREATED", manager)

		err := plan.Activate(ctx)
		require.ErrorIs(t, err, paybill.ErrSoftFailure)
		assert.Equal(t, "CREATED", plan.Status)
	})

	t.Run("unbound plan", func(t *testing.T) {
		t.Parallel()

		plan := &paybill.Plan{ID: "P-1", Status: "CREATED"}
		require.ErrorIs(t, plan.Activate(ctx), paybill.ErrNoManager)
	})
}

func TestPlan_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	patch := paybill.NewPlanPatch()
	require.NoError(t, patch.SetName("Premium Plan"))
	require.NoError(t, patch.SetTaxPercentage("8.5"))
	require.NoError(t, patch.SetPaymentFailureThreshold(5))
	require.NoError(t, patch.SetSetupFee(*usd("2.00")))

	failing := newPlan("ACTIVE", &fakePlans{err: rejected()})
	require.ErrorIs(t, failing.Update(ctx, patch), paybill.ErrSoftFailure)
	assert.Empty(t, failing.Name)
	assert.Nil(t, failing.Taxes)

	manager := &fakePlans{}
	plan := newPlan("ACTIVE", manager)
	require.NoError(t, plan.Update(ctx, patch))

	assert.Equal(t, "Premium Plan", plan.Name)
	assert.Equal(t, "8.5", plan.Taxes.Percentage)
	assert.Equal(t, 5, plan.PaymentPreferences.PaymentFailureThreshold)
	assert.Equal(t, "2.00", plan.PaymentPreferences.SetupFee.Value)
	assert.Equal(t, []string{"update P-1"}, manager.calls)

	require.ErrorIs(t, plan.Update(ctx, nil), paybill.ErrPatchRequired)
}

func TestPlan_UpdatePricing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	updates := []paybill.PricingSchemeUpdate{
		{BillingCycleSequence: 1, PricingScheme: *fixed("12.00")},
	}

	manager := &fakePlans{}
	plan := newPlan("ACTIVE", manager)

	err := plan.UpdatePricing(ctx, []paybill.PricingSchemeUpdate{{BillingCycleSequence: 2, PricingScheme: *fixed("1.00")}})
	require.ErrorIs(t, err, paybill.ErrValidation)
	assert.Empty(t, manager.calls)

	require.NoError(t, plan.UpdatePricing(ctx, updates))
	assert.Equal(t, "12.00", plan.BillingCycles[0].PricingScheme.FixedPrice.Value)

	failing := newPlan("ACTIVE", &fakePlans{err: rejected()})
	require.ErrorIs(t, failing.UpdatePricing(ctx, updates), paybill.ErrSoftFailure)
	assert.Equal(t, "10.00", failing.BillingCycles[0].PricingScheme.FixedPrice.Value)
}

func TestPlan_UpdatePricingNormalizesModel(t *testing.T) {
	t.Parallel()

	tiers := []paybill.PricingTier{
		{StartingQuantity: "1", EndingQuantity: "10", Amount: *usd("5.00")},
		{StartingQuantity: "11", Amount: *usd("4.00")},
	}

	manager := &fakePlans{}
	plan := newPlan("ACTIVE", manager)

	err := plan.UpdatePricing(context.Background(), []paybill.PricingSchemeUpdate{
		{BillingCycleSequence: 1, PricingScheme: paybill.PricingScheme{PricingModel: "tiered", Tiers: tiers}},
	})
	require.NoError(t, err)

	require.Len(t, manager.pricing, 1)
	assert.Equal(t, "TIERED", manager.pricing[0].PricingScheme.PricingModel)
	assert.Equal(t, "TIERED", plan.BillingCycles[0].PricingScheme.PricingModel)
	assert.Len(t, plan.BillingCycles[0].PricingScheme.Tiers, 2)

	tiers[0].StartingQuantity = "2"
	assert.Equal(t, "1", plan.BillingCycles[0].PricingScheme.Tiers[0].StartingQuantity)
}

func TestPricingSchemeUpdate_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, paybill.PricingSchemeUpdate{BillingCycleSequence: 1, PricingScheme: *fixed("1.00")}.Validate())
	require.ErrorIs(t, paybill.PricingSchemeUpdate{BillingCycleSequence: 0, PricingScheme: *fixed("1.00")}.Validate(), paybill.ErrValidation)
	require.ErrorIs(t, paybill.PricingSchemeUpdate{BillingCycleSequence: 1}.Validate(), paybill.ErrValidation)

	normal, err := paybill.PricingSchemeUpdate{
		BillingCycleSequence: 1,
		PricingScheme:        paybill.PricingScheme{PricingModel: "volume", Tiers: []paybill.PricingTier{{StartingQuantity: "1", Amount: *usd("3.00")}}},
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "VOLUME", normal.PricingScheme.PricingModel)
}

type fakeProducts struct {
	paybill.ProductsClient

	err error
}

func (f *fakeProducts) Update(ctx context.Context, id string, patch *paybill.ProductPatch) error {
	return f.err
}

func TestProduct_Update(t *testing.T) {
	t.Parallel()

	patch := paybill.NewProductPatch()
	require.NoError(t, patch.SetCategory("SOFTWARE"))
	require.NoError(t, patch.SetHomeURL("https://example.com/new"))

	product := (&paybill.Product{ID: "PROD-1", Category: "MEDIA"}).Bind(&fakeProducts{err: rejected()})
	require.ErrorIs(t, product.Update(context.Background(), patch), paybill.ErrSoftFailure)
	assert.Equal(t, "MEDIA", product.Category)

	product.Bind(&fakeProducts{})
	require.NoError(t, product.Update(context.Background(), patch))
	assert.Equal(t, "SOFTWARE", product.Category)
	assert.Equal(t, "https://example.com/new", product.HomeURL)
}

func TestPlan_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"id": "P-5ML4271244454362WXNWU5NQ",
		"product_id": "PROD-XXCD1234QWER65782",
		"name": "Basic Plan",
		"status": "ACTIVE",
		"billing_cycles": [{"frequency": {"interval_unit": "MONTH", "interval_count": 1}, "tenure_type": "REGULAR", "sequence": 1, "total_cycles": 12,
			"pricing_scheme": {"version": 1, "fixed_price": {"currency_code": "USD", "value": "10.00"}, "create_time": "2020-05-27T12:13:51Z"}}],
		"create_time": "2020-05-27T12:13:51Z",
		"links": [{"href": "https://api-m.paypal.com/v1/billing/plans/P-5ML4271244454362WXNWU5NQ", "rel": "self", "method": "GET"}]
	}`)

	var plan paybill.Plan
	require.NoError(t, json.Unmarshal(data, &plan))

	assert.Equal(t, "ACTIVE", plan.Status)
	require.NotNil(t, plan.CreateTime)
	assert.Equal(t, 2020, plan.CreateTime.Year())
	require.NotNil(t, plan.BillingCycles[0].PricingScheme.CreateTime)
	assert.Equal(t, "GET", plan.Links.Find("self").Method)
	assert.Nil(t, plan.Links.Find("edit"))
}
