//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/fivetwenty-io/paybill/pkg/ppclient"
)

// SDKIntegrationTestSuite drives the SDK against the sandbox directly
type SDKIntegrationTestSuite struct {
	suite.Suite

	ctx     context.Context
	cancel  context.CancelFunc
	client  paybill.Client
	product *paybill.Product
}

// SetupSuite identifies a client and creates a product shared by the tests
func (s *SDKIntegrationTestSuite) SetupSuite() {
	config := LoadTestConfig()
	if config.ClientID == "" || config.Secret == "" {
		s.T().Skip("PAYBILL_CLIENT_ID or PAYBILL_SECRET not set, skipping integration tests")
	}

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)

	client, err := ppclient.New(s.ctx, &paybill.Config{
		ClientID:    config.ClientID,
		Secret:      config.Secret,
		Environment: config.Environment,
	})
	s.Require().NoError(err)
	s.client = client

	s.Require().NoError(client.Identify(s.ctx))
	s.Equal(paybill.StateReady, client.State())

	template := paybill.NewProductTemplate()
	s.Require().NoError(template.SetName(GenerateTestName("sdk-product")))
	s.Require().NoError(template.SetType("DIGITAL"))

	s.product, err = client.Products().Create(s.ctx, template)
	s.Require().NoError(err)
}

// TearDownSuite stops token renewal
func (s *SDKIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.NoError(s.client.Close())
	}

	if s.cancel != nil {
		s.cancel()
	}
}

func (s *SDKIntegrationTestSuite) newPlan(status string) *paybill.Plan {
	template := paybill.NewPlanTemplate()
	s.Require().NoError(template.SetProductID(s.product.ID))
	s.Require().NoError(template.SetName(GenerateTestName("sdk-plan")))
	s.Require().NoError(template.SetStatus(status))
	s.Require().NoError(template.AddBillingCycle(&paybill.PricingScheme{
		FixedPrice: &paybill.Money{CurrencyCode: "USD", Value: "10.00"},
	}, paybill.Frequency{IntervalUnit: "MONTH", IntervalCount: 1}, "REGULAR", 1, 0))
	s.Require().NoError(template.SetPaymentPreferences(paybill.PaymentPreferences{PaymentFailureThreshold: 1}))

	plan, err := s.client.Plans().Create(s.ctx, template)
	s.Require().NoError(err)

	return plan
}

func (s *SDKIntegrationTestSuite) TestProductIsCached() {
	first, err := s.client.Products().Get(s.ctx, s.product.ID, false)
	s.Require().NoError(err)

	second, err := s.client.Products().Get(s.ctx, s.product.ID, false)
	s.Require().NoError(err)

	s.Same(first, second)
}

func (s *SDKIntegrationTestSuite) TestPlanTransitions() {
	plan := s.newPlan("CREATED")
	s.Equal("CREATED", plan.Status)

	s.Require().NoError(plan.Activate(s.ctx))
	s.ErrorIs(plan.Activate(s.ctx), paybill.ErrInvalidState)

	s.Require().NoError(plan.Deactivate(s.ctx))

	fetched, err := s.client.Plans().Get(s.ctx, plan.ID, true)
	s.Require().NoError(err)
	s.Equal("INACTIVE", fetched.Status)
}

func (s *SDKIntegrationTestSuite) TestPlanUpdate() {
	plan := s.newPlan("ACTIVE")

	patch := paybill.NewPlanPatch()
	s.Require().NoError(patch.SetDescription("updated by the integration suite"))
	s.Require().NoError(patch.SetPaymentFailureThreshold(2))
	s.Require().NoError(plan.Update(s.ctx, patch))

	fetched, err := s.client.Plans().Get(s.ctx, plan.ID, true)
	s.Require().NoError(err)
	s.Equal("updated by the integration suite", fetched.Description)
	s.Equal(2, fetched.PaymentPreferences.PaymentFailureThreshold)
}

func (s *SDKIntegrationTestSuite) TestListPlansOfProduct() {
	plan := s.newPlan("ACTIVE")

	plans, err := s.client.Plans().List(s.ctx, &paybill.PlanListOptions{ProductID: s.product.ID, All: true})
	s.Require().NoError(err)
	s.True(plans.Has(plan.ID))
}

func (s *SDKIntegrationTestSuite) TestNotFound() {
	_, err := s.client.Plans().Get(s.ctx, "P-00000000000000000000000", true)
	s.Error(err)
}

func TestSDKIntegrationSuite(t *testing.T) {
	suite.Run(t, new(SDKIntegrationTestSuite))
}
