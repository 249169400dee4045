package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// PlansClient implements paybill.PlansClient.
type PlansClient struct {
	gate  *Client
	cache *paybill.ResourceCache[paybill.Plan]
}

// NewPlansClient creates a new plans client.
func NewPlansClient(gate *Client, cache *paybill.ResourceCache[paybill.Plan]) *PlansClient {
	return &PlansClient{
		gate:  gate,
		cache: cache,
	}
}

func planPath(id string) string {
	return constants.APIPathPlans + "/" + url.PathEscape(id)
}

// Get implements paybill.PlansClient.Get.
func (c *PlansClient) Get(ctx context.Context, id string, bypassCache bool) (*paybill.Plan, error) {
	if id == "" {
		return nil, paybill.ErrIDRequired
	}

	if !bypassCache {
		if plan, ok := c.cache.Get(ctx, id); ok {
			return plan.Bind(c), nil
		}
	}

	resp, err := c.gate.Request(ctx, http.MethodGet, planPath(id), nil, preferHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("getting plan: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound || resp.Body == nil {
		return nil, &paybill.NotFoundError{Resource: "plan", ID: id}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	plan, err := c.wrap(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, plan.ID, plan)

	return plan, nil
}

// List implements paybill.PlansClient.List.
func (c *PlansClient) List(ctx context.Context, opts *paybill.PlanListOptions) (*paybill.Collection[*paybill.Plan], error) {
	if opts == nil {
		opts = &paybill.PlanListOptions{}
	}

	filters, err := planFilters(opts)
	if err != nil {
		return nil, err
	}

	plans, err := fetchPages[paybill.Plan](ctx, c.gate, constants.APIPathPlans, "plans", filters, opts.PageCount, opts.All)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}

	collection := paybill.NewCollection[*paybill.Plan]()

	for _, plan := range plans {
		plan.Bind(c)
		collection.Set(plan.ID, plan)
		c.cache.Put(ctx, plan.ID, plan)
	}

	return collection, nil
}

func planFilters(opts *paybill.PlanListOptions) (url.Values, error) {
	filters := url.Values{}

	if opts.ProductID != "" {
		if len(opts.ProductID) > constants.MaxProductIDLength {
			return nil, &paybill.ValidationError{
				Field:   "product_id",
				Rule:    "max",
				Value:   opts.ProductID,
				Message: fmt.Sprintf("must be at most %d characters", constants.MaxProductIDLength),
			}
		}

		filters.Set("product_id", opts.ProductID)
	}

	if len(opts.PlanIDs) > 0 {
		if len(opts.PlanIDs) > constants.MaxPlanIDs {
			return nil, &paybill.ValidationError{
				Field:   "plan_ids",
				Rule:    "max",
				Value:   opts.PlanIDs,
				Message: fmt.Sprintf("must hold at most %d ids", constants.MaxPlanIDs),
			}
		}

		joined := strings.Join(opts.PlanIDs, ",")
		if len(joined) > constants.MaxPlanIDsLength {
			return nil, &paybill.ValidationError{
				Field:   "plan_ids",
				Rule:    "max",
				Value:   joined,
				Message: fmt.Sprintf("must join to at most %d characters", constants.MaxPlanIDsLength),
			}
		}

		filters.Set("plan_ids", joined)
	}

	return filters, nil
}

// Create implements paybill.PlansClient.Create.
func (c *PlansClient) Create(ctx context.Context, template *paybill.PlanTemplate) (*paybill.Plan, error) {
	if template == nil {
		return nil, paybill.ErrTemplateRequired
	}

	body, err := template.Serialize()
	if err != nil {
		return nil, err
	}

	resp, err := c.gate.Request(ctx, http.MethodPost, constants.APIPathPlans, nil, preferHeaders(), body)
	if err != nil {
		return nil, fmt.Errorf("creating plan: %w", err)
	}

	if resp.StatusCode != http.StatusCreated || resp.Body == nil {
		return nil, paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	plan, err := c.wrap(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, plan.ID, plan)

	return plan, nil
}

// Activate implements paybill.PlansClient.Activate.
func (c *PlansClient) Activate(ctx context.Context, id string) error {
	return c.post(ctx, id, "/activate", nil, "activating plan", func(plan *paybill.Plan) {
		plan.ApplyStatus(constants.PlanStatusActive)
	})
}

// Deactivate implements paybill.PlansClient.Deactivate.
func (c *PlansClient) Deactivate(ctx context.Context, id string) error {
	return c.post(ctx, id, "/deactivate", nil, "deactivating plan", func(plan *paybill.Plan) {
		plan.ApplyStatus(constants.PlanStatusInactive)
	})
}

// Update implements paybill.PlansClient.Update.
func (c *PlansClient) Update(ctx context.Context, id string, patch *paybill.PlanPatch) error {
	if id == "" {
		return paybill.ErrIDRequired
	}

	if patch == nil {
		return paybill.ErrPatchRequired
	}

	body, err := patch.Serialize()
	if err != nil {
		return err
	}

	resp, err := c.gate.Request(ctx, http.MethodPatch, planPath(id), nil, nil, body)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	return c.confirm(ctx, id, resp, func(plan *paybill.Plan) { plan.ApplyPatch(patch) })
}

type updatePricingRequest struct {
	PricingSchemes []paybill.PricingSchemeUpdate `json:"pricing_schemes"`
}

// UpdatePricing implements paybill.PlansClient.UpdatePricing.
func (c *PlansClient) UpdatePricing(ctx context.Context, id string, updates []paybill.PricingSchemeUpdate) error {
	if len(updates) == 0 {
		return paybill.ErrNoPricingSchemes
	}

	normalized := make([]paybill.PricingSchemeUpdate, 0, len(updates))

	for _, update := range updates {
		normal, err := update.Normalize()
		if err != nil {
			return err
		}

		normalized = append(normalized, normal)
	}

	request := updatePricingRequest{PricingSchemes: normalized}

	return c.post(ctx, id, "/update-pricing-schemes", request, "updating plan pricing", func(plan *paybill.Plan) {
		plan.ApplyPricing(normalized)
	})
}

func (c *PlansClient) post(
	ctx context.Context,
	id, action string,
	body interface{},
	operation string,
	apply func(*paybill.Plan),
) error {
	if id == "" {
		return paybill.ErrIDRequired
	}

	resp, err := c.gate.Request(ctx, http.MethodPost, planPath(id)+action, nil, nil, body)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	return c.confirm(ctx, id, resp, apply)
}

// confirm accepts only 204 and records the change on the cached instance.
func (c *PlansClient) confirm(ctx context.Context, id string, resp *paybill.Response, apply func(*paybill.Plan)) error {
	if resp.StatusCode != http.StatusNoContent {
		return paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	c.cache.Modify(ctx, id, apply)

	return nil
}

func (c *PlansClient) wrap(body []byte) (*paybill.Plan, error) {
	plan := &paybill.Plan{}

	err := json.Unmarshal(body, plan)
	if err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}

	return plan.Bind(c), nil
}

// CacheStats returns the plan cache counters.
func (c *PlansClient) CacheStats() paybill.CacheStats {
	return c.cache.Stats()
}
