package paybill

import (
	"context"
	"slices"
	"sync"

	"github.com/fivetwenty-io/paybill/internal/constants"
)

// Frequency is how often a billing cycle repeats.
type Frequency struct {
	IntervalUnit  string `json:"interval_unit"            yaml:"interval_unit"            validate:"required,oneof=DAY WEEK MONTH YEAR"`
	IntervalCount int    `json:"interval_count,omitempty" yaml:"interval_count,omitempty" validate:"min=1"`
}

// PricingTier is one quantity band of a TIERED or VOLUME pricing scheme.
type PricingTier struct {
	StartingQuantity string `json:"starting_quantity"         yaml:"starting_quantity"         validate:"required,numeric"`
	EndingQuantity   string `json:"ending_quantity,omitempty" yaml:"ending_quantity,omitempty" validate:"omitempty,numeric"`
	Amount           Money  `json:"amount"                    yaml:"amount"`
}

// PricingScheme is the price of a billing cycle.
type PricingScheme struct {
	Timestamps

	Version      int           `json:"version,omitempty"       yaml:"version,omitempty"`
	FixedPrice   *Money        `json:"fixed_price,omitempty"   yaml:"fixed_price,omitempty"`
	PricingModel string        `json:"pricing_model,omitempty" yaml:"pricing_model,omitempty" validate:"omitempty,oneof=VOLUME TIERED"`
	Tiers        []PricingTier `json:"tiers,omitempty"         yaml:"tiers,omitempty"         validate:"dive"`
}

// BillingCycle is one phase of a plan: a trial or the regular recurring charge.
type BillingCycle struct {
	PricingScheme *PricingScheme `json:"pricing_scheme,omitempty" yaml:"pricing_scheme,omitempty"`
	Frequency     Frequency      `json:"frequency"                yaml:"frequency"`
	TenureType    string         `json:"tenure_type"              yaml:"tenure_type"`
	Sequence      int            `json:"sequence"                 yaml:"sequence"`
	TotalCycles   int            `json:"total_cycles"             yaml:"total_cycles"`
}

// PaymentPreferences controls setup fees and failed-payment handling.
type PaymentPreferences struct {
	ServiceType             string `json:"service_type,omitempty"             yaml:"service_type,omitempty"`
	AutoBillOutstanding     bool   `json:"auto_bill_outstanding"              yaml:"auto_bill_outstanding"`
	SetupFee                *Money `json:"setup_fee,omitempty"                yaml:"setup_fee,omitempty"`
	SetupFeeFailureAction   string `json:"setup_fee_failure_action,omitempty" yaml:"setup_fee_failure_action,omitempty" validate:"omitempty,oneof=CANCEL CONTINUE"`
	PaymentFailureThreshold int    `json:"payment_failure_threshold"          yaml:"payment_failure_threshold"          validate:"min=0,max=999"`
}

// Taxes is the tax applied to a plan.
type Taxes struct {
	Percentage string `json:"percentage" yaml:"percentage" validate:"required,percentage"`
	Inclusive  bool   `json:"inclusive"  yaml:"inclusive"`
}

// Phone is a payee business phone number.
type Phone struct {
	CountryCode    string `json:"country_code"    yaml:"country_code"`
	NationalNumber string `json:"national_number" yaml:"national_number"`
}

// DisplayData is how the payee is shown to the buyer.
type DisplayData struct {
	BusinessEmail string `json:"business_email,omitempty" yaml:"business_email,omitempty"`
	BusinessPhone *Phone `json:"business_phone,omitempty" yaml:"business_phone,omitempty"`
	BrandName     string `json:"brand_name,omitempty"     yaml:"brand_name,omitempty"`
}

// Payee is the merchant who receives the funds.
type Payee struct {
	MerchantID  string       `json:"merchant_id,omitempty"  yaml:"merchant_id,omitempty"`
	DisplayData *DisplayData `json:"display_data,omitempty" yaml:"display_data,omitempty"`
}

// Plan is a snapshot of a billing plan taken at fetch time. Its mutation
// methods call the platform first and change local fields only on success.
// A Plan must not be mutated from several goroutines at once.
type Plan struct {
	Timestamps

	ID                 string              `json:"id"                            yaml:"id"`
	Version            int                 `json:"version,omitempty"             yaml:"version,omitempty"`
	ProductID          string              `json:"product_id"                    yaml:"product_id"`
	Name               string              `json:"name"                          yaml:"name"`
	Status             string              `json:"status"                        yaml:"status"`
	Description        string              `json:"description,omitempty"         yaml:"description,omitempty"`
	UsageType          string              `json:"usage_type,omitempty"          yaml:"usage_type,omitempty"`
	BillingCycles      []BillingCycle      `json:"billing_cycles,omitempty"      yaml:"billing_cycles,omitempty"`
	PaymentPreferences *PaymentPreferences `json:"payment_preferences,omitempty" yaml:"payment_preferences,omitempty"`
	Taxes              *Taxes              `json:"taxes,omitempty"               yaml:"taxes,omitempty"`
	QuantitySupported  bool                `json:"quantity_supported"            yaml:"quantity_supported"`
	Payee              *Payee              `json:"payee,omitempty"               yaml:"payee,omitempty"`
	Links              Links               `json:"links,omitempty"               yaml:"links,omitempty"`

	mu      sync.Mutex
	manager PlansClient
}

// Bind attaches the manager used by the plan's mutation methods.
func (p *Plan) Bind(manager PlansClient) *Plan {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.manager = manager

	return p
}

// Activate activates a CREATED or INACTIVE plan.
func (p *Plan) Activate(ctx context.Context) error {
	return p.transition("activate", constants.PlanStatusActive,
		[]string{constants.PlanStatusCreated, constants.PlanStatusInactive},
		func(manager PlansClient, id string) error { return manager.Activate(ctx, id) })
}

// Deactivate deactivates a CREATED or ACTIVE plan.
func (p *Plan) Deactivate(ctx context.Context) error {
	return p.transition("deactivate", constants.PlanStatusInactive,
		[]string{constants.PlanStatusCreated, constants.PlanStatusActive},
		func(manager PlansClient, id string) error { return manager.Deactivate(ctx, id) })
}

func (p *Plan) transition(action, target string, allowed []string, call func(PlansClient, string) error) error {
	p.mu.Lock()
	status, id, manager := p.Status, p.ID, p.manager
	p.mu.Unlock()

	if !slices.Contains(allowed, status) {
		return &InvalidStateError{Resource: "plan", ID: id, Status: status, Action: action, Allowed: allowed}
	}

	if manager == nil {
		return ErrNoManager
	}

	err := call(manager, id)
	if err != nil {
		return err
	}

	p.ApplyStatus(target)

	return nil
}

// Update applies a validated patch to the plan.
func (p *Plan) Update(ctx context.Context, patch *PlanPatch) error {
	if patch == nil {
		return ErrPatchRequired
	}

	id, manager := p.binding()
	if manager == nil {
		return ErrNoManager
	}

	err := manager.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	p.ApplyPatch(patch)

	return nil
}

// UpdatePricing replaces the pricing schemes of the given billing cycles.
func (p *Plan) UpdatePricing(ctx context.Context, updates []PricingSchemeUpdate) error {
	normalized := make([]PricingSchemeUpdate, 0, len(updates))

	for _, update := range updates {
		normal, err := update.Normalize()
		if err != nil {
			return err
		}

		normalized = append(normalized, normal)
	}

	p.mu.Lock()
	for _, update := range normalized {
		if p.cycleIndex(update.BillingCycleSequence) < 0 {
			p.mu.Unlock()

			return &ValidationError{
				Field:   "billing_cycle_sequence",
				Rule:    "exists",
				Value:   update.BillingCycleSequence,
				Message: ErrUnknownBillingCycle.Error(),
			}
		}
	}
	p.mu.Unlock()

	id, manager := p.binding()
	if manager == nil {
		return ErrNoManager
	}

	err := manager.UpdatePricing(ctx, id, normalized)
	if err != nil {
		return err
	}

	p.ApplyPricing(normalized)

	return nil
}

// ApplyStatus records a status change the platform has confirmed.
func (p *Plan) ApplyStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Status = status
}

// ApplyPatch records a patch the platform has confirmed.
func (p *Plan) ApplyPatch(patch *PlanPatch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	patch.applyTo(p)
}

// ApplyPricing records pricing updates the platform has confirmed. Updates
// naming an unknown billing cycle are ignored.
func (p *Plan) ApplyPricing(updates []PricingSchemeUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, update := range updates {
		i := p.cycleIndex(update.BillingCycleSequence)
		if i < 0 {
			continue
		}

		scheme := update.PricingScheme
		scheme.Tiers = append([]PricingTier(nil), scheme.Tiers...)
		p.BillingCycles[i].PricingScheme = &scheme
	}
}

func (p *Plan) binding() (string, PlansClient) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ID, p.manager
}

func (p *Plan) cycleIndex(sequence int) int {
	return slices.IndexFunc(p.BillingCycles, func(cycle BillingCycle) bool {
		return cycle.Sequence == sequence
	})
}

// Product is a snapshot of a catalog product taken at fetch time.
type Product struct {
	Timestamps

	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type"                  yaml:"type"`
	Category    string `json:"category,omitempty"    yaml:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"   yaml:"image_url,omitempty"`
	HomeURL     string `json:"home_url,omitempty"    yaml:"home_url,omitempty"`
	Links       Links  `json:"links,omitempty"       yaml:"links,omitempty"`

	mu      sync.Mutex
	manager ProductsClient
}

// Bind attaches the manager used by the product's mutation methods.
func (p *Product) Bind(manager ProductsClient) *Product {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.manager = manager

	return p
}

// Update applies a validated patch to the product.
func (p *Product) Update(ctx context.Context, patch *ProductPatch) error {
	if patch == nil {
		return ErrPatchRequired
	}

	p.mu.Lock()
	id, manager := p.ID, p.manager
	p.mu.Unlock()

	if manager == nil {
		return ErrNoManager
	}

	err := manager.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	p.ApplyPatch(patch)

	return nil
}

// ApplyPatch records a patch the platform has confirmed.
func (p *Product) ApplyPatch(patch *ProductPatch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	patch.applyTo(p)
}

// PricingSchemeUpdate targets one billing cycle of a plan by sequence.
type PricingSchemeUpdate struct {
	BillingCycleSequence int           `json:"billing_cycle_sequence" yaml:"billing_cycle_sequence"`
	PricingScheme        PricingScheme `json:"pricing_scheme"         yaml:"pricing_scheme"`
}

// Normalize applies the billing cycle pricing rules to the new scheme and
// returns the update as it is sent, with the pricing model upper-cased.
func (u PricingSchemeUpdate) Normalize() (PricingSchemeUpdate, error) {
	err := checkVar("billing_cycle_sequence", u.BillingCycleSequence, "min=1,max=99")
	if err != nil {
		return u, err
	}

	scheme, err := checkPricingScheme(u.PricingScheme)
	if err != nil {
		return u, err
	}

	u.PricingScheme = *scheme

	return u, nil
}

// Validate reports whether Normalize accepts the update.
func (u PricingSchemeUpdate) Validate() error {
	_, err := u.Normalize()

	return err
}

// PlanListOptions filters and sizes a plan bulk fetch.
type PlanListOptions struct {
	ProductID string
	PlanIDs   []string
	// PageCount is the number of pages to fetch; values below 1 mean 1.
	PageCount int
	// All expands PageCount to the server-reported total on the first page.
	All bool
}

// ProductListOptions sizes a product bulk fetch.
type ProductListOptions struct {
	PageCount int
	All       bool
}

// PlansClient manages billing plans.
type PlansClient interface {
	Get(ctx context.Context, id string, bypassCache bool) (*Plan, error)
	List(ctx context.Context, opts *PlanListOptions) (*Collection[*Plan], error)
	Create(ctx context.Context, template *PlanTemplate) (*Plan, error)
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Update(ctx context.Context, id string, patch *PlanPatch) error
	UpdatePricing(ctx context.Context, id string, updates []PricingSchemeUpdate) error
}

// ProductsClient manages catalog products.
type ProductsClient interface {
	Get(ctx context.Context, id string, bypassCache bool) (*Product, error)
	List(ctx context.Context, opts *ProductListOptions) (*Collection[*Product], error)
	Create(ctx context.Context, template *ProductTemplate) (*Product, error)
	Update(ctx context.Context, id string, patch *ProductPatch) error
}
