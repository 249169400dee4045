package paybill

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/paybill/internal/constants"
)

// intervalCaps is the largest interval_count allowed per interval unit.
var intervalCaps = map[string]int{
	constants.IntervalDay:   365,
	constants.IntervalWeek:  52,
	constants.IntervalMonth: 12,
	constants.IntervalYear:  1,
}

const (
	minSequence    = 1
	maxSequence    = 99
	maxTotalCycles = 999
)

// PlanCreateRequest is the body sent to create a billing plan.
type PlanCreateRequest struct {
	ProductID          string              `json:"product_id"`
	Name               string              `json:"name"`
	Status             string              `json:"status,omitempty"`
	Description        string              `json:"description,omitempty"`
	BillingCycles      []BillingCycle      `json:"billing_cycles"`
	PaymentPreferences *PaymentPreferences `json:"payment_preferences"`
	Taxes              *Taxes              `json:"taxes,omitempty"`
	QuantitySupported  *bool               `json:"quantity_supported,omitempty"`
}

// PlanTemplate accumulates the fields of a plan to be created. Every setter
// validates its input and leaves the template unchanged when it returns an
// error.
type PlanTemplate struct {
	productID          string
	name               string
	status             string
	description        string
	billingCycles      []BillingCycle
	paymentPreferences *PaymentPreferences
	taxes              *Taxes
	quantitySupported  *bool
}

// NewPlanTemplate creates an empty template with status CREATED.
func NewPlanTemplate() *PlanTemplate {
	return &PlanTemplate{
		status: constants.PlanStatusCreated,
	}
}

// SetProductID sets the product the plan belongs to.
func (t *PlanTemplate) SetProductID(id string) error {
	err := lengthBetween("product_id", id, 6, 50)
	if err != nil {
		return err
	}

	t.productID = id

	return nil
}

// SetName sets the plan name.
func (t *PlanTemplate) SetName(name string) error {
	err := lengthBetween("name", name, 1, 127)
	if err != nil {
		return err
	}

	t.name = name

	return nil
}

// SetStatus sets the initial status, CREATED or ACTIVE.
func (t *PlanTemplate) SetStatus(status string) error {
	status = strings.ToUpper(status)

	err := checkVar("status", status, "oneof=CREATED ACTIVE")
	if err != nil {
		return err
	}

	t.status = status

	return nil
}

// SetDescription sets the plan description.
func (t *PlanTemplate) SetDescription(description string) error {
	err := lengthBetween("description", description, 1, 127)
	if err != nil {
		return err
	}

	t.description = description

	return nil
}

// SetTaxes sets the tax percentage, a decimal string in [0,100].
func (t *PlanTemplate) SetTaxes(percentage string, inclusive bool) error {
	taxes := &Taxes{Percentage: percentage, Inclusive: inclusive}

	err := checkStruct(taxes)
	if err != nil {
		return prefixField("taxes", err)
	}

	t.taxes = taxes

	return nil
}

// SetQuantitySupported sets whether subscribers may buy more than one unit.
func (t *PlanTemplate) SetQuantitySupported(supported bool) error {
	t.quantitySupported = &supported

	return nil
}

// SetPaymentPreferences sets the setup fee and failed-payment handling.
func (t *PlanTemplate) SetPaymentPreferences(prefs PaymentPreferences) error {
	prefs.SetupFeeFailureAction = strings.ToUpper(prefs.SetupFeeFailureAction)

	err := checkStruct(&prefs)
	if err != nil {
		return prefixField("payment_preferences", err)
	}

	t.paymentPreferences = &prefs

	return nil
}

// AddBillingCycle appends a billing cycle. A nil pricing scheme is only
// accepted for a TRIAL cycle, which is then free.
func (t *PlanTemplate) AddBillingCycle(pricing *PricingScheme, frequency Frequency, tenure string, sequence, totalCycles int) error {
	tenure = strings.ToUpper(tenure)
	frequency.IntervalUnit = strings.ToUpper(frequency.IntervalUnit)

	err := checkVar("tenure_type", tenure, "oneof=TRIAL REGULAR")
	if err != nil {
		return err
	}

	if tenure == constants.TenureTrial && t.countTenure(constants.TenureTrial) >= constants.MaxTrialCycles {
		return &ValidationError{
			Field:   "tenure_type",
			Rule:    "max_trials",
			Value:   tenure,
			Message: fmt.Sprintf("a plan may have at most %d TRIAL cycles", constants.MaxTrialCycles),
		}
	}

	var scheme *PricingScheme
	if pricing != nil {
		scheme, err = checkPricingScheme(*pricing)
		if err != nil {
			return err
		}
	} else if tenure != constants.TenureTrial {
		return &ValidationError{Field: "pricing_scheme", Rule: "required", Message: "is required for REGULAR cycles"}
	}

	err = checkFrequency(frequency)
	if err != nil {
		return err
	}

	err = t.checkSequence(sequence)
	if err != nil {
		return err
	}

	err = checkVar("total_cycles", totalCycles, fmt.Sprintf("min=0,max=%d", maxTotalCycles))
	if err != nil {
		return err
	}

	t.billingCycles = append(t.billingCycles, BillingCycle{
		PricingScheme: scheme,
		Frequency:     frequency,
		TenureType:    tenure,
		Sequence:      sequence,
		TotalCycles:   totalCycles,
	})

	return nil
}

// BillingCycles returns a copy of the cycles added so far, in insertion order.
func (t *PlanTemplate) BillingCycles() []BillingCycle {
	cycles := make([]BillingCycle, len(t.billingCycles))
	copy(cycles, t.billingCycles)

	return cycles
}

func (t *PlanTemplate) countTenure(tenure string) int {
	n := 0

	for _, cycle := range t.billingCycles {
		if cycle.TenureType == tenure {
			n++
		}
	}

	return n
}

func (t *PlanTemplate) checkSequence(sequence int) error {
	err := checkVar("sequence", sequence, fmt.Sprintf("min=%d,max=%d", minSequence, maxSequence))
	if err != nil {
		return err
	}

	for _, cycle := range t.billingCycles {
		if cycle.Sequence == sequence {
			return &ValidationError{
				Field:   "sequence",
				Rule:    "unique",
				Value:   sequence,
				Message: fmt.Sprintf("sequence %d is already used", sequence),
			}
		}
	}

	return nil
}

func checkFrequency(frequency Frequency) error {
	err := checkStruct(&frequency)
	if err != nil {
		return prefixField("frequency", err)
	}

	limit := intervalCaps[frequency.IntervalUnit]
	if frequency.IntervalCount > limit {
		return &ValidationError{
			Field:   "frequency.interval_count",
			Rule:    "max",
			Value:   frequency.IntervalCount,
			Message: fmt.Sprintf("must be at most %d for %s", limit, frequency.IntervalUnit),
		}
	}

	return nil
}

// checkPricingScheme normalizes and validates a pricing scheme and returns the copy to store.
func checkPricingScheme(scheme PricingScheme) (*PricingScheme, error) {
	scheme.PricingModel = strings.ToUpper(scheme.PricingModel)

	err := checkStruct(&scheme)
	if err != nil {
		return nil, prefixField("pricing_scheme", err)
	}

	if scheme.PricingModel == "" && scheme.FixedPrice == nil {
		return nil, &ValidationError{
			Field:   "pricing_scheme.fixed_price",
			Rule:    "required",
			Message: "is required when no pricing model is set",
		}
	}

	if scheme.PricingModel == constants.PricingModelTiered && len(scheme.Tiers) == 0 {
		return nil, &ValidationError{
			Field:   "pricing_scheme.tiers",
			Rule:    "required",
			Message: "TIERED pricing needs at least one tier",
		}
	}

	scheme.Tiers = append([]PricingTier(nil), scheme.Tiers...)

	return &scheme, nil
}

// prefixField qualifies the field of a *ValidationError with its parent object.
func prefixField(parent string, err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	verr.Field = parent + "." + verr.Field

	return verr
}

// Build checks that every required field is set and returns the request body.
func (t *PlanTemplate) Build() (*PlanCreateRequest, error) {
	var missing []string

	if t.productID == "" {
		missing = append(missing, "product_id")
	}

	if t.name == "" {
		missing = append(missing, "name")
	}

	if len(t.billingCycles) == 0 {
		missing = append(missing, "billing_cycles")
	}

	if t.paymentPreferences == nil {
		missing = append(missing, "payment_preferences")
	}

	if len(missing) > 0 {
		return nil, &IncompleteTemplateError{Template: "plan", Missing: missing}
	}

	return &PlanCreateRequest{
		ProductID:          t.productID,
		Name:               t.name,
		Status:             t.status,
		Description:        t.description,
		BillingCycles:      t.BillingCycles(),
		PaymentPreferences: t.paymentPreferences,
		Taxes:              t.taxes,
		QuantitySupported:  t.quantitySupported,
	}, nil
}

// Serialize returns the JSON body for the create call.
func (t *PlanTemplate) Serialize() ([]byte, error) {
	req, err := t.Build()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan template: %w", err)
	}

	return data, nil
}
