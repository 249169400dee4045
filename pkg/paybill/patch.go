package paybill

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Patch paths accepted by the plan update call.
const (
	PlanPathName                    = "/name"
	PlanPathDescription             = "/description"
	PlanPathAutoBillOutstanding     = "/payment_preferences/auto_bill_outstanding"
	PlanPathTaxPercentage           = "/taxes/percentage"
	PlanPathPaymentFailureThreshold = "/payment_preferences/payment_failure_threshold"
	PlanPathSetupFee                = "/payment_preferences/setup_fee"
	PlanPathSetupFeeFailureAction   = "/payment_preferences/setup_fee_failure_action"
)

// Patch paths accepted by the product update call.
const (
	ProductPathDescription = "/description"
	ProductPathCategory    = "/category"
	ProductPathImageURL    = "/image_url"
	ProductPathHomeURL     = "/home_url"
)

// PatchOperation is a single JSON Patch operation.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// operations is an ordered list of replace operations, at most one per path.
type operations []PatchOperation

func (o *operations) replace(path string, value interface{}) {
	for i := range *o {
		if (*o)[i].Path == path {
			(*o)[i].Value = value

			return
		}
	}

	*o = append(*o, PatchOperation{Op: "replace", Path: path, Value: value})
}

func (o operations) serialize(kind string) ([]byte, error) {
	if len(o) == 0 {
		return nil, ErrEmptyPatch
	}

	data, err := json.Marshal([]PatchOperation(o))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s patch: %w", kind, err)
	}

	return data, nil
}

// PlanPatch collects validated replace operations for a plan.
type PlanPatch struct {
	ops operations
}

// NewPlanPatch creates an empty plan patch.
func NewPlanPatch() *PlanPatch {
	return &PlanPatch{}
}

// SetName replaces the plan name.
func (p *PlanPatch) SetName(name string) error {
	err := lengthBetween("name", name, 1, 127)
	if err != nil {
		return err
	}

	p.ops.replace(PlanPathName, name)

	return nil
}

// SetDescription replaces the plan description.
func (p *PlanPatch) SetDescription(description string) error {
	err := lengthBetween("description", description, 1, 127)
	if err != nil {
		return err
	}

	p.ops.replace(PlanPathDescription, description)

	return nil
}

// SetAutoBillOutstanding replaces the auto-bill flag.
func (p *PlanPatch) SetAutoBillOutstanding(enabled bool) error {
	p.ops.replace(PlanPathAutoBillOutstanding, enabled)

	return nil
}

// SetTaxPercentage replaces the tax percentage.
func (p *PlanPatch) SetTaxPercentage(percentage string) error {
	err := checkVar("taxes.percentage", percentage, "required,percentage")
	if err != nil {
		return err
	}

	p.ops.replace(PlanPathTaxPercentage, percentage)

	return nil
}

// SetPaymentFailureThreshold replaces the failed payment threshold.
func (p *PlanPatch) SetPaymentFailureThreshold(threshold int) error {
	err := checkVar("payment_preferences.payment_failure_threshold", threshold, "min=0,max=999")
	if err != nil {
		return err
	}

	p.ops.replace(PlanPathPaymentFailureThreshold, threshold)

	return nil
}

// SetSetupFee replaces the setup fee.
func (p *PlanPatch) SetSetupFee(fee Money) error {
	err := checkStruct(&fee)
	if err != nil {
		return prefixField("payment_preferences.setup_fee", err)
	}

	p.ops.replace(PlanPathSetupFee, fee)

	return nil
}

// SetSetupFeeFailureAction replaces the setup fee failure action, CANCEL or CONTINUE.
func (p *PlanPatch) SetSetupFeeFailureAction(action string) error {
	action = strings.ToUpper(action)

	err := checkVar("payment_preferences.setup_fee_failure_action", action, "oneof=CANCEL CONTINUE")
	if err != nil {
		return err
	}

	p.ops.replace(PlanPathSetupFeeFailureAction, action)

	return nil
}

// Operations returns a copy of the collected operations.
func (p *PlanPatch) Operations() []PatchOperation {
	return append([]PatchOperation(nil), p.ops...)
}

// Len returns the number of operations.
func (p *PlanPatch) Len() int {
	return len(p.ops)
}

// Serialize returns the JSON Patch document. An empty patch is an error.
func (p *PlanPatch) Serialize() ([]byte, error) {
	return p.ops.serialize("plan")
}

func (p *PlanPatch) applyTo(plan *Plan) {
	for _, op := range p.ops {
		switch op.Path {
		case PlanPathName:
			plan.Name, _ = op.Value.(string)
		case PlanPathDescription:
			plan.Description, _ = op.Value.(string)
		case PlanPathTaxPercentage:
			if plan.Taxes == nil {
				plan.Taxes = &Taxes{}
			}

			plan.Taxes.Percentage, _ = op.Value.(string)
		default:
			if plan.PaymentPreferences == nil {
				plan.PaymentPreferences = &PaymentPreferences{}
			}

			applyPaymentPreference(plan.PaymentPreferences, op)
		}
	}
}

func applyPaymentPreference(prefs *PaymentPreferences, op PatchOperation) {
	switch op.Path {
	case PlanPathAutoBillOutstanding:
		prefs.AutoBillOutstanding, _ = op.Value.(bool)
	case PlanPathPaymentFailureThreshold:
		prefs.PaymentFailureThreshold, _ = op.Value.(int)
	case PlanPathSetupFee:
		if fee, ok := op.Value.(Money); ok {
			prefs.SetupFee = &fee
		}
	case PlanPathSetupFeeFailureAction:
		prefs.SetupFeeFailureAction, _ = op.Value.(string)
	}
}

// ProductPatch collects validated replace operations for a product.
type ProductPatch struct {
	ops operations
}

// NewProductPatch creates an empty product patch.
func NewProductPatch() *ProductPatch {
	return &ProductPatch{}
}

// SetDescription replaces the product description.
func (p *ProductPatch) SetDescription(description string) error {
	err := lengthBetween("description", description, 1, 127)
	if err != nil {
		return err
	}

	p.ops.replace(ProductPathDescription, description)

	return nil
}

// SetCategory replaces the product category.
func (p *ProductPatch) SetCategory(category string) error {
	err := checkVar("category", category, "upper_token")
	if err != nil {
		return err
	}

	p.ops.replace(ProductPathCategory, category)

	return nil
}

// SetImageURL replaces the product image URL.
func (p *ProductPatch) SetImageURL(imageURL string) error {
	err := checkVar("image_url", imageURL, "abs_url")
	if err != nil {
		return err
	}

	p.ops.replace(ProductPathImageURL, imageURL)

	return nil
}

// SetHomeURL replaces the product home page URL.
func (p *ProductPatch) SetHomeURL(homeURL string) error {
	err := checkVar("home_url", homeURL, "abs_url")
	if err != nil {
		return err
	}

	p.ops.replace(ProductPathHomeURL, homeURL)

	return nil
}

// Operations returns a copy of the collected operations.
func (p *ProductPatch) Operations() []PatchOperation {
	return append([]PatchOperation(nil), p.ops...)
}

// Len returns the number of operations.
func (p *ProductPatch) Len() int {
	return len(p.ops)
}

// Serialize returns the JSON Patch document. An empty patch is an error.
func (p *ProductPatch) Serialize() ([]byte, error) {
	return p.ops.serialize("product")
}

func (p *ProductPatch) applyTo(product *Product) {
	for _, op := range p.ops {
		value, _ := op.Value.(string)

		switch op.Path {
		case ProductPathDescription:
			product.Description = value
		case ProductPathCategory:
			product.Category = value
		case ProductPathImageURL:
			product.ImageURL = value
		case ProductPathHomeURL:
			product.HomeURL = value
		}
	}
}
