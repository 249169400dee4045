package commands

import (
	"fmt"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"gopkg.in/yaml.v3"
)

// planFile is the YAML document accepted by "plans create".
type planFile struct {
	ProductID          string                      `yaml:"product_id"`
	Name               string                      `yaml:"name"`
	Status             string                      `yaml:"status"`
	Description        string                      `yaml:"description"`
	BillingCycles      []paybill.BillingCycle      `yaml:"billing_cycles"`
	PaymentPreferences *paybill.PaymentPreferences `yaml:"payment_preferences"`
	Taxes              *paybill.Taxes              `yaml:"taxes"`
	QuantitySupported  *bool                       `yaml:"quantity_supported"`
}

// productFile is the YAML document accepted by "products create".
type productFile struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Category    string `yaml:"category"`
	ImageURL    string `yaml:"image_url"`
	HomeURL     string `yaml:"home_url"`
}

// parsePlanTemplate decodes a plan document and feeds it through the
// template setters, so every field is validated before any call is made.
func parsePlanTemplate(data []byte) (*paybill.PlanTemplate, error) {
	var file planFile

	err := yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan template: %w", err)
	}

	template := paybill.NewPlanTemplate()

	setters := []func() error{
		optional(file.ProductID, template.SetProductID),
		optional(file.Name, template.SetName),
		optional(file.Status, template.SetStatus),
		optional(file.Description, template.SetDescription),
	}

	for _, set := range setters {
		err = set()
		if err != nil {
			return nil, err
		}
	}

	for _, cycle := range file.BillingCycles {
		err = template.AddBillingCycle(cycle.PricingScheme, cycle.Frequency, cycle.TenureType, cycle.Sequence, cycle.TotalCycles)
		if err != nil {
			return nil, fmt.Errorf("billing cycle %d: %w", cycle.Sequence, err)
		}
	}

	if file.PaymentPreferences != nil {
		err = template.SetPaymentPreferences(*file.PaymentPreferences)
		if err != nil {
			return nil, err
		}
	}

	if file.Taxes != nil {
		err = template.SetTaxes(file.Taxes.Percentage, file.Taxes.Inclusive)
		if err != nil {
			return nil, err
		}
	}

	if file.QuantitySupported != nil {
		err = template.SetQuantitySupported(*file.QuantitySupported)
		if err != nil {
			return nil, err
		}
	}

	return template, nil
}

func parseProductTemplate(data []byte) (*paybill.ProductTemplate, error) {
	var file productFile

	err := yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product template: %w", err)
	}

	template := paybill.NewProductTemplate()

	setters := []func() error{
		optional(file.ID, template.SetID),
		optional(file.Name, template.SetName),
		optional(file.Description, template.SetDescription),
		optional(file.Type, template.SetType),
		optional(file.Category, template.SetCategory),
		optional(file.ImageURL, template.SetImageURL),
		optional(file.HomeURL, template.SetHomeURL),
	}

	for _, set := range setters {
		err = set()
		if err != nil {
			return nil, err
		}
	}

	return template, nil
}

// parsePricingUpdates decodes the document accepted by "plans update-pricing".
func parsePricingUpdates(data []byte) ([]paybill.PricingSchemeUpdate, error) {
	var file struct {
		PricingSchemes []paybill.PricingSchemeUpdate `yaml:"pricing_schemes"`
	}

	err := yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pricing schemes: %w", err)
	}

	return file.PricingSchemes, nil
}

// optional skips the setter for empty values.
func optional(value string, set func(string) error) func() error {
	return func() error {
		if value == "" {
			return nil
		}

		return set(value)
	}
}
