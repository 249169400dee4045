package paybill

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProductCreateRequest is the body sent to create a catalog product.
type ProductCreateRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	HomeURL     string `json:"home_url,omitempty"`
}

// ProductTemplate accumulates the fields of a product to be created.
type ProductTemplate struct {
	req ProductCreateRequest
}

// NewProductTemplate creates an empty product template.
func NewProductTemplate() *ProductTemplate {
	return &ProductTemplate{}
}

// SetID sets a caller-chosen product id. The platform generates one when unset.
func (t *ProductTemplate) SetID(id string) error {
	err := lengthBetween("id", id, 6, 50)
	if err != nil {
		return err
	}

	t.req.ID = id

	return nil
}

// SetName sets the product name.
func (t *ProductTemplate) SetName(name string) error {
	err := lengthBetween("name", name, 1, 127)
	if err != nil {
		return err
	}

	t.req.Name = name

	return nil
}

// SetDescription sets the product description.
func (t *ProductTemplate) SetDescription(description string) error {
	err := lengthBetween("description", description, 1, 127)
	if err != nil {
		return err
	}

	t.req.Description = description

	return nil
}

// SetType sets the product type: PHYSICAL, DIGITAL or SERVICE.
func (t *ProductTemplate) SetType(productType string) error {
	productType = strings.ToUpper(productType)

	err := checkVar("type", productType, "oneof=PHYSICAL DIGITAL SERVICE")
	if err != nil {
		return err
	}

	t.req.Type = productType

	return nil
}

// SetCategory sets the product category, an upper-case token such as SOFTWARE.
func (t *ProductTemplate) SetCategory(category string) error {
	err := checkVar("category", category, "upper_token")
	if err != nil {
		return err
	}

	t.req.Category = category

	return nil
}

// SetImageURL sets the product image URL.
func (t *ProductTemplate) SetImageURL(imageURL string) error {
	err := checkVar("image_url", imageURL, "abs_url")
	if err != nil {
		return err
	}

	t.req.ImageURL = imageURL

	return nil
}

// SetHomeURL sets the product home page URL.
func (t *ProductTemplate) SetHomeURL(homeURL string) error {
	err := checkVar("home_url", homeURL, "abs_url")
	if err != nil {
		return err
	}

	t.req.HomeURL = homeURL

	return nil
}

// Build checks that name and type are set and returns the request body.
func (t *ProductTemplate) Build() (*ProductCreateRequest, error) {
	var missing []string

	if t.req.Name == "" {
		missing = append(missing, "name")
	}

	if t.req.Type == "" {
		missing = append(missing, "type")
	}

	if len(missing) > 0 {
		return nil, &IncompleteTemplateError{Template: "product", Missing: missing}
	}

	req := t.req

	return &req, nil
}

// Serialize returns the JSON body for the create call.
func (t *ProductTemplate) Serialize() ([]byte, error) {
	req, err := t.Build()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product template: %w", err)
	}

	return data, nil
}
