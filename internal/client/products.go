package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// ProductsClient implements paybill.ProductsClient.
type ProductsClient struct {
	gate  *Client
	cache *paybill.ResourceCache[paybill.Product]
}

// NewProductsClient creates a new products client.
func NewProductsClient(gate *Client, cache *paybill.ResourceCache[paybill.Product]) *ProductsClient {
	return &ProductsClient{
		gate:  gate,
		cache: cache,
	}
}

func productPath(id string) string {
	return constants.APIPathProducts + "/" + url.PathEscape(id)
}

// Get implements paybill.ProductsClient.Get.
func (c *ProductsClient) Get(ctx context.Context, id string, bypassCache bool) (*paybill.Product, error) {
	if id == "" {
		return nil, paybill.ErrIDRequired
	}

	if len(id) > constants.MaxProductIDLength {
		return nil, &paybill.ValidationError{
			Field:   "product_id",
			Rule:    "max",
			Value:   id,
			Message: fmt.Sprintf("must be at most %d characters", constants.MaxProductIDLength),
		}
	}

	if !bypassCache {
		if product, ok := c.cache.Get(ctx, id); ok {
			return product.Bind(c), nil
		}
	}

	resp, err := c.gate.Request(ctx, http.MethodGet, productPath(id), nil, preferHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound || resp.Body == nil {
		return nil, &paybill.NotFoundError{Resource: "product", ID: id}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	product, err := c.wrap(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, product.ID, product)

	return product, nil
}

// List implements paybill.ProductsClient.List.
func (c *ProductsClient) List(ctx context.Context, opts *paybill.ProductListOptions) (*paybill.Collection[*paybill.Product], error) {
	if opts == nil {
		opts = &paybill.ProductListOptions{}
	}

	products, err := fetchPages[paybill.Product](ctx, c.gate, constants.APIPathProducts, "products", nil, opts.PageCount, opts.All)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	collection := paybill.NewCollection[*paybill.Product]()

	for _, product := range products {
		product.Bind(c)
		collection.Set(product.ID, product)
		c.cache.Put(ctx, product.ID, product)
	}

	return collection, nil
}

// Create implements paybill.ProductsClient.Create.
func (c *ProductsClient) Create(ctx context.Context, template *paybill.ProductTemplate) (*paybill.Product, error) {
	if template == nil {
		return nil, paybill.ErrTemplateRequired
	}

	body, err := template.Serialize()
	if err != nil {
		return nil, err
	}

	resp, err := c.gate.Request(ctx, http.MethodPost, constants.APIPathProducts, nil, preferHeaders(), body)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	if resp.StatusCode != http.StatusCreated || resp.Body == nil {
		return nil, paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	product, err := c.wrap(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, product.ID, product)

	return product, nil
}

// Update implements paybill.ProductsClient.Update.
func (c *ProductsClient) Update(ctx context.Context, id string, patch *paybill.ProductPatch) error {
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

	resp, err := c.gate.Request(ctx, http.MethodPatch, productPath(id), nil, nil, body)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	if resp.StatusCode != http.StatusNoContent {
		return paybill.ParseResponseError(resp.StatusCode, resp.Body)
	}

	c.cache.Modify(ctx, id, func(product *paybill.Product) { product.ApplyPatch(patch) })

	return nil
}

func (c *ProductsClient) wrap(body []byte) (*paybill.Product, error) {
	product := &paybill.Product{}

	err := json.Unmarshal(body, product)
	if err != nil {
		return nil, fmt.Errorf("parsing product: %w", err)
	}

	return product.Bind(c), nil
}

// CacheStats returns the product cache counters.
func (c *ProductsClient) CacheStats() paybill.CacheStats {
	return c.cache.Stats()
}
