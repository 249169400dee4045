package paybill

import (
	"time"
)

// Money is an amount in a currency. Value is kept as the platform's decimal string.
type Money struct {
	CurrencyCode string `json:"currency_code" yaml:"currency_code" validate:"required,currency"`
	Value        string `json:"value"         yaml:"value"         validate:"required,amount"`
}

// Link represents a HATEOAS link returned with every resource.
type Link struct {
	Href   string `json:"href"             yaml:"href"`
	Rel    string `json:"rel"              yaml:"rel"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Links is the list of links attached to a resource or page.
type Links []Link

// Find returns the link with the given rel, or nil.
func (l Links) Find(rel string) *Link {
	for i := range l {
		if l[i].Rel == rel {
			return &l[i]
		}
	}

	return nil
}

// Timestamps holds the create and update times shared by platform resources.
type Timestamps struct {
	CreateTime *time.Time `json:"create_time,omitempty" yaml:"create_time,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty" yaml:"update_time,omitempty"`
}

// PageInfo is the pagination envelope returned when total_required is set.
type PageInfo struct {
	TotalItems int   `json:"total_items" yaml:"total_items"`
	TotalPages int   `json:"total_pages" yaml:"total_pages"`
	Links      Links `json:"links"       yaml:"links"`
}

// Collection is an insertion-ordered mapping from resource id to value.
// Setting an existing id replaces the value and keeps its position.
type Collection[T any] struct {
	keys  []string
	items map[string]T
}

// NewCollection creates an empty collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{
		items: make(map[string]T),
	}
}

// Set stores value under id.
func (c *Collection[T]) Set(id string, value T) {
	if _, ok := c.items[id]; !ok {
		c.keys = append(c.keys, id)
	}

	c.items[id] = value
}

// Get returns the value stored under id.
func (c *Collection[T]) Get(id string) (T, bool) {
	value, ok := c.items[id]

	return value, ok
}

// Has reports whether id is present.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.items[id]

	return ok
}

// Len returns the number of entries.
func (c *Collection[T]) Len() int {
	return len(c.keys)
}

// Keys returns the ids in insertion order.
func (c *Collection[T]) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)

	return keys
}

// Values returns the values in insertion order.
func (c *Collection[T]) Values() []T {
	values := make([]T, 0, len(c.keys))
	for _, key := range c.keys {
		values = append(values, c.items[key])
	}

	return values
}

// Each calls fn for every entry in insertion order until fn returns false.
func (c *Collection[T]) Each(fn func(id string, value T) bool) {
	for _, key := range c.keys {
		if !fn(key, c.items[key]) {
			return
		}
	}
}
