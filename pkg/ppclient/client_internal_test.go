package ppclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

type closingCache struct {
	paybill.Cache

	closed int
}

func (c *closingCache) Close() error {
	c.closed++

	return nil
}

func TestCloseCache(t *testing.T) {
	t.Parallel()

	backend := &closingCache{Cache: paybill.NewMemoryCache(10)}
	closeCache(backend)
	assert.Equal(t, 1, backend.closed)

	assert.NotPanics(t, func() { closeCache(paybill.NewNoOpCache()) })
}
