package cache

import (
	"context"
	"testing"
	"time"

	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) Cache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg, logger.NewNoopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	key := GenerateKey(PrefixInvoicePDF, "inv_1")
	assert.Equal(t, "invoice_pdf:v1::inv_1", key)

	c.Set(ctx, key, []byte("%PDF"), 0)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF"), v)

	c.Set(ctx, GenerateKey(PrefixInvoice, "inv_1"), "x", time.Minute)
	c.DeleteByPrefix(ctx, PrefixInvoicePDF)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixInvoice, "inv_1"))
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, GenerateKey(PrefixInvoice, "inv_1"))
	assert.False(t, ok)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
