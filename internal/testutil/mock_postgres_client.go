package testutil

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient runs transactional functions inline and counts them
type MockPostgresClient struct {
	Transactions int
}

func NewMockPostgresClient() *MockPostgresClient {
	return &MockPostgresClient{}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.Transactions++
	return fn(ctx)
}
