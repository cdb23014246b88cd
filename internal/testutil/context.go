package testutil

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/types"
)

const DefaultTestUserID = "user_test_00000000000000000000"

// SetupContext returns a context carrying a request id and the given user
func SetupContext(userID string) context.Context {
	ctx := context.Background()
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	if userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}
	return ctx
}
