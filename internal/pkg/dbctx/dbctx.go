package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own *gorm.DB handle when Tx is nil, so callers
// only thread a transaction through when atomicity actually spans calls.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
