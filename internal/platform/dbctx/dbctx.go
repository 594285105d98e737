package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own *gorm.DB when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Of returns a Context without a transaction.
func Of(ctx context.Context) Context { return Context{Ctx: ctx} }

// InTx returns a Context bound to tx.
func InTx(ctx context.Context, tx *gorm.DB) Context { return Context{Ctx: ctx, Tx: tx} }
