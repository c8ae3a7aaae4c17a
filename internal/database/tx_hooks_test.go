package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommitRunsImmediatelyOutsideTransaction(t *testing.T) {
	ran := 0
	AfterCommit(context.Background(), func(context.Context) { ran++ })
	assert.Equal(t, 1, ran)
}

func TestAfterCommitDefersUntilFlush(t *testing.T) {
	ctx, flush := DeferHooks(context.Background())

	ran := 0
	AfterCommit(ctx, func(context.Context) { ran++ })
	AfterCommit(ctx, func(context.Context) { ran++ })
	assert.Equal(t, 0, ran, "hooks must not run before the transaction commits")

	flush(context.Background())
	assert.Equal(t, 2, ran)
}

func TestAfterCommitNestedWorkJoinsOuterHooks(t *testing.T) {
	ctx, flush := DeferHooks(context.Background())

	// A callee that received the armed context registers into the same
	// hook set; it cannot flush on its own.
	callee := func(ctx context.Context, ran *int) {
		AfterCommit(ctx, func(context.Context) { *ran++ })
	}

	ran := 0
	callee(ctx, &ran)
	assert.Equal(t, 0, ran)

	flush(context.Background())
	assert.Equal(t, 1, ran)
}

func TestAfterCommitDiscardedWhenNeverFlushed(t *testing.T) {
	ctx, _ := DeferHooks(context.Background())

	ran := 0
	AfterCommit(ctx, func(context.Context) { ran++ })

	// A rollback simply never flushes.
	assert.Equal(t, 0, ran)
}
