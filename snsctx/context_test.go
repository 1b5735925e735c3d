package snsctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlags(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.False(t, AssumeYes(ctx))

	ctx = SetVerbose(ctx, true)
	assert.True(t, IsVerbose(ctx))
	assert.False(t, AssumeYes(ctx))

	ctx = SetAssumeYes(ctx, true)
	assert.True(t, AssumeYes(ctx))
	assert.False(t, IsVerbose(SetVerbose(ctx, false)))
}
