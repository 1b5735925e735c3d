// Package snsctx carries operator flags through a context.
package snsctx

import "context"

type ctxKey int

const (
	keyVerbose ctxKey = iota
	keyAssumeYes
)

func flag(ctx context.Context, key ctxKey) bool {
	v, _ := ctx.Value(key).(bool)
	return v
}

// IsVerbose reports whether raw bus frames should be dumped to the debug log.
func IsVerbose(ctx context.Context) bool { return flag(ctx, keyVerbose) }

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, keyVerbose, value)
}

// AssumeYes reports whether destructive operator commands may skip confirmation.
func AssumeYes(ctx context.Context) bool { return flag(ctx, keyAssumeYes) }

func SetAssumeYes(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, keyAssumeYes, value)
}
