package logger

import "context"

type contextKey string

// Context keys extracted into every log entry when present.
const (
	RunIDKey     contextKey = "run_id"
	AccountIDKey contextKey = "account_id"
	OperationKey contextKey = "operation"
)

var contextKeys = []contextKey{RunIDKey, AccountIDKey, OperationKey}

// WithRunID tags ctx with the identifier of the current extraction run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithAccountID tags ctx with the advertising account being processed.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDKey, accountID)
}

// WithOperation tags ctx with the remote operation kind ("bulk" or "report").
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}
