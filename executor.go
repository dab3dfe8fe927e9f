package sqliter

import "context"

// Executor runs SQL text against the storage engine.
// Implementations bind args to the "?" placeholders; the Model never
// interpolates values into the text. Errors are returned to callers unchanged.
type Executor interface {
	// Run executes a statement that returns no rows and reports the affected row count.
	Run(ctx context.Context, query string, args ...any) (int64, error)
	// All executes a query and returns every row.
	All(ctx context.Context, query string, args ...any) ([]Row, error)
}
