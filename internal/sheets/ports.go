package sheets

import (
	"context"

	"findash/internal/core"
)

// TransactionAppender mirrors transactions to an external sheet.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
