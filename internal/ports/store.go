package ports

import "context"

// Store groups the repositories that must change together. WithinTx runs fn
// against a transaction-bound Store; any error rolls every write back.
type Store interface {
	Catalog() DestinationCatalog
	Plans() PlanRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
