package reports

import "context"

// Repo persists whole report records. Create never overwrites; Update replaces an existing record.
type Repo interface {
	Create(ctx context.Context, report Report) error
	Get(ctx context.Context, id string) (Report, error)
	List(ctx context.Context) ([]Report, error)
	Update(ctx context.Context, report Report) error
}
