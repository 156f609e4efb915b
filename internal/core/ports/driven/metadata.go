package driven

import "context"

// MetadataSource loads the per-document side-table keyed by numeric identifier.
type MetadataSource interface {
	Load(ctx context.Context) (map[int]map[string]any, error)
}
