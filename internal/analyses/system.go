package analyses

import (
	"context"

	"github.com/google/uuid"

	"github.com/terrasense/regolith/pkg/pagination"
)

// System defines the public contract for analysis domain operations.
type System interface {
	Handler() *Handler

	// Ingest captures evidence (when provided) and commits a pending
	// analysis record. Evidence capture failure aborts before the insert;
	// insert failure does not compensate an uploaded blob.
	Ingest(ctx context.Context, cmd IngestCommand) (*Analysis, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Analysis], error)

	Find(ctx context.Context, id uuid.UUID) (*Analysis, error)
}
