package grant

import (
	"context"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/shared"
)

// Repository persists grant program aggregates. Finders return (nil, nil)
// when nothing matches. Save must persist the whole tree atomically and
// enforce the aggregate version (optimistic locking), returning
// shared.ErrConcurrencyConflict when the stored version moved.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*GrantProgram, error)
	FindByStageID(ctx context.Context, stageID uuid.UUID) (*GrantProgram, error)
	FindByRequirementID(ctx context.Context, requirementID uuid.UUID) (*GrantProgram, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]GrantProgram, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, program *GrantProgram) error
	Save(ctx context.Context, program *GrantProgram) error
}
