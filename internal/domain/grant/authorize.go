package grant

import (
	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/shared"
)

// Authorize decides whether a user may perform an action that requires one
// of the allowed roles on the program. The grantor role is satisfied by
// program ownership; every other role requires an active participant row.
// There is no role hierarchy.
func Authorize(p *GrantProgram, userID uuid.UUID, allowed ...Role) error {
	for _, role := range allowed {
		if role == RoleGrantor && p.GrantorID == userID {
			return nil
		}
	}

	participant := p.ParticipantByUser(userID)
	if participant == nil || !participant.Active {
		return shared.ErrForbidden
	}
	for _, role := range allowed {
		if participant.Role == role {
			return nil
		}
	}
	return shared.ErrForbidden
}
