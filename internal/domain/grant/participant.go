package grant

import (
	"time"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/shared"
)

// Role is a participant's role on a grant program
type Role string

const (
	RoleGrantor    Role = "grantor"
	RoleSupervisor Role = "supervisor"
	RoleGrantee    Role = "grantee"
)

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleGrantor, RoleSupervisor, RoleGrantee:
		return true
	}
	return false
}

// IsAssignable returns true if the role can be granted through invitations
// or role changes. The grantor role is fixed at program creation.
func (r Role) IsAssignable() bool {
	return r == RoleSupervisor || r == RoleGrantee
}

// Participant is a user's role membership on a grant program.
// Removal is soft: the row stays with Active=false so a later invitation
// can reactivate it, preserving the (user, program) uniqueness invariant.
type Participant struct {
	shared.BaseEntity
	ProgramID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_user_program,priority:2"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_user_program,priority:1"`
	Role      Role      `gorm:"type:varchar(20);not null"`
	Active    bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Participant) TableName() string {
	return "participants"
}

// NewParticipant creates an active participant row
func NewParticipant(programID, userID uuid.UUID, role Role) Participant {
	return Participant{
		BaseEntity: shared.NewBaseEntity(),
		ProgramID:  programID,
		UserID:     userID,
		Role:       role,
		Active:     true,
	}
}

// Reactivate re-enables a soft-removed participant with a new role
func (p *Participant) Reactivate(role Role) {
	p.Role = role
	p.Active = true
	p.UpdatedAt = time.Now()
}

// Deactivate soft-removes the participant
func (p *Participant) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}
