package grant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/identity"
)

// ParticipantDirectory resolves participant identifiers (user id or email)
// against the user directory.
type ParticipantDirectory struct {
	userRepo identity.UserRepository
}

// NewParticipantDirectory creates a new ParticipantDirectory
func NewParticipantDirectory(userRepo identity.UserRepository) *ParticipantDirectory {
	return &ParticipantDirectory{userRepo: userRepo}
}

// ParticipantInput is one requested participant, identified by user id
// or email address
type ParticipantInput struct {
	Identifier string
	Role       grant.Role
}

// ResolvedParticipant is a participant input resolved to a concrete user
type ResolvedParticipant struct {
	UserID uuid.UUID
	Role   grant.Role
}

// Resolve maps an identifier to a user. Identifiers that parse as a UUID
// are looked up by id, everything else by normalized email.
func (d *ParticipantDirectory) Resolve(ctx context.Context, identifier string) (*identity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, grant.ErrUserNotFound
	}

	if id, err := uuid.Parse(identifier); err == nil {
		user, err := d.userRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user by id: %w", err)
		}
		if user == nil {
			return nil, grant.ErrUserNotFound
		}
		return user, nil
	}

	user, err := d.userRepo.FindByEmail(ctx, identity.NormalizeEmail(identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if user == nil {
		return nil, grant.ErrUserNotFound
	}
	return user, nil
}

// ResolveAll resolves a participant list, dropping duplicates (first
// occurrence wins) and any entry resolving to the creator.
func (d *ParticipantDirectory) ResolveAll(ctx context.Context, creatorID uuid.UUID, inputs []ParticipantInput) ([]ResolvedParticipant, error) {
	seen := make(map[uuid.UUID]bool, len(inputs))
	resolved := make([]ResolvedParticipant, 0, len(inputs))

	for _, input := range inputs {
		if !input.Role.IsAssignable() {
			return nil, grant.ErrInvalidRole
		}
		user, err := d.Resolve(ctx, input.Identifier)
		if err != nil {
			return nil, err
		}
		userID := user.GetID()
		if userID == creatorID || seen[userID] {
			continue
		}
		seen[userID] = true
		resolved = append(resolved, ResolvedParticipant{UserID: userID, Role: input.Role})
	}
	return resolved, nil
}
