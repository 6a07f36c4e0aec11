package grant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantflow/backend/internal/domain/shared"
)

func TestAuthorize(t *testing.T) {
	grantorID := uuid.New()
	supervisorID := uuid.New()
	granteeID := uuid.New()

	program := newTestProgram(t, grantorID)
	require.NoError(t, program.Invite(supervisorID, RoleSupervisor))
	require.NoError(t, program.Invite(granteeID, RoleGrantee))

	t.Run("grantor passes grantor check", func(t *testing.T) {
		assert.NoError(t, Authorize(program, grantorID, RoleGrantor))
	})

	t.Run("supervisor passes supervisor check", func(t *testing.T) {
		assert.NoError(t, Authorize(program, supervisorID, RoleGrantor, RoleSupervisor))
	})

	t.Run("grantee fails supervisor check", func(t *testing.T) {
		err := Authorize(program, granteeID, RoleGrantor, RoleSupervisor)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("outsider fails every check", func(t *testing.T) {
		err := Authorize(program, uuid.New(), RoleGrantor, RoleSupervisor, RoleGrantee)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("removed participant fails", func(t *testing.T) {
		p := newTestProgram(t, grantorID)
		userID := uuid.New()
		require.NoError(t, p.Invite(userID, RoleGrantee))
		require.NoError(t, p.RemoveParticipant(p.ParticipantByUser(userID).GetID()))

		err := Authorize(p, userID, RoleGrantee)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("grantor role not in allowed set fails", func(t *testing.T) {
		err := Authorize(program, grantorID, RoleGrantee)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}
