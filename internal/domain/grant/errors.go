package grant

import (
	"fmt"

	"github.com/grantflow/backend/internal/domain/shared"
)

// Validation errors
var (
	ErrInvalidStageSequence = shared.NewDomainError("INVALID_STAGE_SEQUENCE", "Stage orders must be sequential and start at 1")
	ErrInvalidRole          = shared.NewDomainError("INVALID_ROLE", "Role must be supervisor or grantee")
	ErrNoStagesConfigured   = shared.NewDomainError("NO_STAGES_CONFIGURED", "Program has no stages configured")
)

// State conflict errors
var (
	ErrAlreadyConfirmed        = shared.NewDomainError("ALREADY_CONFIRMED", "Program has already been confirmed")
	ErrProgramNotActive        = shared.NewDomainError("PROGRAM_NOT_ACTIVE", "Program is not active")
	ErrStageNotActive          = shared.NewDomainError("STAGE_NOT_ACTIVE", "Stage is not active")
	ErrPendingRequirements     = shared.NewDomainError("PENDING_REQUIREMENTS", "Cannot complete stage with pending requirements")
	ErrProofMissing            = shared.NewDomainError("PROOF_MISSING", "No proof has been submitted for this requirement")
	ErrAlreadyCompleted        = shared.NewDomainError("ALREADY_COMPLETED", "Requirement is already completed")
	ErrAlreadyInvited          = shared.NewDomainError("ALREADY_INVITED", "User is already an active participant")
	ErrGrantorAlreadyAssigned  = shared.NewDomainError("GRANTOR_ALREADY_ASSIGNED", "The grantor is already assigned to this program")
	ErrCannotChangeGrantorRole = shared.NewDomainError("CANNOT_CHANGE_GRANTOR_ROLE", "The grantor's role cannot be changed")
	ErrCannotRemoveGrantor     = shared.NewDomainError("CANNOT_REMOVE_GRANTOR", "The grantor cannot be removed from the program")
	ErrContractGatedNoProof    = shared.NewDomainError("CONTRACT_GATED_NO_PROOF", "Contract-gated requirements do not accept proof submissions")
)

// Not-found errors
var (
	ErrProgramNotFound     = shared.NewDomainError("PROGRAM_NOT_FOUND", "Grant program not found")
	ErrStageNotFound       = shared.NewDomainError("STAGE_NOT_FOUND", "Stage not found")
	ErrRequirementNotFound = shared.NewDomainError("REQUIREMENT_NOT_FOUND", "Requirement not found")
	ErrParticipantNotFound = shared.NewDomainError("PARTICIPANT_NOT_FOUND", "Participant not found")
	ErrUserNotFound        = shared.NewDomainError("USER_NOT_FOUND", "User not found")
)

// NewDepositFailedError reports a funding deposit rejected by the bank.
// The confirm transition aborts and the program stays in draft.
func NewDepositFailedError(status string) *shared.DomainError {
	return shared.NewDomainError("DEPOSIT_FAILED", fmt.Sprintf("Funding deposit failed with status %q", status))
}
