package grant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/payment"
	"github.com/grantflow/backend/internal/domain/shared"
)

// GrantService orchestrates the grant program lifecycle: creation,
// confirmation and funding, participant management, requirement proof
// flow and stage payouts.
type GrantService struct {
	programRepo    grant.Repository
	directory      *ParticipantDirectory
	gateway        payment.Gateway
	fundingAccount string
	logger         *zap.Logger
}

// NewGrantService creates a new GrantService. fundingAccount is the
// platform account that receives the confirm-time funding deposit.
func NewGrantService(
	programRepo grant.Repository,
	directory *ParticipantDirectory,
	gateway payment.Gateway,
	fundingAccount string,
	logger *zap.Logger,
) *GrantService {
	return &GrantService{
		programRepo:    programRepo,
		directory:      directory,
		gateway:        gateway,
		fundingAccount: fundingAccount,
		logger:         logger,
	}
}

// StageInput describes one stage of a new program
type StageInput struct {
	Order        int
	Amount       decimal.Decimal
	Requirements []RequirementInput
}

// RequirementInput describes one requirement of a new stage
type RequirementInput struct {
	Name        string
	Description string
}

// CreateProgramRequest carries everything needed to create a draft program
type CreateProgramRequest struct {
	GrantorID         uuid.UUID
	Name              string
	BankAccountNumber string
	Stages            []StageInput
	Participants      []ParticipantInput
}

// CreateProgram creates a draft program with the grantor plus the resolved
// participant list. Duplicate identifiers keep their first role; entries
// resolving to the grantor are dropped.
func (s *GrantService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*grant.GrantProgram, error) {
	specs := make([]grant.StageSpec, 0, len(req.Stages))
	for _, stage := range req.Stages {
		reqs := make([]grant.RequirementSpec, 0, len(stage.Requirements))
		for _, r := range stage.Requirements {
			reqs = append(reqs, grant.RequirementSpec{Name: r.Name, Description: r.Description})
		}
		specs = append(specs, grant.StageSpec{Order: stage.Order, Amount: stage.Amount, Requirements: reqs})
	}

	program, err := grant.NewGrantProgram(req.Name, req.BankAccountNumber, req.GrantorID, specs)
	if err != nil {
		return nil, err
	}

	resolved, err := s.directory.ResolveAll(ctx, req.GrantorID, req.Participants)
	if err != nil {
		return nil, err
	}
	for _, p := range resolved {
		if err := program.Invite(p.UserID, p.Role); err != nil {
			return nil, err
		}
	}

	if err := s.programRepo.Create(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	s.logger.Info("grant program created",
		zap.String("program_id", program.GetID().String()),
		zap.String("grantor_id", req.GrantorID.String()),
		zap.Int("stages", len(program.Stages)))
	return program, nil
}

// ConfirmProgram activates a draft program. The full program amount is
// deposited into the platform funding account first; a failed deposit
// aborts the confirmation and the program stays in draft. Stage payouts
// later draw against this funding and go to the program payout account.
func (s *GrantService) ConfirmProgram(ctx context.Context, programID, actorID uuid.UUID) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor); err != nil {
		return nil, err
	}
	if err := program.EnsureConfirmable(); err != nil {
		return nil, err
	}

	total := program.TotalAmount()
	reference := fmt.Sprintf("GrantProgram:%s", program.GetID())
	tx, err := s.gateway.Deposit(ctx, s.fundingAccount, total, reference)
	if err != nil {
		s.logger.Error("program funding deposit failed",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		return nil, err
	}
	if !tx.Succeeded() {
		return nil, grant.NewDepositFailedError(tx.Status)
	}

	if err := program.Confirm(); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}

	s.logger.Info("grant program confirmed",
		zap.String("program_id", programID.String()),
		zap.String("funded_amount", total.String()),
		zap.String("bank_transaction", tx.TransactionID))
	return program, nil
}

// InviteParticipant adds a participant to a program. Grantor only.
func (s *GrantService) InviteParticipant(ctx context.Context, programID, actorID uuid.UUID, identifier string, role grant.Role) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor); err != nil {
		return nil, err
	}

	user, err := s.directory.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := program.Invite(user.GetID(), role); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// ChangeParticipantRole switches a participant between supervisor and
// grantee. Grantor only.
func (s *GrantService) ChangeParticipantRole(ctx context.Context, programID, actorID, participantID uuid.UUID, role grant.Role) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor); err != nil {
		return nil, err
	}
	if err := program.ChangeParticipantRole(participantID, role); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// RemoveParticipant deactivates a participant. Grantor only.
func (s *GrantService) RemoveParticipant(ctx context.Context, programID, actorID, participantID uuid.UUID) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor); err != nil {
		return nil, err
	}
	if err := program.RemoveParticipant(participantID); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// SubmitRequirementProof records a proof reference on a requirement.
// Grantee only.
func (s *GrantService) SubmitRequirementProof(ctx context.Context, requirementID, actorID uuid.UUID, proofRef string) (*grant.GrantProgram, error) {
	program, err := s.programRepo.FindByRequirementID(ctx, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, grant.ErrRequirementNotFound
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantee); err != nil {
		return nil, err
	}
	if err := program.SubmitProof(requirementID, proofRef, actorID); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// CompleteRequirement marks a requirement as completed after reviewing
// its proof. Grantor or supervisor.
func (s *GrantService) CompleteRequirement(ctx context.Context, requirementID, actorID uuid.UUID) (*grant.GrantProgram, error) {
	program, err := s.programRepo.FindByRequirementID(ctx, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, grant.ErrRequirementNotFound
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor, grant.RoleSupervisor); err != nil {
		return nil, err
	}
	if err := program.CompleteRequirement(requirementID); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// StageCompletionResult reports the state transition and the payout
// attempt for a completed stage
type StageCompletionResult struct {
	Program          *grant.GrantProgram
	ProgramCompleted bool
	NextStageID      *uuid.UUID
	PayoutAttempted  bool
	PayoutSucceeded  bool
	PayoutReference  string
}

// CompleteStage completes the active stage and pays out its amount.
// Grantor and supervisor may complete any stage; a grantee may complete
// only contract gated stages. The payout is skipped for contract gated
// stages (the purchase flow disburses those) and a failed payout is
// logged but does not roll back the completed stage.
func (s *GrantService) CompleteStage(ctx context.Context, stageID, actorID uuid.UUID) (*StageCompletionResult, error) {
	program, err := s.programRepo.FindByStageID(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, grant.ErrStageNotFound
	}

	stage := program.StageByID(stageID)
	if stage == nil {
		return nil, grant.ErrStageNotFound
	}
	allowed := []grant.Role{grant.RoleGrantor, grant.RoleSupervisor}
	if stage.IsContractGated() {
		allowed = append(allowed, grant.RoleGrantee)
	}
	if err := grant.Authorize(program, actorID, allowed...); err != nil {
		return nil, err
	}

	transition, err := program.CompleteStage(stageID)
	if err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}

	result := &StageCompletionResult{
		Program:          program,
		ProgramCompleted: transition.ProgramCompleted,
	}
	if transition.NextStage != nil {
		nextID := transition.NextStage.GetID()
		result.NextStageID = &nextID
	}

	if !transition.ContractGated {
		result.PayoutAttempted = true
		result.PayoutReference = fmt.Sprintf("GrantStage:%s", stageID)
		tx, err := s.gateway.Deposit(ctx, program.BankAccountNumber, transition.Stage.Amount, result.PayoutReference)
		switch {
		case err != nil:
			s.logger.Error("stage payout failed",
				zap.String("stage_id", stageID.String()),
				zap.String("program_id", program.GetID().String()),
				zap.Error(err))
		case !tx.Succeeded():
			s.logger.Error("stage payout rejected by bank",
				zap.String("stage_id", stageID.String()),
				zap.String("status", tx.Status))
		default:
			result.PayoutSucceeded = true
			s.logger.Info("stage payout completed",
				zap.String("stage_id", stageID.String()),
				zap.String("amount", transition.Stage.Amount.String()),
				zap.String("bank_transaction", tx.TransactionID))
		}
	}

	return result, nil
}

// UpdateBankAccount changes the payout account of a program. Grantor only.
func (s *GrantService) UpdateBankAccount(ctx context.Context, programID, actorID uuid.UUID, bankAccountNumber string) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, actorID, grant.RoleGrantor); err != nil {
		return nil, err
	}
	if err := program.UpdateBankAccount(bankAccountNumber); err != nil {
		return nil, err
	}
	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to save program: %w", err)
	}
	return program, nil
}

// ListPrograms returns the programs the user participates in
func (s *GrantService) ListPrograms(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[grant.GrantProgram], error) {
	programs, err := s.programRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	total, err := s.programRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count programs: %w", err)
	}
	page := shared.NewPaginated(programs, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetProgram returns a program visible to the user
func (s *GrantService) GetProgram(ctx context.Context, programID, userID uuid.UUID) (*grant.GrantProgram, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := grant.Authorize(program, userID, grant.RoleGrantor, grant.RoleSupervisor, grant.RoleGrantee); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *GrantService) loadProgram(ctx context.Context, programID uuid.UUID) (*grant.GrantProgram, error) {
	program, err := s.programRepo.FindByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, grant.ErrProgramNotFound
	}
	return program, nil
}
