package grant

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/shared"
)

// ProgramStatus is the lifecycle status of a grant program
type ProgramStatus string

const (
	ProgramDraft     ProgramStatus = "draft"
	ProgramActive    ProgramStatus = "active"
	ProgramCompleted ProgramStatus = "completed"
)

// RequirementSpec describes a requirement at program creation time
type RequirementSpec struct {
	Name        string
	Description string
}

// StageSpec describes a stage at program creation time
type StageSpec struct {
	Order        int
	Amount       decimal.Decimal
	Requirements []RequirementSpec
}

// GrantProgram is the aggregate root for a milestone-based grant.
// The full stage/requirement tree and the grantor membership are fixed at
// creation; all later operations are state transitions on this tree.
type GrantProgram struct {
	shared.BaseAggregateRoot
	Name              string        `gorm:"type:varchar(255);not null"`
	BankAccountNumber string        `gorm:"type:varchar(64);not null"`
	Status            ProgramStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	GrantorID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	Stages            []Stage       `gorm:"foreignKey:ProgramID;references:ID"`
	Participants      []Participant `gorm:"foreignKey:ProgramID;references:ID"`
}

// TableName returns the table name for GORM
func (GrantProgram) TableName() string {
	return "grant_programs"
}

// NewGrantProgram creates a draft program with its stage tree and the
// creator appended as grantor. Stage orders must form the contiguous
// sequence 1..N.
func NewGrantProgram(name, bankAccountNumber string, grantorID uuid.UUID, stages []StageSpec) (*GrantProgram, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Program name cannot be empty")
	}
	if bankAccountNumber == "" {
		return nil, shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account number cannot be empty")
	}
	if grantorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GRANTOR", "Grantor ID cannot be empty")
	}
	if err := validateStageSequence(stages); err != nil {
		return nil, err
	}

	p := &GrantProgram{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		BankAccountNumber: bankAccountNumber,
		Status:            ProgramDraft,
		GrantorID:         grantorID,
		Stages:            make([]Stage, 0, len(stages)),
		Participants:      make([]Participant, 0, 1),
	}

	sorted := make([]StageSpec, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for _, spec := range sorted {
		if spec.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Stage amount cannot be negative")
		}
		p.Stages = append(p.Stages, NewStage(p.ID, spec.Order, spec.Amount, spec.Requirements))
	}

	p.Participants = append(p.Participants, NewParticipant(p.ID, grantorID, RoleGrantor))

	return p, nil
}

// validateStageSequence checks that stage orders are exactly 1..N
func validateStageSequence(stages []StageSpec) error {
	orders := make([]int, 0, len(stages))
	for _, s := range stages {
		orders = append(orders, s.Order)
	}
	sort.Ints(orders)
	for i, order := range orders {
		if order != i+1 {
			return ErrInvalidStageSequence
		}
	}
	return nil
}

// TotalAmount is the sum of all stage amounts
func (p *GrantProgram) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Stages {
		total = total.Add(p.Stages[i].Amount)
	}
	return total
}

// EnsureConfirmable checks the preconditions of the confirm transition
// without applying it. The funding deposit happens between this check and
// Confirm; a failed deposit leaves the program untouched in draft.
func (p *GrantProgram) EnsureConfirmable() error {
	if p.Status != ProgramDraft {
		return ErrAlreadyConfirmed
	}
	if len(p.Stages) == 0 {
		return ErrNoStagesConfigured
	}
	return nil
}

// Confirm activates the program: stage 1 becomes active, all others pending
func (p *GrantProgram) Confirm() error {
	if err := p.EnsureConfirmable(); err != nil {
		return err
	}

	p.Status = ProgramActive
	for i := range p.Stages {
		if p.Stages[i].Order == 1 {
			p.Stages[i].activate()
		} else {
			p.Stages[i].CompletionStatus = StagePending
		}
	}
	p.touch()

	return nil
}

// Invite adds a user as an active participant. A soft-removed participant
// is reactivated with the new role; an active one is rejected.
func (p *GrantProgram) Invite(userID uuid.UUID, role Role) error {
	if userID == p.GrantorID {
		return ErrGrantorAlreadyAssigned
	}
	if !role.IsAssignable() {
		return ErrInvalidRole
	}

	for i := range p.Participants {
		if p.Participants[i].UserID != userID {
			continue
		}
		if p.Participants[i].Active {
			return ErrAlreadyInvited
		}
		p.Participants[i].Reactivate(role)
		p.touch()
		return nil
	}

	p.Participants = append(p.Participants, NewParticipant(p.ID, userID, role))
	p.touch()
	return nil
}

// ChangeParticipantRole reassigns a participant's role. The grantor's own
// role is immutable.
func (p *GrantProgram) ChangeParticipantRole(participantID uuid.UUID, role Role) error {
	if !role.IsAssignable() {
		return ErrInvalidRole
	}

	participant := p.participantByID(participantID)
	if participant == nil {
		return ErrParticipantNotFound
	}
	if participant.UserID == p.GrantorID {
		return ErrCannotChangeGrantorRole
	}

	participant.Role = role
	participant.UpdatedAt = time.Now()
	p.touch()
	return nil
}

// RemoveParticipant soft-removes a participant. The grantor cannot be removed.
func (p *GrantProgram) RemoveParticipant(participantID uuid.UUID) error {
	participant := p.participantByID(participantID)
	if participant == nil {
		return ErrParticipantNotFound
	}
	if participant.UserID == p.GrantorID {
		return ErrCannotRemoveGrantor
	}

	participant.Deactivate()
	p.touch()
	return nil
}

// SubmitProof stores a proof reference on a requirement of the active stage
func (p *GrantProgram) SubmitProof(requirementID uuid.UUID, proofRef string, submitterID uuid.UUID) error {
	requirement, stage := p.RequirementByID(requirementID)
	if requirement == nil {
		return ErrRequirementNotFound
	}
	if requirement.ContractGated {
		return ErrContractGatedNoProof
	}
	if p.Status != ProgramActive || stage.CompletionStatus != StageActive {
		return ErrStageNotActive
	}
	if requirement.Status == RequirementCompleted {
		return ErrAlreadyCompleted
	}

	requirement.submitProof(proofRef, submitterID)
	p.touch()
	return nil
}

// CompleteRequirement marks a requirement of the active stage as completed.
// A proof must have been submitted first.
func (p *GrantProgram) CompleteRequirement(requirementID uuid.UUID) error {
	requirement, stage := p.RequirementByID(requirementID)
	if requirement == nil {
		return ErrRequirementNotFound
	}
	if stage.CompletionStatus != StageActive {
		return ErrStageNotActive
	}
	if requirement.Status == RequirementCompleted {
		return ErrAlreadyCompleted
	}
	if !requirement.HasProof() {
		return ErrProofMissing
	}

	requirement.complete()
	p.touch()
	return nil
}

// StageTransition describes the outcome of a completed stage
type StageTransition struct {
	Stage            *Stage
	NextStage        *Stage
	ProgramCompleted bool
	ContractGated    bool
}

// CompleteStage completes the active stage, then either activates the next
// stage by ascending order or, when none remains, completes the program.
// Contract-gated stages skip the pending-requirements check; their payout
// is handled by the contract mechanism, not by this service.
func (p *GrantProgram) CompleteStage(stageID uuid.UUID) (*StageTransition, error) {
	stage := p.StageByID(stageID)
	if stage == nil {
		return nil, ErrStageNotFound
	}
	if p.Status != ProgramActive {
		return nil, ErrProgramNotActive
	}
	if stage.CompletionStatus != StageActive {
		return nil, ErrStageNotActive
	}

	gated := stage.IsContractGated()
	if !gated && len(stage.PendingRequirements()) > 0 {
		return nil, ErrPendingRequirements
	}

	stage.complete()

	transition := &StageTransition{
		Stage:         stage,
		ContractGated: gated,
	}

	if next := p.stageAfter(stage.Order); next != nil {
		next.activate()
		transition.NextStage = next
	} else {
		p.Status = ProgramCompleted
		transition.ProgramCompleted = true
	}

	p.touch()
	return transition, nil
}

// UpdateBankAccount changes the funding account reference
func (p *GrantProgram) UpdateBankAccount(bankAccountNumber string) error {
	if bankAccountNumber == "" {
		return shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account number cannot be empty")
	}
	p.BankAccountNumber = bankAccountNumber
	p.touch()
	return nil
}

// ActiveStage returns the currently active stage, or nil
func (p *GrantProgram) ActiveStage() *Stage {
	for i := range p.Stages {
		if p.Stages[i].CompletionStatus == StageActive {
			return &p.Stages[i]
		}
	}
	return nil
}

// StageByID returns the stage with the given id, or nil
func (p *GrantProgram) StageByID(stageID uuid.UUID) *Stage {
	for i := range p.Stages {
		if p.Stages[i].ID == stageID {
			return &p.Stages[i]
		}
	}
	return nil
}

// RequirementByID returns a requirement and its owning stage, or nils
func (p *GrantProgram) RequirementByID(requirementID uuid.UUID) (*Requirement, *Stage) {
	for i := range p.Stages {
		for j := range p.Stages[i].Requirements {
			if p.Stages[i].Requirements[j].ID == requirementID {
				return &p.Stages[i].Requirements[j], &p.Stages[i]
			}
		}
	}
	return nil, nil
}

// ParticipantByUser returns the participant row for a user, or nil
func (p *GrantProgram) ParticipantByUser(userID uuid.UUID) *Participant {
	for i := range p.Participants {
		if p.Participants[i].UserID == userID {
			return &p.Participants[i]
		}
	}
	return nil
}

// stageAfter returns the stage with the lowest order above the given one
func (p *GrantProgram) stageAfter(order int) *Stage {
	var next *Stage
	for i := range p.Stages {
		if p.Stages[i].Order <= order {
			continue
		}
		if next == nil || p.Stages[i].Order < next.Order {
			next = &p.Stages[i]
		}
	}
	return next
}

func (p *GrantProgram) participantByID(participantID uuid.UUID) *Participant {
	for i := range p.Participants {
		if p.Participants[i].ID == participantID {
			return &p.Participants[i]
		}
	}
	return nil
}

// touch marks the aggregate modified. The version is bumped by the
// repository on save, not here.
func (p *GrantProgram) touch() {
	p.UpdatedAt = time.Now()
}
