package grant

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/shared"
)

// StageStatus is the completion status of a stage
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
)

// RequirementStatus is the status of a requirement
type RequirementStatus string

const (
	RequirementPending   RequirementStatus = "pending"
	RequirementCompleted RequirementStatus = "completed"
)

// ContractGatedMarker is the legacy description prefix that tags a
// requirement as contract-gated. It is parsed once at creation into the
// ContractGated flag; the flag is authoritative afterwards.
const ContractGatedMarker = "contract:"

// Stage is an ordered, amount-bound milestone within a grant program
type Stage struct {
	shared.BaseEntity
	ProgramID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stage_program_order,priority:1"`
	Order            int             `gorm:"column:stage_order;not null;uniqueIndex:idx_stage_program_order,priority:2"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CompletionStatus StageStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	Requirements     []Requirement   `gorm:"foreignKey:StageID;references:ID"`
}

// TableName returns the table name for GORM
func (Stage) TableName() string {
	return "stages"
}

// NewStage creates a pending stage with its requirements
func NewStage(programID uuid.UUID, order int, amount decimal.Decimal, requirements []RequirementSpec) Stage {
	stage := Stage{
		BaseEntity:       shared.NewBaseEntity(),
		ProgramID:        programID,
		Order:            order,
		Amount:           amount.Round(2),
		CompletionStatus: StagePending,
		Requirements:     make([]Requirement, 0, len(requirements)),
	}
	for _, spec := range requirements {
		stage.Requirements = append(stage.Requirements, NewRequirement(stage.ID, spec.Name, spec.Description))
	}
	return stage
}

// IsContractGated returns true if any requirement of the stage is
// contract-gated. A gated stage completes through the contract mechanism
// instead of the proof-and-approve flow.
func (s *Stage) IsContractGated() bool {
	for i := range s.Requirements {
		if s.Requirements[i].ContractGated {
			return true
		}
	}
	return false
}

// PendingRequirements returns the requirements not yet completed
func (s *Stage) PendingRequirements() []Requirement {
	var pending []Requirement
	for i := range s.Requirements {
		if s.Requirements[i].Status != RequirementCompleted {
			pending = append(pending, s.Requirements[i])
		}
	}
	return pending
}

// activate marks the stage as the program's current active stage
func (s *Stage) activate() {
	s.CompletionStatus = StageActive
	s.UpdatedAt = time.Now()
}

// complete marks the stage as completed
func (s *Stage) complete() {
	s.CompletionStatus = StageCompleted
	s.UpdatedAt = time.Now()
}

// Requirement is a condition attached to a stage that must be proven
// before the stage can complete
type Requirement struct {
	shared.BaseEntity
	StageID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name           string            `gorm:"type:varchar(255);not null"`
	Description    string            `gorm:"type:varchar(500)"`
	ContractGated  bool              `gorm:"not null;default:false"`
	Status         RequirementStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ProofReference *string           `gorm:"type:varchar(500)"`
	SubmittedBy    *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Requirement) TableName() string {
	return "requirements"
}

// NewRequirement creates a pending requirement. The legacy description
// marker is promoted to the explicit ContractGated flag here.
func NewRequirement(stageID uuid.UUID, name, description string) Requirement {
	return Requirement{
		BaseEntity:    shared.NewBaseEntity(),
		StageID:       stageID,
		Name:          name,
		Description:   description,
		ContractGated: strings.HasPrefix(description, ContractGatedMarker),
		Status:        RequirementPending,
	}
}

// HasProof returns true when a proof reference has been submitted
func (r *Requirement) HasProof() bool {
	return r.ProofReference != nil && *r.ProofReference != ""
}

// submitProof stores the proof reference and its submitter
func (r *Requirement) submitProof(proofRef string, submitterID uuid.UUID) {
	r.ProofReference = &proofRef
	r.SubmittedBy = &submitterID
	r.UpdatedAt = time.Now()
}

// complete marks the requirement as completed
func (r *Requirement) complete() {
	r.Status = RequirementCompleted
	r.UpdatedAt = time.Now()
}
