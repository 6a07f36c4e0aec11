package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// GormGrantProgramRepository implements grant.Repository using GORM
type GormGrantProgramRepository struct {
	db *gorm.DB
}

// NewGormGrantProgramRepository creates a new GormGrantProgramRepository
func NewGormGrantProgramRepository(db *gorm.DB) *GormGrantProgramRepository {
	return &GormGrantProgramRepository{db: db}
}

func (r *GormGrantProgramRepository) preload(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_order ASC")
		}).
		Preload("Stages.Requirements").
		Preload("Participants")
}

// FindByID finds a program with its full stage and participant tree
func (r *GormGrantProgramRepository) FindByID(ctx context.Context, id uuid.UUID) (*grant.GrantProgram, error) {
	var program grant.GrantProgram
	if err := r.preload(r.db.WithContext(ctx)).
		First(&program, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

// FindByStageID finds the program owning a stage
func (r *GormGrantProgramRepository) FindByStageID(ctx context.Context, stageID uuid.UUID) (*grant.GrantProgram, error) {
	var stage grant.Stage
	if err := r.db.WithContext(ctx).
		Select("program_id").
		First(&stage, "id = ?", stageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.FindByID(ctx, stage.ProgramID)
}

// FindByRequirementID finds the program owning a requirement
func (r *GormGrantProgramRepository) FindByRequirementID(ctx context.Context, requirementID uuid.UUID) (*grant.GrantProgram, error) {
	var requirement grant.Requirement
	if err := r.db.WithContext(ctx).
		Select("stage_id").
		First(&requirement, "id = ?", requirementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.FindByStageID(ctx, requirement.StageID)
}

// FindAllForUser finds the programs where the user is an active participant
func (r *GormGrantProgramRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]grant.GrantProgram, error) {
	var programs []grant.GrantProgram
	query := r.preload(r.db.WithContext(ctx)).
		Joins("JOIN participants ON participants.program_id = grant_programs.id").
		Where("participants.user_id = ? AND participants.active = ?", userID, true).
		Order("grant_programs.created_at DESC")

	if filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

// CountForUser counts the programs where the user is an active participant
func (r *GormGrantProgramRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&grant.GrantProgram{}).
		Joins("JOIN participants ON participants.program_id = grant_programs.id").
		Where("participants.user_id = ? AND participants.active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Create persists a new program with its full tree
func (r *GormGrantProgramRepository) Create(ctx context.Context, program *grant.GrantProgram) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(program).Error
	})
}

// Save persists the aggregate with optimistic locking. The stored version
// must match the loaded one; the whole tree is written in one transaction.
func (r *GormGrantProgramRepository) Save(ctx context.Context, program *grant.GrantProgram) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&grant.GrantProgram{}).
			Where("id = ?", program.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != program.Version {
			return shared.ErrConcurrencyConflict
		}

		program.Version++
		program.UpdatedAt = time.Now()

		update := tx.Model(&grant.GrantProgram{}).
			Where("id = ? AND version = ?", program.ID, currentVersion).
			Updates(map[string]interface{}{
				"name":                program.Name,
				"bank_account_number": program.BankAccountNumber,
				"status":              program.Status,
				"version":             program.Version,
				"updated_at":          program.UpdatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range program.Stages {
			stage := &program.Stages[i]
			if err := tx.Omit("Requirements").Save(stage).Error; err != nil {
				return err
			}
			for j := range stage.Requirements {
				if err := tx.Save(&stage.Requirements[j]).Error; err != nil {
					return err
				}
			}
		}
		for i := range program.Participants {
			if err := tx.Save(&program.Participants[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
