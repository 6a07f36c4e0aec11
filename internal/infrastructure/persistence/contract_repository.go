package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/shared"
)

// GormContractRepository implements contract.Repository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.PaymentContract, error) {
	var c contract.PaymentContract
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindAll finds all contracts with paging
func (r *GormContractRepository) FindAll(ctx context.Context, filter shared.Filter) ([]contract.PaymentContract, error) {
	var contracts []contract.PaymentContract
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// FindActive finds all active contracts
func (r *GormContractRepository) FindActive(ctx context.Context) ([]contract.PaymentContract, error) {
	var contracts []contract.PaymentContract
	if err := r.db.WithContext(ctx).
		Where("status = ?", contract.StatusActive).
		Order("created_at ASC").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Create persists a new contract
func (r *GormContractRepository) Create(ctx context.Context, c *contract.PaymentContract) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Delete removes a contract
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&contract.PaymentContract{}, "id = ?", id).Error
}
