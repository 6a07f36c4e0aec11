package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/shared"
)

// User is a read-side projection of an account managed by the external
// identity provider. Registration and credentials live outside this service;
// we only resolve ids and emails for participant membership.
type User struct {
	shared.BaseEntity
	Email       string `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NormalizeEmail lowercases and trims an email for lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository resolves users by id or email.
// Implementations return (nil, nil) when no user matches.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
