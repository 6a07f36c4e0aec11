package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/identity"
	"github.com/grantflow/backend/internal/domain/shared"
)

// setupSQLiteDB opens an in-memory database with the full schema migrated.
// SQLite's type affinity accepts the postgres column types in the gorm tags.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&identity.User{},
		&grant.GrantProgram{},
		&grant.Stage{},
		&grant.Requirement{},
		&grant.Participant{},
		&contract.PaymentContract{},
	)
	require.NoError(t, err)

	return db
}

func TestGrantProgramRepository_SQLiteRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormGrantProgramRepository(db)
	ctx := context.Background()

	grantorID := uuid.New()
	program, err := grant.NewGrantProgram("Research Grant", "40817810000001", grantorID, []grant.StageSpec{
		{Order: 2, Amount: decimal.NewFromInt(700)},
		{Order: 1, Amount: decimal.NewFromInt(300), Requirements: []grant.RequirementSpec{
			{Name: "Progress report"},
			{Name: "Budget statement", Description: "Signed by the supervisor"},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, program))

	t.Run("loads the full tree ordered by stage", func(t *testing.T) {
		found, err := repo.FindByID(ctx, program.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		require.Len(t, found.Stages, 2)
		assert.Equal(t, 1, found.Stages[0].Order)
		assert.Equal(t, 2, found.Stages[1].Order)
		assert.True(t, decimal.NewFromInt(300).Equal(found.Stages[0].Amount))
		assert.Len(t, found.Stages[0].Requirements, 2)

		require.Len(t, found.Participants, 1)
		assert.Equal(t, grantorID, found.Participants[0].UserID)
		assert.Equal(t, grant.RoleGrantor, found.Participants[0].Role)
	})

	t.Run("resolves the program from a stage id", func(t *testing.T) {
		found, err := repo.FindByStageID(ctx, program.Stages[1].ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, program.ID, found.ID)
	})

	t.Run("resolves the program from a requirement id", func(t *testing.T) {
		found, err := repo.FindByRequirementID(ctx, program.Stages[0].Requirements[0].ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, program.ID, found.ID)
	})

	t.Run("returns nil for an unknown id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGrantProgramRepository_SQLiteSave(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormGrantProgramRepository(db)
	ctx := context.Background()

	program, err := grant.NewGrantProgram("Scholarship", "40817810000002", uuid.New(), []grant.StageSpec{
		{Order: 1, Amount: decimal.NewFromInt(100), Requirements: []grant.RequirementSpec{
			{Name: "Enrollment certificate"},
		}},
		{Order: 2, Amount: decimal.NewFromInt(200)},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, program))

	loaded, err := repo.FindByID(ctx, program.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Confirm())
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, 2, loaded.Version)

	t.Run("transition survives a reload", func(t *testing.T) {
		found, err := repo.FindByID(ctx, program.ID)
		require.NoError(t, err)
		assert.Equal(t, grant.ProgramActive, found.Status)
		assert.Equal(t, 2, found.Version)
		assert.Equal(t, grant.StageActive, found.Stages[0].CompletionStatus)
		assert.Equal(t, grant.StagePending, found.Stages[1].CompletionStatus)
	})

	t.Run("stale copy is rejected", func(t *testing.T) {
		err := repo.Save(ctx, program)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGrantProgramRepository_SQLiteFindAllForUser(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormGrantProgramRepository(db)
	ctx := context.Background()

	grantorID := uuid.New()
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		program, err := grant.NewGrantProgram(name, "40817810000003", grantorID, []grant.StageSpec{
			{Order: 1, Amount: decimal.NewFromInt(50)},
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, program))
	}

	t.Run("pages programs where the user participates", func(t *testing.T) {
		programs, err := repo.FindAllForUser(ctx, grantorID, shared.Filter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, programs, 2)

		count, err := repo.CountForUser(ctx, grantorID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("returns nothing for an outsider", func(t *testing.T) {
		programs, err := repo.FindAllForUser(ctx, uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, programs, 0)
	})
}

func TestContractRepository_SQLiteRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	c, err := contract.NewPaymentContract("Groceries only", contract.TypeMCCLimit,
		map[string]any{"allowed_mcc": []any{"5411"}}, "Grocery stores")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	t.Run("parameters survive the json column", func(t *testing.T) {
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, contract.TypeMCCLimit, found.ContractType)

		evaluation, err := found.Execute(contract.PurchaseInfo{
			MCC:        "5999",
			Cost:       decimal.NewFromInt(10),
			MerchantID: "MERCHANT_TOYS-01",
			CardNumber: "4111111111111111",
		}, time.Now())
		require.NoError(t, err)
		assert.False(t, evaluation.Allowed)
	})

	t.Run("active listing includes the contract", func(t *testing.T) {
		active, err := repo.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, c.ID, active[0].ID)
	})

	t.Run("delete removes it", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, c.ID))
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestUserRepository_SQLiteFindByEmail(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := &identity.User{
		BaseEntity:  shared.NewBaseEntity(),
		Email:       "grantee@example.com",
		DisplayName: "Grantee",
	}
	require.NoError(t, db.Create(user).Error)

	t.Run("lookup normalizes the email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  Grantee@Example.com ")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("unknown email returns nil", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
