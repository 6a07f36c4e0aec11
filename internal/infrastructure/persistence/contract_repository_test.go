package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/contract"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormContractRepository_FindByID(t *testing.T) {
	t.Run("finds existing contract", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContractRepository(db)

		contractID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version", "name", "contract_type", "parameters", "description", "status"}).
			AddRow(contractID, time.Now(), time.Now(), 1, "Grocery only", "mcc_limit",
				[]byte(`{"applicable_cards":["all"],"allowed_mcc":["5411"],"blocked_mcc":[]}`), "", "active")

		mock.ExpectQuery(`SELECT \* FROM "payment_contracts" WHERE id = \$1 .* LIMIT .*`).
			WithArgs(contractID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByID(context.Background(), contractID)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "Grocery only", c.Name)
		assert.Equal(t, contract.TypeMCCLimit, c.ContractType)
		assert.Equal(t, []any{"5411"}, c.Parameters["allowed_mcc"].([]any))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing contract", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContractRepository(db)

		contractID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "payment_contracts"`).
			WithArgs(contractID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), contractID)
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestGormContractRepository_FindActive(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormContractRepository(db)

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version", "name", "contract_type", "parameters", "description", "status"}).
		AddRow(uuid.New(), time.Now(), time.Now(), 1, "Limit", "amount_limit",
			[]byte(`{"applicable_cards":["all"],"max_amount":"100"}`), "", "active")

	mock.ExpectQuery(`SELECT \* FROM "payment_contracts" WHERE status = \$1`).
		WithArgs("active").
		WillReturnRows(rows)

	contracts, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, contract.StatusActive, contracts[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
