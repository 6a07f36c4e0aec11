package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

func savedProgram(t *testing.T) *grant.GrantProgram {
	t.Helper()

	program, err := grant.NewGrantProgram("Research Grant", "1234567890", uuid.New(), []grant.StageSpec{
		{Order: 1, Amount: decimal.NewFromInt(500)},
	})
	require.NoError(t, err)
	return program
}

func TestGormGrantProgramRepository_Save(t *testing.T) {
	t.Run("version mismatch returns concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormGrantProgramRepository(db)

		program := savedProgram(t)
		program.Version = 1

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "grant_programs" WHERE id = \$1`).
			WithArgs(program.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectRollback()

		err := repo.Save(context.Background(), program)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing program returns not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormGrantProgramRepository(db)

		program := savedProgram(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "grant_programs" WHERE id = \$1`).
			WithArgs(program.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectRollback()

		err := repo.Save(context.Background(), program)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormGrantProgramRepository_CountForUser(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormGrantProgramRepository(db)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "grant_programs" JOIN participants`).
		WithArgs(userID, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
