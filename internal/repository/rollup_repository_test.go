package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

func newRollupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRollupRepositoryFind(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	document, err := json.Marshal(models.CourseRollup{
		StudentID:        "stu1",
		CourseID:         "course1",
		Semesters:        []models.SemesterNode{{SemesterID: "sem1", Title: "Fall"}},
		FinalPercentage:  80,
		FinalLetterGrade: "B",
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT document, version FROM rollup_documents").
		WithArgs("stu1", "course1").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).AddRow(document, int64(4)))

	rollup, err := repo.Find(context.Background(), "stu1", "course1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), rollup.Version)
	assert.Equal(t, "B", rollup.FinalLetterGrade)
	require.Len(t, rollup.Semesters, 1)
	assert.Equal(t, "Fall", rollup.Semesters[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	mock.ExpectQuery("SELECT document, version FROM rollup_documents").
		WithArgs("stu1", "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "stu1", "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepositorySaveInsert(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	mock.ExpectExec("INSERT INTO rollup_documents").
		WithArgs("stu1", "course1", sqlmock.AnyArg(), int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rollup := &models.CourseRollup{StudentID: "stu1", CourseID: "course1"}
	require.NoError(t, repo.Save(context.Background(), rollup))
	assert.Equal(t, int64(1), rollup.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepositorySaveInsertLostRace(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	// Another writer inserted first; ON CONFLICT DO NOTHING affects no rows.
	mock.ExpectExec("INSERT INTO rollup_documents").
		WithArgs("stu1", "course1", sqlmock.AnyArg(), int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rollup := &models.CourseRollup{StudentID: "stu1", CourseID: "course1"}
	err := repo.Save(context.Background(), rollup)
	assert.True(t, errors.Is(err, appErrors.ErrVersionConflict))
	assert.Equal(t, int64(0), rollup.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepositorySaveUpdateConflict(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	mock.ExpectExec("UPDATE rollup_documents").
		WithArgs("stu1", "course1", sqlmock.AnyArg(), int64(3), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rollup := &models.CourseRollup{StudentID: "stu1", CourseID: "course1", Version: 2}
	err := repo.Save(context.Background(), rollup)
	assert.True(t, errors.Is(err, appErrors.ErrVersionConflict))
	assert.Equal(t, int64(2), rollup.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepositorySaveUpdate(t *testing.T) {
	db, mock, cleanup := newRollupMock(t)
	defer cleanup()
	repo := NewRollupRepository(db)

	mock.ExpectExec("UPDATE rollup_documents").
		WithArgs("stu1", "course1", sqlmock.AnyArg(), int64(3), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rollup := &models.CourseRollup{StudentID: "stu1", CourseID: "course1", Version: 2}
	require.NoError(t, repo.Save(context.Background(), rollup))
	assert.Equal(t, int64(3), rollup.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
