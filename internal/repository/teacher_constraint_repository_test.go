package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

func TestTeacherConstraintRepositoryGetAndUpsert(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewTeacherConstraintRepository(db)

	mock.ExpectExec("INSERT INTO teacher_constraints").
		WithArgs("T1", 2, true, false, "2024-06-03,2024-06-04", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.TeacherConstraint{
		Teacher:          "T1",
		MaxExamsPerDay:   2,
		NoEveningExams:   true,
		UnavailableDates: models.CommaList{"2024-06-03", "2024-06-04"},
	})
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"teacher", "max_exams_per_day", "no_evening_exams", "no_weekend_exams", "unavailable_dates", "unavailable_times", "updated_at"}).
		AddRow("T1", 2, true, false, "2024-06-03,2024-06-04", "13:00-15:00", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_constraints WHERE teacher = $1")).
		WithArgs("T1").
		WillReturnRows(rows)

	constraint, err := repo.GetByTeacher(context.Background(), nil, "T1")
	require.NoError(t, err)
	assert.Equal(t, models.CommaList{"2024-06-03", "2024-06-04"}, constraint.UnavailableDates)
	assert.Equal(t, models.CommaList{"13:00-15:00"}, constraint.UnavailableTimes)
	assert.False(t, constraint.Implicit)
	assert.NoError(t, mock.ExpectationsWereMet())
}
