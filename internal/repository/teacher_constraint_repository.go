package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

// TeacherConstraintRepository persists per-teacher exam rules.
type TeacherConstraintRepository struct {
	db *sqlx.DB
}

// NewTeacherConstraintRepository constructs the repository.
func NewTeacherConstraintRepository(db *sqlx.DB) *TeacherConstraintRepository {
	return &TeacherConstraintRepository{db: db}
}

func (r *TeacherConstraintRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// GetByTeacher returns the stored record or sql.ErrNoRows.
func (r *TeacherConstraintRepository) GetByTeacher(ctx context.Context, exec sqlx.ExtContext, teacher string) (*models.TeacherConstraint, error) {
	const query = `SELECT teacher, max_exams_per_day, no_evening_exams, no_weekend_exams, unavailable_dates, unavailable_times, updated_at
		FROM teacher_constraints WHERE teacher = $1`
	var constraint models.TeacherConstraint
	if err := sqlx.GetContext(ctx, r.exec(exec), &constraint, query, teacher); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// Upsert replaces the record keyed by teacher.
func (r *TeacherConstraintRepository) Upsert(ctx context.Context, constraint *models.TeacherConstraint) error {
	now := time.Now().UTC()
	constraint.UpdatedAt = &now
	if constraint.UnavailableDates == nil {
		constraint.UnavailableDates = models.CommaList{}
	}
	if constraint.UnavailableTimes == nil {
		constraint.UnavailableTimes = models.CommaList{}
	}

	const query = `INSERT INTO teacher_constraints (teacher, max_exams_per_day, no_evening_exams, no_weekend_exams, unavailable_dates, unavailable_times, updated_at)
		VALUES (:teacher, :max_exams_per_day, :no_evening_exams, :no_weekend_exams, :unavailable_dates, :unavailable_times, :updated_at)
		ON CONFLICT (teacher) DO UPDATE
		SET max_exams_per_day = EXCLUDED.max_exams_per_day,
		    no_evening_exams = EXCLUDED.no_evening_exams,
		    no_weekend_exams = EXCLUDED.no_weekend_exams,
		    unavailable_dates = EXCLUDED.unavailable_dates,
		    unavailable_times = EXCLUDED.unavailable_times,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, constraint); err != nil {
		return fmt.Errorf("upsert teacher constraint: %w", err)
	}
	return nil
}
