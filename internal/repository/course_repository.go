package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

const courseColumns = `id, home_room_id, title, class_time, class_date, level, department, major, class_section, enrolled_count, exam_location, teacher`

// CourseRepository reads and imports courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns every course in import order.
func (r *CourseRepository) List(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses ORDER BY id`
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, r.exec(exec), &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID loads one course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Upsert inserts or replaces a course by id.
func (r *CourseRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	if course == nil || course.ID == "" {
		return fmt.Errorf("course id is required")
	}
	const query = `INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :home_room_id, :title, :class_time, :class_date, :level, :department, :major, :class_section, :enrolled_count, :exam_location, :teacher)
		ON CONFLICT (id) DO UPDATE
		SET home_room_id = EXCLUDED.home_room_id,
		    title = EXCLUDED.title,
		    class_time = EXCLUDED.class_time,
		    class_date = EXCLUDED.class_date,
		    level = EXCLUDED.level,
		    department = EXCLUDED.department,
		    major = EXCLUDED.major,
		    class_section = EXCLUDED.class_section,
		    enrolled_count = EXCLUDED.enrolled_count,
		    exam_location = EXCLUDED.exam_location,
		    teacher = EXCLUDED.teacher`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, course); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}
