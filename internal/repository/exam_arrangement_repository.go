package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

const arrangementColumns = `a.id, a.course_id, a.room_id, a.exam_date, a.exam_time, a.class_section, a.student_count,
	a.department, a.major, a.level, a.session_no, a.session_total, a.created_at`

const arrangementDetailSelect = `SELECT ` + arrangementColumns + `,
	c.title AS course_title, c.teacher, r.name AS room_name, r.capacity AS room_capacity, r.building
FROM exam_arrangements a
JOIN courses c ON c.id = a.course_id
JOIN exam_rooms r ON r.id = a.room_id`

// ExamArrangementRepository persists exam bookings.
type ExamArrangementRepository struct {
	db *sqlx.DB
}

// NewExamArrangementRepository constructs the repository.
func NewExamArrangementRepository(db *sqlx.DB) *ExamArrangementRepository {
	return &ExamArrangementRepository{db: db}
}

func (r *ExamArrangementRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteAll clears every arrangement ahead of a full regeneration.
func (r *ExamArrangementRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	const query = `DELETE FROM exam_arrangements`
	result, err := r.exec(exec).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete exam arrangements: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exam arrangements rows affected: %w", err)
	}
	return affected, nil
}

// Create inserts one arrangement, assigning its id.
func (r *ExamArrangementRepository) Create(ctx context.Context, exec sqlx.ExtContext, arrangement *models.ExamArrangement) error {
	if arrangement == nil {
		return fmt.Errorf("arrangement payload is nil")
	}
	if arrangement.CourseID == "" || arrangement.RoomID == "" {
		return fmt.Errorf("course_id and room_id are required")
	}
	if arrangement.ID == "" {
		arrangement.ID = uuid.NewString()
	}
	if arrangement.SessionNo == 0 {
		arrangement.SessionNo = 1
	}
	if arrangement.SessionTotal == 0 {
		arrangement.SessionTotal = 1
	}
	if arrangement.CreatedAt.IsZero() {
		arrangement.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO exam_arrangements (id, course_id, room_id, exam_date, exam_time, class_section, student_count, department, major, level, session_no, session_total, created_at)
VALUES (:id, :course_id, :room_id, :exam_date, :exam_time, :class_section, :student_count, :department, :major, :level, :session_no, :session_total, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, arrangement); err != nil {
		return fmt.Errorf("insert exam arrangement: %w", err)
	}
	return nil
}

// CountByTeacherDate counts a teacher's arrangements on a date.
func (r *ExamArrangementRepository) CountByTeacherDate(ctx context.Context, exec sqlx.ExtContext, teacher, date string) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_arrangements a JOIN courses c ON c.id = a.course_id
WHERE c.teacher = $1 AND a.exam_date = $2`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, teacher, date); err != nil {
		return 0, fmt.Errorf("count teacher arrangements: %w", err)
	}
	return count, nil
}

// ExistsTeacherSlot reports whether the teacher already has an exam at date and slot.
func (r *ExamArrangementRepository) ExistsTeacherSlot(ctx context.Context, exec sqlx.ExtContext, teacher, date, slot string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM exam_arrangements a JOIN courses c ON c.id = a.course_id
WHERE c.teacher = $1 AND a.exam_date = $2 AND a.exam_time = $3)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, teacher, date, slot); err != nil {
		return false, fmt.Errorf("check teacher slot: %w", err)
	}
	return exists, nil
}

// FindRoomConflicts lists arrangements holding roomID at date and slot.
func (r *ExamArrangementRepository) FindRoomConflicts(ctx context.Context, roomID, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return r.findConflicts(ctx, "a.room_id", roomID, date, slot, excludeID)
}

// FindTeacherConflicts lists the teacher's arrangements at date and slot.
func (r *ExamArrangementRepository) FindTeacherConflicts(ctx context.Context, teacher, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return r.findConflicts(ctx, "c.teacher", teacher, date, slot, excludeID)
}

// FindClassConflicts lists the class section's arrangements at date and slot.
func (r *ExamArrangementRepository) FindClassConflicts(ctx context.Context, classSection, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return r.findConflicts(ctx, "a.class_section", classSection, date, slot, excludeID)
}

func (r *ExamArrangementRepository) findConflicts(ctx context.Context, column, value, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	var b strings.Builder
	b.WriteString(`SELECT a.id, c.title AS course_name, a.class_section, c.teacher, r.name AS room_name
FROM exam_arrangements a
JOIN courses c ON c.id = a.course_id
JOIN exam_rooms r ON r.id = a.room_id
WHERE `)
	b.WriteString(column)
	b.WriteString(` = $1 AND a.exam_date = $2 AND a.exam_time = $3`)
	args := []interface{}{value, date, slot}
	if excludeID != "" {
		b.WriteString(` AND a.id <> $4`)
		args = append(args, excludeID)
	}
	b.WriteString(` ORDER BY a.id`)

	var entries []models.ConflictEntry
	if err := r.db.SelectContext(ctx, &entries, b.String(), args...); err != nil {
		return nil, fmt.Errorf("find conflicts on %s: %w", column, err)
	}
	return entries, nil
}

// FindDetailByID loads an arrangement joined with course and room.
func (r *ExamArrangementRepository) FindDetailByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExamArrangementDetail, error) {
	const query = arrangementDetailSelect + ` WHERE a.id = $1`
	var detail models.ExamArrangementDetail
	if err := sqlx.GetContext(ctx, r.exec(exec), &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdatePlacement applies the non-nil fields of patch.
func (r *ExamArrangementRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, patch models.ExamArrangementPatch) error {
	if patch.Empty() {
		return fmt.Errorf("update exam arrangement: no fields supplied")
	}
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	add := func(column string, value string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.RoomID != nil {
		add("room_id", *patch.RoomID)
	}
	if patch.ExamDate != nil {
		add("exam_date", *patch.ExamDate)
	}
	if patch.ExamTime != nil {
		add("exam_time", *patch.ExamTime)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE exam_arrangements SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update exam arrangement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exam arrangement rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDetailed returns every arrangement ordered by date, slot and room.
func (r *ExamArrangementRepository) ListDetailed(ctx context.Context) ([]models.ExamArrangementDetail, error) {
	const query = arrangementDetailSelect + ` ORDER BY a.exam_date, a.exam_time, a.room_id, a.session_no`
	var list []models.ExamArrangementDetail
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("list exam arrangements: %w", err)
	}
	return list, nil
}

// ListByTeacherBetween returns a teacher's arrangements. Empty bounds are open.
func (r *ExamArrangementRepository) ListByTeacherBetween(ctx context.Context, teacher, start, end string) ([]models.ExamArrangementDetail, error) {
	query := arrangementDetailSelect + ` WHERE c.teacher = $1`
	args := []interface{}{teacher}
	if start != "" {
		args = append(args, start)
		query += fmt.Sprintf(` AND a.exam_date >= $%d`, len(args))
	}
	if end != "" {
		args = append(args, end)
		query += fmt.Sprintf(` AND a.exam_date <= $%d`, len(args))
	}
	query += ` ORDER BY a.exam_date, a.exam_time`

	var list []models.ExamArrangementDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher arrangements: %w", err)
	}
	return list, nil
}
