package models

import "time"

// ExamArrangement is one persisted (room, date, slot) booking for a course or
// for one session of a split course.
type ExamArrangement struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	ExamDate     string    `db:"exam_date" json:"exam_date"`
	ExamTime     string    `db:"exam_time" json:"exam_time"`
	ClassSection string    `db:"class_section" json:"class_section"`
	StudentCount int       `db:"student_count" json:"student_count"`
	Department   string    `db:"department" json:"department"`
	Major        string    `db:"major" json:"major"`
	Level        string    `db:"level" json:"level"`
	SessionNo    int       `db:"session_no" json:"session_no"`
	SessionTotal int       `db:"session_total" json:"session_total"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExamArrangementDetail joins an arrangement with its course and room.
type ExamArrangementDetail struct {
	ExamArrangement
	CourseTitle  string `db:"course_title" json:"course_title"`
	Teacher      string `db:"teacher" json:"teacher"`
	RoomName     string `db:"room_name" json:"room_name"`
	RoomCapacity int    `db:"room_capacity" json:"room_capacity"`
	Building     string `db:"building" json:"building"`
}

// ExamArrangementPatch lists the mutable fields of an arrangement. Nil means unchanged.
type ExamArrangementPatch struct {
	RoomID   *string
	ExamDate *string
	ExamTime *string
}

// Empty reports whether no field is set.
func (p ExamArrangementPatch) Empty() bool {
	return p.RoomID == nil && p.ExamDate == nil && p.ExamTime == nil
}

// TeacherDaySchedule groups a teacher's arrangements for one date.
type TeacherDaySchedule struct {
	Date         string                  `json:"date"`
	Count        int                     `json:"count"`
	Arrangements []ExamArrangementDetail `json:"arrangements"`
}
