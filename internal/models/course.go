package models

// Course is an imported class whose exam needs a room, date and slot.
type Course struct {
	ID            string `db:"id" json:"id"`
	HomeRoomID    string `db:"home_room_id" json:"home_room_id"`
	Title         string `db:"title" json:"title"`
	ClassTime     string `db:"class_time" json:"class_time"`
	ClassDate     string `db:"class_date" json:"class_date"`
	Level         string `db:"level" json:"level"`
	Department    string `db:"department" json:"department"`
	Major         string `db:"major" json:"major"`
	ClassSection  string `db:"class_section" json:"class_section"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
	ExamLocation  string `db:"exam_location" json:"exam_location"`
	Teacher       string `db:"teacher" json:"teacher"`
}

// MinExamHeadcount keeps tiny classes in a real exam room.
const MinExamHeadcount = 10

// Headcount is the seat count the scheduler plans for.
func (c Course) Headcount() int {
	if c.EnrolledCount < MinExamHeadcount {
		return MinExamHeadcount
	}
	return c.EnrolledCount
}
