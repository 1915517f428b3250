package dto

// CourseSeedRow is one row of a course import file.
type CourseSeedRow struct {
	ID            string `csv:"id" validate:"required"`
	HomeRoomID    string `csv:"home_room_id"`
	Title         string `csv:"title" validate:"required"`
	ClassTime     string `csv:"class_time"`
	ClassDate     string `csv:"class_date"`
	Level         string `csv:"level"`
	Department    string `csv:"department"`
	Major         string `csv:"major"`
	ClassSection  string `csv:"class_section" validate:"required"`
	EnrolledCount int    `csv:"enrolled_count" validate:"min=0"`
	ExamLocation  string `csv:"exam_location"`
	Teacher       string `csv:"teacher" validate:"required"`
}

// RoomSeedRow is one row of a room import file.
type RoomSeedRow struct {
	ID             string `csv:"id" validate:"required"`
	Name           string `csv:"name" validate:"required"`
	Capacity       int    `csv:"capacity" validate:"required,gt=0"`
	Building       string `csv:"building"`
	Floor          string `csv:"floor"`
	AvailableDays  string `csv:"available_days"`
	AvailableTimes string `csv:"available_times"`
}

// SeedRowError names a skipped import row.
type SeedRowError struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// SeedReport summarises an import.
type SeedReport struct {
	Courses int            `json:"courses"`
	Rooms   int            `json:"rooms"`
	Skipped []SeedRowError `json:"skipped"`
}
