package models

// ConflictEntry describes an existing arrangement that collides with a
// candidate booking. Error is set instead when the lookup itself failed.
type ConflictEntry struct {
	ArrangementID string `db:"id" json:"arrangement_id,omitempty"`
	CourseName    string `db:"course_name" json:"course_name,omitempty"`
	ClassName     string `db:"class_section" json:"class_name,omitempty"`
	Teacher       string `db:"teacher" json:"teacher,omitempty"`
	RoomName      string `db:"room_name" json:"room_name,omitempty"`
	Error         string `db:"-" json:"error,omitempty"`
}

// ConflictReport groups collisions by dimension.
type ConflictReport struct {
	Room    []ConflictEntry `json:"room_conflicts"`
	Teacher []ConflictEntry `json:"teacher_conflicts"`
	Class   []ConflictEntry `json:"class_conflicts"`
}

// HasConflict is true when any dimension has an entry.
func (r ConflictReport) HasConflict() bool {
	return len(r.Room) > 0 || len(r.Teacher) > 0 || len(r.Class) > 0
}

// SlotSuggestion is a canonical slot free for a teacher and class on a date.
type SlotSuggestion struct {
	TimeSlot       string `json:"time_slot"`
	AvailableRooms []Room `json:"available_rooms"`
}
