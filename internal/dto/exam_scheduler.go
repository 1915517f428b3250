package dto

import "time"

// ScheduleExamsRequest starts a full scheduling run. Empty dates default to
// next Monday and a seven day window.
type ScheduleExamsRequest struct {
	StartDate   string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	SlotsPerDay int    `json:"slotsPerDay" validate:"omitempty,oneof=4 5"`
}

// FailedCourse is a course neither placement pass could book.
type FailedCourse struct {
	CourseID     string `json:"courseId"`
	Title        string `json:"title"`
	Teacher      string `json:"teacher"`
	ClassSection string `json:"classSection"`
	StudentCount int    `json:"studentCount"`
	Reason       string `json:"reason"`
}

// ScheduleWindow echoes the resolved exam window.
type ScheduleWindow struct {
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Days        int      `json:"days"`
	SlotsPerDay int      `json:"slotsPerDay"`
	TimeSlots   []string `json:"timeSlots"`
}

// ScheduleResult reports a run. Aborted means every write was rolled back.
type ScheduleResult struct {
	Success      bool           `json:"success"`
	Aborted      bool           `json:"aborted,omitempty"`
	Cancelled    bool           `json:"cancelled,omitempty"`
	Message      string         `json:"message"`
	Total        int            `json:"total"`
	Placed       int            `json:"placed"`
	Arrangements int            `json:"arrangements"`
	Failed       []FailedCourse `json:"failed"`
	Window       ScheduleWindow `json:"window"`
}

// AdjustArrangementRequest moves one arrangement. Omitted fields stay as is.
type AdjustArrangementRequest struct {
	RoomID   *string `json:"roomId" validate:"omitempty,min=1"`
	Date     *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot *string `json:"timeSlot" validate:"omitempty"`
}

// ScheduleJobStatus tracks an asynchronous run.
type ScheduleJobStatus string

const (
	ScheduleJobQueued    ScheduleJobStatus = "QUEUED"
	ScheduleJobRunning   ScheduleJobStatus = "RUNNING"
	ScheduleJobSucceeded ScheduleJobStatus = "SUCCEEDED"
	ScheduleJobFailed    ScheduleJobStatus = "FAILED"
)

// ScheduleJob is the polled view of an asynchronous run.
type ScheduleJob struct {
	ID         string               `json:"id"`
	Status     ScheduleJobStatus    `json:"status"`
	Request    ScheduleExamsRequest `json:"request"`
	Result     *ScheduleResult      `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	EnqueuedAt time.Time            `json:"enqueuedAt"`
	StartedAt  *time.Time           `json:"startedAt,omitempty"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
}

// ExportQuery selects the export encoding.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ArrangementExportRow is one line of the CSV export.
type ArrangementExportRow struct {
	ArrangementID string `csv:"arrangement_id"`
	CourseID      string `csv:"course_id"`
	CourseTitle   string `csv:"course_title"`
	Teacher       string `csv:"teacher"`
	ClassSection  string `csv:"class_section"`
	Department    string `csv:"department"`
	Major         string `csv:"major"`
	Level         string `csv:"level"`
	ExamDate      string `csv:"exam_date"`
	ExamTime      string `csv:"exam_time"`
	RoomID        string `csv:"room_id"`
	RoomName      string `csv:"room_name"`
	StudentCount  int    `csv:"student_count"`
	Session       string `csv:"session"`
}
