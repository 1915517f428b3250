package dto

import "github.com/noah-isme/exam-scheduler/internal/models"

// ConflictCheckRequest is a candidate booking to test against stored arrangements.
type ConflictCheckRequest struct {
	RoomID       string `json:"roomId" validate:"required"`
	Teacher      string `json:"teacher" validate:"required"`
	ClassSection string `json:"classSection" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot     string `json:"timeSlot" validate:"required"`
	ExcludeID    string `json:"excludeId"`
}

// ConflictCheckResponse carries the grouped report and a printable summary.
type ConflictCheckResponse struct {
	HasConflict bool                  `json:"hasConflict"`
	Conflicts   models.ConflictReport `json:"conflicts"`
	Summary     string                `json:"summary"`
}

// AvailableRoomsQuery lists rooms free at a date and slot.
type AvailableRoomsQuery struct {
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot    string `form:"timeSlot" validate:"required"`
	MinCapacity int    `form:"minCapacity" validate:"omitempty,min=0"`
}

// SuggestionQuery asks for slots free for a teacher and class on a date.
type SuggestionQuery struct {
	Teacher      string `form:"teacher" validate:"required"`
	ClassSection string `form:"classSection" validate:"required"`
	Date         string `form:"date" validate:"required,datetime=2006-01-02"`
	MinCapacity  int    `form:"minCapacity" validate:"omitempty,min=0"`
}
