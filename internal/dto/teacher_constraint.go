package dto

// TeacherConstraintRequest replaces a teacher's exam rules.
type TeacherConstraintRequest struct {
	MaxExamsPerDay   int      `json:"maxExamsPerDay" validate:"required,min=1"`
	NoEveningExams   bool     `json:"noEveningExams"`
	NoWeekendExams   bool     `json:"noWeekendExams"`
	UnavailableDates []string `json:"unavailableDates" validate:"omitempty,dive,datetime=2006-01-02"`
	UnavailableTimes []string `json:"unavailableTimes" validate:"omitempty,dive,required"`
}

// TeacherSummaryQuery bounds a teacher's schedule summary. Both ends optional.
type TeacherSummaryQuery struct {
	StartDate string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// SuggestedTimesQuery picks the date to test.
type SuggestedTimesQuery struct {
	Date string `form:"date" validate:"required,datetime=2006-01-02"`
}

// SuggestedTime is a canonical slot and whether the teacher's rules allow it.
type SuggestedTime struct {
	TimeSlot string `json:"timeSlot"`
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason,omitempty"`
}
