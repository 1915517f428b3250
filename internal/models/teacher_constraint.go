package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DefaultMaxExamsPerDay applies to teachers without an explicit record.
const DefaultMaxExamsPerDay = 3

// CommaList is a string set stored as a comma-joined column.
type CommaList []string

// Value implements driver.Valuer.
func (l CommaList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner.
func (l *CommaList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		raw = ""
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan comma list: unsupported type %T", src)
	}
	*l = SplitCommaList(raw)
	return nil
}

// Contains reports whether v is in the list.
func (l CommaList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// SplitCommaList splits and trims a comma-joined value, dropping empties.
func SplitCommaList(raw string) CommaList {
	out := CommaList{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TeacherConstraint holds per-teacher exam rules.
type TeacherConstraint struct {
	Teacher          string     `db:"teacher" json:"teacher"`
	MaxExamsPerDay   int        `db:"max_exams_per_day" json:"max_exams_per_day"`
	NoEveningExams   bool       `db:"no_evening_exams" json:"no_evening_exams"`
	NoWeekendExams   bool       `db:"no_weekend_exams" json:"no_weekend_exams"`
	UnavailableDates CommaList  `db:"unavailable_dates" json:"unavailable_dates"`
	UnavailableTimes CommaList  `db:"unavailable_times" json:"unavailable_times"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	// Implicit is true when no stored record exists.
	Implicit bool `db:"-" json:"implicit"`
}

// DefaultTeacherConstraint returns the implicit record for teacher.
func DefaultTeacherConstraint(teacher string) *TeacherConstraint {
	return &TeacherConstraint{
		Teacher:          teacher,
		MaxExamsPerDay:   DefaultMaxExamsPerDay,
		UnavailableDates: CommaList{},
		UnavailableTimes: CommaList{},
		Implicit:         true,
	}
}
