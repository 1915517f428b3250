package models

// Room is a physical exam room. AvailableDays and AvailableTimes are advisory.
type Room struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Capacity       int    `db:"capacity" json:"capacity"`
	Building       string `db:"building" json:"building"`
	Floor          string `db:"floor" json:"floor"`
	AvailableDays  string `db:"available_days" json:"available_days"`
	AvailableTimes string `db:"available_times" json:"available_times"`
}
