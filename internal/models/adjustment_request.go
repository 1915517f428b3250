package models

import "time"

// AdjustmentRequestStatus tracks review of a teacher's change request.
type AdjustmentRequestStatus string

const (
	AdjustmentRequestPending  AdjustmentRequestStatus = "PENDING"
	AdjustmentRequestApproved AdjustmentRequestStatus = "APPROVED"
	AdjustmentRequestRejected AdjustmentRequestStatus = "REJECTED"
)

// AdjustmentRequest is a teacher's proposal to move one arrangement.
type AdjustmentRequest struct {
	ID             string                  `db:"id" json:"id"`
	ArrangementID  string                  `db:"arrangement_id" json:"arrangement_id"`
	Requester      string                  `db:"requester" json:"requester"`
	RequestedAt    time.Time               `db:"requested_at" json:"requested_at"`
	OriginalDate   string                  `db:"original_date" json:"original_date"`
	OriginalTime   string                  `db:"original_time" json:"original_time"`
	OriginalRoomID string                  `db:"original_room_id" json:"original_room_id"`
	NewDate        string                  `db:"new_date" json:"new_date"`
	NewTime        string                  `db:"new_time" json:"new_time"`
	NewRoomID      string                  `db:"new_room_id" json:"new_room_id"`
	Reason         string                  `db:"reason" json:"reason"`
	Status         AdjustmentRequestStatus `db:"status" json:"status"`
	Reviewer       *string                 `db:"reviewer" json:"reviewer,omitempty"`
	ReviewNote     *string                 `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt     *time.Time              `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// AdjustmentRequestFilter narrows request listings.
type AdjustmentRequestFilter struct {
	Status    AdjustmentRequestStatus
	Requester string
}
