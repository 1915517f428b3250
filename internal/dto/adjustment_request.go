package dto

import "github.com/noah-isme/exam-scheduler/internal/models"

// CreateAdjustmentRequest is a teacher's proposal to move an arrangement.
type CreateAdjustmentRequest struct {
	ArrangementID string `json:"arrangementId" validate:"required"`
	Requester     string `json:"requester" validate:"required"`
	NewDate       string `json:"newDate" validate:"required,datetime=2006-01-02"`
	NewTime       string `json:"newTime" validate:"required"`
	NewRoomID     string `json:"newRoomId" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// AdjustmentRequestResponse pairs a stored request with the conflicts its
// proposal had at submission time.
type AdjustmentRequestResponse struct {
	Request     *models.AdjustmentRequest `json:"request"`
	HasConflict bool                      `json:"hasConflict"`
	Conflicts   models.ConflictReport     `json:"conflicts"`
}

// ReviewAdjustmentRequest approves or rejects a pending request.
type ReviewAdjustmentRequest struct {
	Reviewer string `json:"reviewer" validate:"required"`
	Note     string `json:"note" validate:"omitempty,max=500"`
}

// AdjustmentRequestQuery filters request listings.
type AdjustmentRequestQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Requester string `form:"requester"`
}
