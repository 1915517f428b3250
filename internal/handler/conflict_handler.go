package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/service"
	"github.com/noah-isme/exam-scheduler/pkg/response"
)

type conflictDetector interface {
	Check(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	AvailableRooms(ctx context.Context, date, slot string, minCapacity int) ([]models.Room, error)
	SuggestAlternatives(ctx context.Context, teacher, classSection, date string, minCapacity int) ([]models.SlotSuggestion, error)
}

// ConflictHandler exposes conflict checks and free-room lookups.
type ConflictHandler struct {
	service conflictDetector
}

// NewConflictHandler constructs the handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// Check godoc
// @Summary Check a candidate booking for conflicts
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate booking"
// @Success 200 {object} response.Envelope
// @Router /conflicts/check [post]
func (h *ConflictHandler) Check(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if !bindJSON(c, &req, "conflict check") {
		return
	}
	result, err := h.service.Check(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// AvailableRooms godoc
// @Summary List rooms free at a date and slot
// @Tags Conflicts
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param timeSlot query string true "Time slot (HH:MM-HH:MM)"
// @Param minCapacity query int false "Minimum seats"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *ConflictHandler) AvailableRooms(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if !bindQuery(c, &query) {
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), query.Date, query.TimeSlot, query.MinCapacity)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, map[string]interface{}{"total": len(rooms)})
}

// Suggestions godoc
// @Summary Suggest alternative slots for a teacher and class
// @Tags Conflicts
// @Produce json
// @Param teacher query string true "Teacher"
// @Param classSection query string true "Class section"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param minCapacity query int false "Minimum seats"
// @Success 200 {object} response.Envelope
// @Router /conflicts/suggestions [get]
func (h *ConflictHandler) Suggestions(c *gin.Context) {
	var query dto.SuggestionQuery
	if !bindQuery(c, &query) {
		return
	}
	suggestions, err := h.service.SuggestAlternatives(c.Request.Context(), query.Teacher, query.ClassSection, query.Date, query.MinCapacity)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions)
}
