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

type teacherConstraints interface {
	Get(ctx context.Context, teacher string) (*models.TeacherConstraint, error)
	Set(ctx context.Context, teacher string, req dto.TeacherConstraintRequest) (*models.TeacherConstraint, error)
	Summary(ctx context.Context, teacher string, query dto.TeacherSummaryQuery) ([]models.TeacherDaySchedule, error)
	SuggestTimes(ctx context.Context, teacher string, query dto.SuggestedTimesQuery) ([]dto.SuggestedTime, error)
}

// TeacherConstraintHandler exposes per-teacher exam rules.
type TeacherConstraintHandler struct {
	service teacherConstraints
}

// NewTeacherConstraintHandler constructs the handler.
func NewTeacherConstraintHandler(svc *service.ConstraintService) *TeacherConstraintHandler {
	return &TeacherConstraintHandler{service: svc}
}

// Get godoc
// @Summary Get a teacher's exam constraints
// @Description Teachers without stored rules get the defaults, flagged implicit.
// @Tags Teachers
// @Produce json
// @Param teacher path string true "Teacher"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacher}/constraints [get]
func (h *TeacherConstraintHandler) Get(c *gin.Context) {
	constraint, err := h.service.Get(c.Request.Context(), c.Param("teacher"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraint)
}

// Set godoc
// @Summary Replace a teacher's exam constraints
// @Tags Teachers
// @Accept json
// @Produce json
// @Param teacher path string true "Teacher"
// @Param payload body dto.TeacherConstraintRequest true "Constraints"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacher}/constraints [put]
func (h *TeacherConstraintHandler) Set(c *gin.Context) {
	var req dto.TeacherConstraintRequest
	if !bindJSON(c, &req, "constraint") {
		return
	}
	saved, err := h.service.Set(c.Request.Context(), c.Param("teacher"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved)
}

// Summary godoc
// @Summary Per-day exam summary for a teacher
// @Tags Teachers
// @Produce json
// @Param teacher path string true "Teacher"
// @Param startDate query string false "From (YYYY-MM-DD)"
// @Param endDate query string false "To (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacher}/summary [get]
func (h *TeacherConstraintHandler) Summary(c *gin.Context) {
	var query dto.TeacherSummaryQuery
	if !bindQuery(c, &query) {
		return
	}
	days, err := h.service.Summary(c.Request.Context(), c.Param("teacher"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}

// SuggestedTimes godoc
// @Summary Which canonical slots a teacher may take on a date
// @Tags Teachers
// @Produce json
// @Param teacher path string true "Teacher"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacher}/suggested-times [get]
func (h *TeacherConstraintHandler) SuggestedTimes(c *gin.Context) {
	var query dto.SuggestedTimesQuery
	if !bindQuery(c, &query) {
		return
	}
	times, err := h.service.SuggestTimes(c.Request.Context(), c.Param("teacher"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, times)
}
