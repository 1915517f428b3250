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

type examScheduler interface {
	Schedule(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleResult, error)
	Adjust(ctx context.Context, id string, req dto.AdjustArrangementRequest) (bool, error)
	ListArrangements(ctx context.Context) ([]models.ExamArrangementDetail, error)
}

type scheduleJobs interface {
	Enqueue(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleJob, error)
	Job(ctx context.Context, id string) (*dto.ScheduleJob, error)
}

type arrangementExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// ExamArrangementHandler exposes scheduling, adjustment and export endpoints.
type ExamArrangementHandler struct {
	scheduler examScheduler
	jobs      scheduleJobs
	exporter  arrangementExporter
}

// NewExamArrangementHandler constructs the handler.
func NewExamArrangementHandler(scheduler *service.ExamSchedulerService, jobs *service.ScheduleJobService, exporter *service.ExportService) *ExamArrangementHandler {
	return &ExamArrangementHandler{scheduler: scheduler, jobs: jobs, exporter: exporter}
}

// Schedule godoc
// @Summary Run the exam scheduler
// @Description Replaces every stored arrangement with a fresh schedule. Runs synchronously; a concurrent run is rejected with 409.
// @Tags ExamArrangements
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleExamsRequest false "Exam window"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-arrangements/schedule [post]
func (h *ExamArrangementHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleExamsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "schedule") {
		return
	}
	result, err := h.scheduler.Schedule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// EnqueueSchedule godoc
// @Summary Queue a background scheduling run
// @Tags ExamArrangements
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleExamsRequest false "Exam window"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /exam-arrangements/schedule/jobs [post]
func (h *ExamArrangementHandler) EnqueueSchedule(c *gin.Context) {
	var req dto.ScheduleExamsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "schedule") {
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Accepted(c, job)
}

// ScheduleJob godoc
// @Summary Poll a background scheduling run
// @Tags ExamArrangements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exam-arrangements/schedule/jobs/{id} [get]
func (h *ExamArrangementHandler) ScheduleJob(c *gin.Context) {
	job, err := h.jobs.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// List godoc
// @Summary List exam arrangements
// @Tags ExamArrangements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exam-arrangements [get]
func (h *ExamArrangementHandler) List(c *gin.Context) {
	list, err := h.scheduler.ListArrangements(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, map[string]interface{}{"total": len(list)})
}

// Adjust godoc
// @Summary Move one exam arrangement
// @Description Changes room, date or slot. The move is checked against every other arrangement; conflicts are returned in meta.conflicts with 409.
// @Tags ExamArrangements
// @Accept json
// @Produce json
// @Param id path string true "Arrangement ID"
// @Param payload body dto.AdjustArrangementRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-arrangements/{id} [patch]
func (h *ExamArrangementHandler) Adjust(c *gin.Context) {
	var req dto.AdjustArrangementRequest
	if !bindJSON(c, &req, "adjustment") {
		return
	}
	updated, err := h.scheduler.Adjust(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated})
}

// Export godoc
// @Summary Download exam arrangements
// @Tags ExamArrangements
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /exam-arrangements/export [get]
func (h *ExamArrangementHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if !bindQuery(c, &query) {
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
