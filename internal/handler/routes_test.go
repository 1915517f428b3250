package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/service"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

type schedulerStub struct {
	scheduled dto.ScheduleExamsRequest
	adjustErr error
}

func (s *schedulerStub) Schedule(_ context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleResult, error) {
	s.scheduled = req
	return &dto.ScheduleResult{Success: true, Total: 1, Placed: 1, Arrangements: 1, Failed: []dto.FailedCourse{}}, nil
}

func (s *schedulerStub) Adjust(_ context.Context, id string, _ dto.AdjustArrangementRequest) (bool, error) {
	if s.adjustErr != nil {
		return false, s.adjustErr
	}
	return id == "arr-1", nil
}

func (s *schedulerStub) ListArrangements(context.Context) ([]models.ExamArrangementDetail, error) {
	return []models.ExamArrangementDetail{{ExamArrangement: models.ExamArrangement{ID: "arr-1"}}}, nil
}

type jobsStub struct{}

func (jobsStub) Enqueue(_ context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleJob, error) {
	return &dto.ScheduleJob{ID: "job-1", Status: dto.ScheduleJobQueued, Request: req}, nil
}

func (jobsStub) Job(_ context.Context, id string) (*dto.ScheduleJob, error) {
	if id != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule job not found")
	}
	return &dto.ScheduleJob{ID: id, Status: dto.ScheduleJobSucceeded}, nil
}

type exporterStub struct{}

func (exporterStub) Export(_ context.Context, query dto.ExportQuery) (*service.ExportFile, error) {
	if query.Format == "pdf" {
		return &service.ExportFile{Filename: "exam_arrangements.pdf", ContentType: "application/pdf", Body: []byte("%PDF")}, nil
	}
	return &service.ExportFile{Filename: "exam_arrangements.csv", ContentType: "text/csv", Body: []byte("arrangement_id\narr-1\n")}, nil
}

type conflictStub struct{}

func (conflictStub) Check(_ context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	return &dto.ConflictCheckResponse{HasConflict: req.RoomID == "R1"}, nil
}

func (conflictStub) AvailableRooms(_ context.Context, _, _ string, minCapacity int) ([]models.Room, error) {
	return []models.Room{{ID: "R2", Capacity: minCapacity + 10}}, nil
}

func (conflictStub) SuggestAlternatives(context.Context, string, string, string, int) ([]models.SlotSuggestion, error) {
	return []models.SlotSuggestion{}, nil
}

type teacherStub struct{}

func (teacherStub) Get(_ context.Context, teacher string) (*models.TeacherConstraint, error) {
	return &models.TeacherConstraint{Teacher: teacher, MaxExamsPerDay: models.DefaultMaxExamsPerDay, Implicit: true}, nil
}

func (teacherStub) Set(_ context.Context, teacher string, req dto.TeacherConstraintRequest) (*models.TeacherConstraint, error) {
	return &models.TeacherConstraint{Teacher: teacher, MaxExamsPerDay: req.MaxExamsPerDay}, nil
}

func (teacherStub) Summary(context.Context, string, dto.TeacherSummaryQuery) ([]models.TeacherDaySchedule, error) {
	return []models.TeacherDaySchedule{}, nil
}

func (teacherStub) SuggestTimes(context.Context, string, dto.SuggestedTimesQuery) ([]dto.SuggestedTime, error) {
	return []dto.SuggestedTime{{TimeSlot: "08:00-10:00", Allowed: true}}, nil
}

type requestsStub struct{}

func (requestsStub) Submit(_ context.Context, req dto.CreateAdjustmentRequest) (*dto.AdjustmentRequestResponse, error) {
	return &dto.AdjustmentRequestResponse{Request: &models.AdjustmentRequest{ID: "req-1", ArrangementID: req.ArrangementID}}, nil
}

func (requestsStub) List(context.Context, dto.AdjustmentRequestQuery) ([]models.AdjustmentRequest, error) {
	return []models.AdjustmentRequest{}, nil
}

func (requestsStub) Get(_ context.Context, id string) (*models.AdjustmentRequest, error) {
	return &models.AdjustmentRequest{ID: id}, nil
}

func (requestsStub) Approve(context.Context, string, dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error) {
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "adjustment request is already APPROVED")
}

func (requestsStub) Reject(_ context.Context, id string, _ dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error) {
	return &models.AdjustmentRequest{ID: id, Status: models.AdjustmentRequestRejected}, nil
}

type auditLog struct {
	actions []string
}

func buildExamRouter(scheduler *schedulerStub) *gin.Engine {
	router, _ := buildAuditedRouter(scheduler)
	return router
}

func buildAuditedRouter(scheduler *schedulerStub) (*gin.Engine, *auditLog) {
	gin.SetMode(gin.TestMode)
	audit := &auditLog{}
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Arrangements: &ExamArrangementHandler{scheduler: scheduler, jobs: jobsStub{}, exporter: exporterStub{}},
		Conflicts:    &ConflictHandler{service: conflictStub{}},
		Teachers:     &TeacherConstraintHandler{service: teacherStub{}},
		Requests:     &AdjustmentRequestHandler{service: requestsStub{}},
		Audit: func(action string) gin.HandlerFunc {
			return func(c *gin.Context) {
				audit.actions = append(audit.actions, action)
				c.Next()
			}
		},
	})
	return router, audit
}

func performRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestExamRoutes(t *testing.T) {
	scheduler := &schedulerStub{}
	router, audit := buildAuditedRouter(scheduler)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"schedule with window", http.MethodPost, "/api/v1/exam-arrangements/schedule", `{"startDate":"2025-05-12","slotsPerDay":5}`, http.StatusOK, `"success":true`},
		{"schedule without body", http.MethodPost, "/api/v1/exam-arrangements/schedule", "", http.StatusOK, `"placed":1`},
		{"schedule bad json", http.MethodPost, "/api/v1/exam-arrangements/schedule", `{"startDate":`, http.StatusBadRequest, `"VALIDATION_ERROR"`},
		{"enqueue", http.MethodPost, "/api/v1/exam-arrangements/schedule/jobs", `{}`, http.StatusAccepted, `"status":"QUEUED"`},
		{"poll job", http.MethodGet, "/api/v1/exam-arrangements/schedule/jobs/job-1", "", http.StatusOK, `"SUCCEEDED"`},
		{"poll missing job", http.MethodGet, "/api/v1/exam-arrangements/schedule/jobs/nope", "", http.StatusNotFound, `"NOT_FOUND"`},
		{"list", http.MethodGet, "/api/v1/exam-arrangements", "", http.StatusOK, `"total":1`},
		{"adjust", http.MethodPatch, "/api/v1/exam-arrangements/arr-1", `{"roomId":"R2"}`, http.StatusOK, `"updated":true`},
		{"conflict check", http.MethodPost, "/api/v1/conflicts/check", `{"roomId":"R1","teacher":"T1","classSection":"A","date":"2025-05-12","timeSlot":"08:00-10:00"}`, http.StatusOK, `"hasConflict":true`},
		{"available rooms", http.MethodGet, "/api/v1/rooms/available?date=2025-05-12&timeSlot=08:00-10:00&minCapacity=20", "", http.StatusOK, `"capacity":30`},
		{"available rooms bad capacity", http.MethodGet, "/api/v1/rooms/available?date=2025-05-12&timeSlot=08:00-10:00&minCapacity=lots", "", http.StatusBadRequest, `"VALIDATION_ERROR"`},
		{"suggestions", http.MethodGet, "/api/v1/conflicts/suggestions?teacher=T1&classSection=A&date=2025-05-12", "", http.StatusOK, `"data":[]`},
		{"get constraints", http.MethodGet, "/api/v1/teachers/T1/constraints", "", http.StatusOK, `"teacher":"T1"`},
		{"set constraints", http.MethodPut, "/api/v1/teachers/T1/constraints", `{"maxExamsPerDay":2}`, http.StatusOK, `"max_exams_per_day":2`},
		{"summary", http.MethodGet, "/api/v1/teachers/T1/summary", "", http.StatusOK, `"data":[]`},
		{"suggested times", http.MethodGet, "/api/v1/teachers/T1/suggested-times?date=2025-05-12", "", http.StatusOK, `"allowed":true`},
		{"submit request", http.MethodPost, "/api/v1/adjustment-requests", `{"arrangementId":"arr-1"}`, http.StatusCreated, `"req-1"`},
		{"list requests", http.MethodGet, "/api/v1/adjustment-requests?status=PENDING", "", http.StatusOK, `"total":0`},
		{"get request", http.MethodGet, "/api/v1/adjustment-requests/req-7", "", http.StatusOK, `"req-7"`},
		{"approve reviewed", http.MethodPost, "/api/v1/adjustment-requests/req-1/approve", `{"reviewer":"admin"}`, http.StatusPreconditionFailed, `"PRECONDITION_FAILED"`},
		{"reject", http.MethodPost, "/api/v1/adjustment-requests/req-1/reject", `{"reviewer":"admin"}`, http.StatusOK, `"REJECTED"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
	assert.Equal(t, 5, scheduler.scheduled.SlotsPerDay)
	assert.Contains(t, audit.actions, "arrangements.adjust")
	assert.Contains(t, audit.actions, "adjustment_requests.approve")
	assert.NotContains(t, audit.actions, "")
}

func TestExportRouteStreamsAttachment(t *testing.T) {
	router := buildExamRouter(&schedulerStub{})

	w := performRequest(router, http.MethodGet, "/api/v1/exam-arrangements/export?format=pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="exam_arrangements.pdf"`, w.Header().Get("Content-Disposition"))

	w = performRequest(router, http.MethodGet, "/api/v1/exam-arrangements/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestAdjustConflictCarriesReport(t *testing.T) {
	report := models.ConflictReport{
		Room:    []models.ConflictEntry{{ArrangementID: "arr-2", CourseName: "Physics"}},
		Teacher: []models.ConflictEntry{},
		Class:   []models.ConflictEntry{},
	}
	scheduler := &schedulerStub{
		adjustErr: appErrors.Wrap(&service.ArrangementConflictError{Report: report}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "the new placement conflicts with existing arrangements"),
	}
	router := buildExamRouter(scheduler)

	w := performRequest(router, http.MethodPatch, "/api/v1/exam-arrangements/arr-1", `{"date":"2025-05-13"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Error *appErrors.Error `json:"error"`
		Meta  struct {
			Conflicts models.ConflictReport `json:"conflicts"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	require.Len(t, body.Meta.Conflicts.Room, 1)
	assert.Equal(t, "arr-2", body.Meta.Conflicts.Room[0].ArrangementID)
}

func TestAdjustPlainErrorHasNoMeta(t *testing.T) {
	router := buildExamRouter(&schedulerStub{adjustErr: errors.New("boom")})

	w := performRequest(router, http.MethodPatch, "/api/v1/exam-arrangements/arr-1", `{"date":"2025-05-13"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), `"meta"`)
}
