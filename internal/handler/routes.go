package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler for route registration. Audit, when set,
// wraps mutating routes.
type Handlers struct {
	Arrangements *ExamArrangementHandler
	Conflicts    *ConflictHandler
	Teachers     *TeacherConstraintHandler
	Requests     *AdjustmentRequestHandler
	Audit        func(action string) gin.HandlerFunc
}

func (h Handlers) audit(action string, next gin.HandlerFunc) []gin.HandlerFunc {
	if h.Audit == nil {
		return []gin.HandlerFunc{next}
	}
	return []gin.HandlerFunc{h.Audit(action), next}
}

// RegisterRoutes mounts the API under api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	arrangements := api.Group("/exam-arrangements")
	arrangements.GET("", h.Arrangements.List)
	arrangements.GET("/export", h.Arrangements.Export)
	arrangements.POST("/schedule", h.audit("arrangements.schedule", h.Arrangements.Schedule)...)
	arrangements.POST("/schedule/jobs", h.audit("arrangements.schedule_job", h.Arrangements.EnqueueSchedule)...)
	arrangements.GET("/schedule/jobs/:id", h.Arrangements.ScheduleJob)
	arrangements.PATCH("/:id", h.audit("arrangements.adjust", h.Arrangements.Adjust)...)

	api.POST("/conflicts/check", h.Conflicts.Check)
	api.GET("/conflicts/suggestions", h.Conflicts.Suggestions)
	api.GET("/rooms/available", h.Conflicts.AvailableRooms)

	teachers := api.Group("/teachers/:teacher")
	teachers.GET("/constraints", h.Teachers.Get)
	teachers.PUT("/constraints", h.audit("teachers.set_constraints", h.Teachers.Set)...)
	teachers.GET("/summary", h.Teachers.Summary)
	teachers.GET("/suggested-times", h.Teachers.SuggestedTimes)

	requests := api.Group("/adjustment-requests")
	requests.POST("", h.audit("adjustment_requests.submit", h.Requests.Submit)...)
	requests.GET("", h.Requests.List)
	requests.GET("/:id", h.Requests.Get)
	requests.POST("/:id/approve", h.audit("adjustment_requests.approve", h.Requests.Approve)...)
	requests.POST("/:id/reject", h.audit("adjustment_requests.reject", h.Requests.Reject)...)
}
