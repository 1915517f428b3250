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

type adjustmentRequests interface {
	Submit(ctx context.Context, req dto.CreateAdjustmentRequest) (*dto.AdjustmentRequestResponse, error)
	List(ctx context.Context, query dto.AdjustmentRequestQuery) ([]models.AdjustmentRequest, error)
	Get(ctx context.Context, id string) (*models.AdjustmentRequest, error)
	Approve(ctx context.Context, id string, review dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error)
	Reject(ctx context.Context, id string, review dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error)
}

// AdjustmentRequestHandler exposes the change-request workflow.
type AdjustmentRequestHandler struct {
	service adjustmentRequests
}

// NewAdjustmentRequestHandler constructs the handler.
func NewAdjustmentRequestHandler(svc *service.AdjustmentRequestService) *AdjustmentRequestHandler {
	return &AdjustmentRequestHandler{service: svc}
}

// Submit godoc
// @Summary Submit an adjustment request
// @Description Stores a pending request. Conflicts at submission time are reported but do not block.
// @Tags AdjustmentRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateAdjustmentRequest true "Proposal"
// @Success 201 {object} response.Envelope
// @Router /adjustment-requests [post]
func (h *AdjustmentRequestHandler) Submit(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
	if !bindJSON(c, &req, "adjustment request") {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List adjustment requests
// @Tags AdjustmentRequests
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param requester query string false "Requester"
// @Success 200 {object} response.Envelope
// @Router /adjustment-requests [get]
func (h *AdjustmentRequestHandler) List(c *gin.Context) {
	var query dto.AdjustmentRequestQuery
	if !bindQuery(c, &query) {
		return
	}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, map[string]interface{}{"total": len(list)})
}

// Get godoc
// @Summary Get an adjustment request
// @Tags AdjustmentRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /adjustment-requests/{id} [get]
func (h *AdjustmentRequestHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req)
}

// Approve godoc
// @Summary Approve and apply an adjustment request
// @Tags AdjustmentRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewAdjustmentRequest true "Review"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /adjustment-requests/{id}/approve [post]
func (h *AdjustmentRequestHandler) Approve(c *gin.Context) {
	var review dto.ReviewAdjustmentRequest
	if !bindJSON(c, &review, "review") {
		return
	}
	req, err := h.service.Approve(c.Request.Context(), c.Param("id"), review)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req)
}

// Reject godoc
// @Summary Reject an adjustment request
// @Tags AdjustmentRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewAdjustmentRequest true "Review"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /adjustment-requests/{id}/reject [post]
func (h *AdjustmentRequestHandler) Reject(c *gin.Context) {
	var review dto.ReviewAdjustmentRequest
	if !bindJSON(c, &review, "review") {
		return
	}
	req, err := h.service.Reject(c.Request.Context(), c.Param("id"), review)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req)
}
