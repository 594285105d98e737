package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type DeadlineHandler struct {
	deadlineService services.DeadlineService
}

func NewDeadlineHandler(deadlineService services.DeadlineService) *DeadlineHandler {
	return &DeadlineHandler{deadlineService: deadlineService}
}

// POST /api/courses/:id/deadlines
// body: { "title": "...", "due_date": RFC3339, "student_id": optional }
func (dh *DeadlineHandler) Create(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title     string     `json:"title" binding:"required"`
		DueDate   time.Time  `json:"due_date" binding:"required"`
		StudentID *uuid.UUID `json:"student_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	created, err := dh.deadlineService.Create(c.Request.Context(), courseID, services.DeadlineInput{
		Title:     req.Title,
		DueDate:   req.DueDate,
		StudentID: req.StudentID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}

// GET /api/courses/:id/deadlines
func (dh *DeadlineHandler) ListByCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	list, err := dh.deadlineService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/deadlines
func (dh *DeadlineHandler) ListUpcoming(c *gin.Context) {
	list, err := dh.deadlineService.ListUpcoming(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// POST /api/deadlines/:id/complete
func (dh *DeadlineHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := dh.deadlineService.Complete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Deadline completed")
}
