package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// POST /api/courses/:id/enroll
func (eh *EnrollmentHandler) Enroll(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := eh.enrollmentService.Enroll(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "Enrolled successfully", "enrollment": e})
}

// GET /api/courses/enrolled
func (eh *EnrollmentHandler) ListEnrolled(c *gin.Context) {
	list, err := eh.enrollmentService.ListEnrolled(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// PATCH /api/courses/:id/progress
// body: { "progress": 0..100 }
func (eh *EnrollmentHandler) ReportProgress(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Progress *int `json:"progress" binding:"required,min=0,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	e, err := eh.enrollmentService.ReportProgress(c.Request.Context(), id, *req.Progress)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, e)
}

// POST /api/courses/:id/lessons/:lessonId/complete
func (eh *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}
	res, err := eh.enrollmentService.CompleteLesson(c.Request.Context(), courseID, lessonID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
