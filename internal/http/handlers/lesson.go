package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type LessonHandler struct {
	lessonService services.LessonService
}

func NewLessonHandler(lessonService services.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

type lessonRequest struct {
	Title       *string               `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string               `json:"description"`
	Duration    *string               `json:"duration"`
	Order       *int                  `json:"order" binding:"omitempty,gte=0"`
	Type        *types.LessonType     `json:"type"`
	VideoURL    *string               `json:"video_url"`
	Thumbnail   *string               `json:"thumbnail"`
	Content     *string               `json:"content"`
	Code        *[]types.CodeBlock    `json:"code"`
	Quiz        *[]types.QuizQuestion `json:"quiz"`
	Resources   *[]types.Resource     `json:"resources"`
	Metadata    *types.LessonMetadata `json:"metadata"`
	IsPublished *bool                 `json:"is_published"`

	SectionID    *uuid.UUID `json:"section_id"`
	SectionOrder int        `json:"section_order" binding:"gte=0"`
}

func (r lessonRequest) input() services.LessonInput {
	return services.LessonInput{
		Title:        r.Title,
		Description:  r.Description,
		Duration:     r.Duration,
		Order:        r.Order,
		Type:         r.Type,
		VideoURL:     r.VideoURL,
		Thumbnail:    r.Thumbnail,
		Content:      r.Content,
		Code:         r.Code,
		Quiz:         r.Quiz,
		Resources:    r.Resources,
		Metadata:     r.Metadata,
		IsPublished:  r.IsPublished,
		SectionID:    r.SectionID,
		SectionOrder: r.SectionOrder,
	}
}

// GET /api/courses/:id/lessons
func (lh *LessonHandler) List(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessons, err := lh.lessonService.List(c.Request.Context(), courseID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, lessons)
}

// GET /api/courses/:id/lessons/:lessonId
func (lh *LessonHandler) Get(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}
	lesson, err := lh.lessonService.Get(c.Request.Context(), courseID, lessonID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, lesson)
}

// POST /api/courses/:id/lessons
func (lh *LessonHandler) Create(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	lesson, err := lh.lessonService.Create(c.Request.Context(), courseID, req.input())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, lesson)
}

// PUT /api/courses/:id/lessons/:lessonId
func (lh *LessonHandler) Update(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	lesson, err := lh.lessonService.Update(c.Request.Context(), courseID, lessonID, req.input())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, lesson)
}

// DELETE /api/courses/:id/lessons/:lessonId
func (lh *LessonHandler) Delete(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}
	if err := lh.lessonService.Delete(c.Request.Context(), courseID, lessonID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Lesson deleted")
}
