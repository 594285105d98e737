package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type sectionRequest struct {
	Title string `json:"title" binding:"required"`
	Order int    `json:"order" binding:"gte=0"`
}

type courseRequest struct {
	Title               *string               `json:"title" binding:"omitempty,min=1,max=200"`
	Description         *string               `json:"description"`
	InstructorInfo      *types.InstructorInfo `json:"instructor_info"`
	Price               *float64              `json:"price" binding:"omitempty,gte=0"`
	OriginalPrice       *float64              `json:"original_price" binding:"omitempty,gte=0"`
	Image               *string               `json:"image"`
	Thumbnail           *string               `json:"thumbnail"`
	Category            *string               `json:"category"`
	Level               *types.Level          `json:"level"`
	Duration            *string               `json:"duration"`
	Language            *string               `json:"language"`
	Tags                *[]string             `json:"tags"`
	Learning            *[]string             `json:"learning"`
	Requirements        *[]string             `json:"requirements"`
	Features            *[]string             `json:"features"`
	Subtitles           *[]string             `json:"subtitles"`
	IsPublished         *bool                 `json:"is_published"`
	IsFeatured          *bool                 `json:"is_featured"`
	CertificateIncluded *bool                 `json:"certificate_included"`
	LifetimeAccess      *bool                 `json:"lifetime_access"`
	InstructorIDs       *[]uuid.UUID          `json:"instructor_ids"`

	LessonLayout types.LessonLayout `json:"lesson_layout"`
	Sections     []sectionRequest   `json:"sections" binding:"omitempty,dive"`
}

func (r courseRequest) input() services.CourseInput {
	in := services.CourseInput{
		Title:               r.Title,
		Description:         r.Description,
		InstructorInfo:      r.InstructorInfo,
		Price:               r.Price,
		OriginalPrice:       r.OriginalPrice,
		Image:               r.Image,
		Thumbnail:           r.Thumbnail,
		Category:            r.Category,
		Level:               r.Level,
		Duration:            r.Duration,
		Language:            r.Language,
		Tags:                r.Tags,
		Learning:            r.Learning,
		Requirements:        r.Requirements,
		Features:            r.Features,
		Subtitles:           r.Subtitles,
		IsPublished:         r.IsPublished,
		IsFeatured:          r.IsFeatured,
		CertificateIncluded: r.CertificateIncluded,
		LifetimeAccess:      r.LifetimeAccess,
		InstructorIDs:       r.InstructorIDs,
		LessonLayout:        r.LessonLayout,
	}
	for _, s := range r.Sections {
		in.Sections = append(in.Sections, services.SectionInput{Title: s.Title, Order: s.Order})
	}
	return in
}

// GET /api/courses?category=&level=&search=&featured=&published=&limit=&offset=
func (ch *CourseHandler) List(c *gin.Context) {
	list, err := ch.courseService.List(c.Request.Context(), repos.CourseFilter{
		Category:  c.Query("category"),
		Level:     c.Query("level"),
		Search:    c.Query("search"),
		Featured:  boolQuery(c, "featured"),
		Published: boolQuery(c, "published"),
		Limit:     intQuery(c, "limit", 20),
		Offset:    intQuery(c, "offset", 0),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/courses/:id
func (ch *CourseHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := ch.courseService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/courses
func (ch *CourseHandler) Create(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	course, err := ch.courseService.Create(c.Request.Context(), req.input())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, course)
}

// PATCH /api/courses/:id
func (ch *CourseHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	course, err := ch.courseService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, course)
}

// DELETE /api/courses/:id
func (ch *CourseHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ch.courseService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Course deleted")
}

// GET /api/courses/:id/reviews
func (ch *CourseHandler) ListReviews(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	reviews, err := ch.courseService.ListReviews(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, reviews)
}

// POST /api/courses/:id/reviews
// body: { "rating": 1..5, "comment": "..." }
func (ch *CourseHandler) AddReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	review, err := ch.courseService.AddReview(c.Request.Context(), id, services.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, review)
}
