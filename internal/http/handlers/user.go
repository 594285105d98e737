package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/profile/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, me)
}

// PUT /api/profile/me
// body: { "name": "...", "bio": "...", "avatar_url": "..." }
func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Name      *string `json:"name"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url" binding:"omitempty,max=2048"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindErr(c, err)
		return
	}
	me, err := uh.userService.UpdateMe(c.Request.Context(), services.ProfileInput{
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, me)
}

// GET /api/profile/admin
func (uh *UserHandler) Admin(c *gin.Context) {
	me, err := uh.userService.AdminProfile(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Welcome Admin", "user": me})
}

// GET /api/instructors
func (uh *UserHandler) ListInstructors(c *gin.Context) {
	instructors, err := uh.userService.ListInstructors(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, instructors)
}
