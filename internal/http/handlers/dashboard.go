package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GET /api/dashboard/student
func (dh *DashboardHandler) Student(c *gin.Context) {
	d, err := dh.dashboardService.Student(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /api/dashboard/instructor
func (dh *DashboardHandler) Instructor(c *gin.Context) {
	d, err := dh.dashboardService.Instructor(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /api/dashboard/admin
func (dh *DashboardHandler) Admin(c *gin.Context) {
	d, err := dh.dashboardService.Admin(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, d)
}
