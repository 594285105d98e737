package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type ActivityHandler struct {
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// GET /api/activities?limit=
func (ah *ActivityHandler) ListMine(c *gin.Context) {
	list, err := ah.activityService.ListMine(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// POST /api/activities/:id/read
func (ah *ActivityHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ah.activityService.MarkRead(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Marked as read")
}
