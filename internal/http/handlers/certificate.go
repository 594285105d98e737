package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/services"
)

type CertificateHandler struct {
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// GET /api/certificates
func (ch *CertificateHandler) ListMine(c *gin.Context) {
	list, err := ch.certificateService.ListMine(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/certificates/:id/artifact
func (ch *CertificateHandler) Artifact(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	png, err := ch.certificateService.Artifact(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
