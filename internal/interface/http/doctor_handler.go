package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/internal/directory"
	"github.com/ghanahealth/patient-portal/pkg/response"
)

type DoctorHandler struct {
	Docs   *directory.Service
	Logger *logrus.Logger
}

func NewDoctorHandler(docs *directory.Service, logger *logrus.Logger) *DoctorHandler {
	return &DoctorHandler{Docs: docs, Logger: logger}
}

// Search GET /api/doctors?q=&location= (auth required)
func (h *DoctorHandler) Search(c *gin.Context) {
	q := c.Query("q")
	location := c.Query("location")

	docs, err := h.Docs.Search(c.Request.Context(), q, location)
	if err != nil {
		h.Logger.WithError(err).Error("doctor search failed")
		response.Error[any](c, http.StatusInternalServerError, "doctor search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, docs, "doctors", map[string]any{"count": len(docs)})
}
