package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/dto"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/service"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/response"
)

// AvailabilityHandler wires availability services to HTTP routes.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs a new AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Declare godoc
// @Summary Declare an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.DeclareAvailabilityRequest true "Availability payload"
// @Success 201 {object} response.Envelope
// @Router /availabilities [post]
func (h *AvailabilityHandler) Declare(c *gin.Context) {
	var req dto.DeclareAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	record, err := h.availability.Declare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// BulkDeclare godoc
// @Summary Generate availability from a weekly template
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeclareRequest true "Bulk declaration payload"
// @Success 200 {object} response.Envelope
// @Router /availabilities/bulk [post]
func (h *AvailabilityHandler) BulkDeclare(c *gin.Context) {
	var req dto.BulkDeclareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk declaration payload"))
		return
	}
	result, err := h.availability.BulkDeclareDefault(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Query godoc
// @Summary List available teachers for a date and window
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Window start (HH:MM)"
// @Param end_time query string true "Window end (HH:MM)"
// @Param subject query string false "Subject filter"
// @Success 200 {object} response.Envelope
// @Router /availabilities [get]
func (h *AvailabilityHandler) Query(c *gin.Context) {
	window := models.Window{
		Start: strings.TrimSpace(c.Query("start_time")),
		End:   strings.TrimSpace(c.Query("end_time")),
	}
	records, err := h.availability.QueryAvailable(c.Request.Context(), c.Query("date"), window, c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// ListByTeacher godoc
// @Summary List a teacher's availability declarations
// @Tags Availability
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param from query string false "Earliest date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /availabilities/teacher/{teacherId} [get]
func (h *AvailabilityHandler) ListByTeacher(c *gin.Context) {
	records, err := h.availability.ListByTeacher(c.Request.Context(), c.Param("teacherId"), c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Update godoc
// @Summary Rewrite an availability declaration
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Availability ID"
// @Param payload body dto.UpdateAvailabilityRequest true "Updated availability payload"
// @Success 200 {object} response.Envelope
// @Router /availabilities/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	record, err := h.availability.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete godoc
// @Summary Remove an availability declaration
// @Tags Availability
// @Param id path string true "Availability ID"
// @Success 204
// @Router /availabilities/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.availability.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
