package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/dto"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/service"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/response"
)

// SubstitutionHandler wires the request lifecycle to HTTP routes.
type SubstitutionHandler struct {
	substitutions *service.SubstitutionService
}

// NewSubstitutionHandler constructs a new SubstitutionHandler.
func NewSubstitutionHandler(substitutions *service.SubstitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{substitutions: substitutions}
}

// Create godoc
// @Summary Open a substitution request
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubstitutionRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	var req dto.CreateSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitution payload"))
		return
	}
	request, err := h.substitutions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Get godoc
// @Summary Get a substitution request
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	request, err := h.substitutions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// List godoc
// @Summary List substitution requests
// @Tags Substitutions
// @Produce json
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param status query string false "Filter by status"
// @Param teacher_id query string false "Filter by absent or substitute teacher"
// @Param class_id query string false "Filter by class"
// @Param escalated query bool false "Filter by escalation flag"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	filter := models.SubstitutionFilter{
		Date:      c.Query("date"),
		Status:    models.RequestStatus(c.Query("status")),
		TeacherID: c.Query("teacher_id"),
		ClassID:   c.Query("class_id"),
	}
	if escalated := c.Query("escalated"); escalated != "" {
		switch strings.ToLower(escalated) {
		case "true":
			val := true
			filter.Escalated = &val
		case "false":
			val := false
			filter.Escalated = &val
		}
	}
	requests, err := h.substitutions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// Assign godoc
// @Summary Manually assign a substitute
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/assign [post]
func (h *SubstitutionHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	request, err := h.substitutions.AssignManually(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Confirm godoc
// @Summary Confirm an assignment
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ConfirmRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/confirm [post]
func (h *SubstitutionHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}
	request, err := h.substitutions.Confirm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Decline godoc
// @Summary Decline an assignment
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DeclineRequest false "Decline payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/decline [post]
func (h *SubstitutionHandler) Decline(c *gin.Context) {
	var req dto.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decline payload"))
		return
	}
	request, err := h.substitutions.Decline(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Complete godoc
// @Summary Complete a substitution
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.CompleteRequest false "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/complete [post]
func (h *SubstitutionHandler) Complete(c *gin.Context) {
	var req dto.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	request, err := h.substitutions.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Cancel godoc
// @Summary Cancel a substitution request
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.CancelRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
		return
	}
	request, err := h.substitutions.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Escalate godoc
// @Summary Escalate a request for administrator attention
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/escalate [post]
func (h *SubstitutionHandler) Escalate(c *gin.Context) {
	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid escalation payload"))
		return
	}
	request, err := h.substitutions.Escalate(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// AutoAssign godoc
// @Summary Sweep pending requests and auto-assign substitutes
// @Tags Substitutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /substitutions/auto-assign [post]
func (h *SubstitutionHandler) AutoAssign(c *gin.Context) {
	result, err := h.substitutions.AutoAssignPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// AvailableTeachers godoc
// @Summary Rank eligible substitutes for a date and window
// @Tags Substitutions
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Window start (HH:MM)"
// @Param end_time query string true "Window end (HH:MM)"
// @Param subject query string false "Subject filter"
// @Param class_id query string false "Class scope"
// @Success 200 {object} response.Envelope
// @Router /substitutions/available-teachers [get]
func (h *SubstitutionHandler) AvailableTeachers(c *gin.Context) {
	window := models.Window{
		Start: strings.TrimSpace(c.Query("start_time")),
		End:   strings.TrimSpace(c.Query("end_time")),
	}
	teachers, err := h.substitutions.FindAvailableTeachers(c.Request.Context(), c.Query("date"), window, c.Query("subject"), c.Query("class_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}
