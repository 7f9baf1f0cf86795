package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/scheduler"
	"eyeclinic-server/internal/utils"
)

// AppointmentLinkHandler handles staff link generation and the public
// link-based scheduling flow.
type AppointmentLinkHandler struct {
	Scheduler *scheduler.Scheduler
}

// NewAppointmentLinkHandler creates a new AppointmentLinkHandler.
func NewAppointmentLinkHandler(s *scheduler.Scheduler) *AppointmentLinkHandler {
	return &AppointmentLinkHandler{Scheduler: s}
}

// respondLinkError maps link errors onto the Spanish-facing public responses.
func respondLinkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrLinkNotFound):
		utils.NotFound(c, "Link no encontrado")
	case errors.Is(err, scheduler.ErrLinkInactive):
		utils.BadRequest(c, "Este link ya no está activo")
	case errors.Is(err, scheduler.ErrLinkExpired):
		utils.BadRequest(c, "Este link ha expirado")
	case errors.Is(err, scheduler.ErrLinkExhausted):
		utils.BadRequest(c, "Este link ha alcanzado el límite de uso")
	case errors.Is(err, scheduler.ErrLinkDoctorMismatch):
		utils.BadRequest(c, "Este link es para un doctor diferente")
	case errors.Is(err, scheduler.ErrDoctorNotFound):
		utils.NotFound(c, "Doctor no encontrado")
	case errors.Is(err, scheduler.ErrSlotConflict):
		utils.BadRequest(c, "Este horario ya está ocupado. Por favor seleccione otro.")
	case errors.Is(err, scheduler.ErrValidation):
		utils.BadRequest(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// GenerateLinkRequest represents the staff request to create a scheduling link.
type GenerateLinkRequest struct {
	DoctorID      string `json:"doctorId"`
	MaxUses       int    `json:"maxUses"`
	ExpiresInDays int    `json:"expiresInDays"`
}

// GenerateLink creates a shareable scheduling link (staff only).
func (h *AppointmentLinkHandler) GenerateLink(c *gin.Context) {
	var req GenerateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	link, err := h.Scheduler.GenerateLink(c.Request.Context(), req.DoctorID, req.MaxUses, req.ExpiresInDays, requestMeta(c))
	if err != nil {
		respondLinkError(c, err)
		return
	}
	utils.Success(c, "Link generated successfully", link)
}

// GetLinkInfo returns the public metadata for a link token.
func (h *AppointmentLinkHandler) GetLinkInfo(c *gin.Context) {
	info, err := h.Scheduler.LinkInfo(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondLinkError(c, err)
		return
	}
	utils.Success(c, "Link válido", gin.H{"link": info})
}

// GetLinkSlots returns available slots for a doctor and date through a link.
func (h *AppointmentLinkHandler) GetLinkSlots(c *gin.Context) {
	doctorID := c.Query("doctorId")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		utils.BadRequest(c, "Doctor ID y fecha son requeridos")
		return
	}

	slots, err := h.Scheduler.LinkSlots(c.Request.Context(), c.Param("token"), doctorID, date)
	if err != nil {
		respondLinkError(c, err)
		return
	}
	utils.Success(c, "Horarios disponibles", gin.H{"availableSlots": slots})
}

// LinkScheduleRequest represents a patient booking through a link.
type LinkScheduleRequest struct {
	DoctorID        string                `json:"doctorId" binding:"required"`
	AppointmentDate string                `json:"appointmentDate" binding:"required"`
	StartTime       string                `json:"startTime" binding:"required"`
	EndTime         string                `json:"endTime" binding:"required"`
	AppointmentType string                `json:"appointmentType"`
	Reason          string                `json:"reason"`
	PatientInfo     scheduler.PatientInfo `json:"patientInfo" binding:"required"`
}

// ScheduleViaLink books an appointment through a link and consumes one use.
func (h *AppointmentLinkHandler) ScheduleViaLink(c *gin.Context) {
	var req LinkScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.ScheduleViaLink(c.Request.Context(), c.Param("token"), scheduler.LinkScheduleRequest{
		DoctorID:        req.DoctorID,
		Date:            req.AppointmentDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		AppointmentType: models.AppointmentType(req.AppointmentType),
		Reason:          req.Reason,
		Patient:         req.PatientInfo,
	})
	if err != nil {
		respondLinkError(c, err)
		return
	}

	utils.Success(c, "Cita programada exitosamente", gin.H{
		"appointment": gin.H{
			"id":              appointment.ID,
			"appointmentDate": appointment.AppointmentDate,
			"startTime":       appointment.StartTime,
			"endTime":         appointment.EndTime,
			"doctor": gin.H{
				"firstName": appointment.Doctor.FirstName,
				"lastName":  appointment.Doctor.LastName,
			},
			"patient": gin.H{
				"firstName": appointment.Patient.FirstName,
				"lastName":  appointment.Patient.LastName,
			},
		},
	})
}
