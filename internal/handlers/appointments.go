package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"eyeclinic-server/internal/middleware"
	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/scheduler"
	"eyeclinic-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Scheduler *scheduler.Scheduler
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(s *scheduler.Scheduler) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: s}
}

// requestMeta builds the audit metadata from the authenticated request.
func requestMeta(c *gin.Context) scheduler.RequestMeta {
	actorID, _ := middleware.GetUserIDFromContext(c)
	return scheduler.RequestMeta{
		ActorID:   actorID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// respondSchedulerError maps scheduler errors onto the HTTP envelope.
func respondSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrSlotConflict):
		utils.BadRequest(c, "Time slot is already booked")
	case errors.Is(err, scheduler.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, scheduler.ErrDoctorNotFound),
		errors.Is(err, scheduler.ErrPatientNotFound),
		errors.Is(err, scheduler.ErrAppointmentNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, scheduler.ErrNoActiveDoctor):
		utils.BadRequest(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	PatientID       string `json:"patientId" binding:"required,uuid"`
	DoctorID        string `json:"doctorId" binding:"required,uuid"`
	AppointmentType string `json:"appointmentType"`
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	StartTime       string `json:"startTime" binding:"required"`
	EndTime         string `json:"endTime" binding:"required"`
	Reason          string `json:"reason"`
	Notes           string `json:"notes"`
}

// CreateAppointment handles staff-initiated appointment creation.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.Schedule(c.Request.Context(), scheduler.ScheduleRequest{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentType: models.AppointmentType(req.AppointmentType),
		Date:            req.AppointmentDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}, requestMeta(c))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// PublicAppointmentRequest is the unauthenticated website intake form.
type PublicAppointmentRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	StartTime       string `json:"startTime" binding:"required"`
	Service         string `json:"service"`
	Message         string `json:"message"`
}

// CreatePublicAppointment handles bookings submitted from the public website.
func (h *AppointmentHandler) CreatePublicAppointment(c *gin.Context) {
	var req PublicAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	confirmation, err := h.Scheduler.SchedulePublic(c.Request.Context(), scheduler.PublicRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Date:      req.AppointmentDate,
		StartTime: req.StartTime,
		Service:   req.Service,
		Message:   req.Message,
	})
	if err != nil {
		respondSchedulerError(c, err)
		return
	}

	utils.Created(c, "Cita solicitada exitosamente. Nos pondremos en contacto para confirmar.", confirmation)
}

// GetAppointments handles the filtered, paginated appointment listing.
// Doctors only see their own schedule.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	filter := scheduler.ListFilter{
		Date:      c.Query("date"),
		DoctorID:  c.Query("doctorId"),
		PatientID: c.Query("patientId"),
		Status:    models.AppointmentStatus(c.Query("status")),
	}
	filter.Page = utils.QueryInt(c, "page", 1)
	filter.Limit = utils.QueryInt(c, "limit", 50)

	if role, _ := middleware.GetUserRoleFromContext(c); role == models.RoleDoctor {
		userID, _ := middleware.GetUserIDFromContext(c)
		filter.DoctorID = userID
	}

	appointments, total, err := h.Scheduler.List(c.Request.Context(), filter)
	if err != nil {
		respondSchedulerError(c, err)
		return
	}

	pages := total / int64(filter.Limit)
	if total%int64(filter.Limit) != 0 {
		pages++
	}
	utils.Success(c, "Appointments fetched successfully", gin.H{
		"appointments": appointments,
		"pagination": gin.H{
			"total": total,
			"page":  filter.Page,
			"limit": filter.Limit,
			"pages": pages,
		},
	})
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.Scheduler.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentRequest represents the request body for editing an appointment.
type UpdateAppointmentRequest struct {
	DoctorID        *string `json:"doctorId"`
	AppointmentType *string `json:"appointmentType"`
	AppointmentDate *string `json:"appointmentDate"`
	StartTime       *string `json:"startTime"`
	EndTime         *string `json:"endTime"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

// UpdateAppointment handles field edits, re-running the conflict check when
// the slot moves.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	update := scheduler.UpdateRequest{
		DoctorID:  req.DoctorID,
		Date:      req.AppointmentDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}
	if req.AppointmentType != nil {
		apptType := models.AppointmentType(*req.AppointmentType)
		update.AppointmentType = &apptType
	}

	appointment, err := h.Scheduler.Update(c.Request.Context(), c.Param("id"), update, requestMeta(c))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Appointment updated successfully", appointment)
}

// UpdateAppointmentStatusRequest represents a status transition request.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled confirmed in_progress completed cancelled no_show"`
	Notes  string `json:"notes"`
}

// UpdateAppointmentStatus handles confirm/start/complete/no-show transitions.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.UpdateStatus(c.Request.Context(), c.Param("id"),
		models.AppointmentStatus(req.Status), req.Notes, requestMeta(c))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Appointment status updated successfully", appointment)
}

// CancelAppointment transitions an appointment to cancelled.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	_, err := h.Scheduler.Cancel(c.Request.Context(), c.Param("id"), requestMeta(c))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", nil)
}

// GetAvailableSlots returns the free slot grid for a doctor and date.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	slots, err := h.Scheduler.AvailableSlots(c.Request.Context(), c.Query("doctorId"), c.Query("date"))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Available slots fetched successfully", gin.H{"availableSlots": slots})
}

// GetDoctorSchedule returns a doctor's appointments for an optional date range.
func (h *AppointmentHandler) GetDoctorSchedule(c *gin.Context) {
	schedule, err := h.Scheduler.DoctorSchedule(c.Request.Context(),
		c.Param("doctorId"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondSchedulerError(c, err)
		return
	}
	utils.Success(c, "Schedule fetched successfully", gin.H{"schedule": schedule})
}
