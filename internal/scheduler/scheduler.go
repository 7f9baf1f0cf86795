// Package scheduler is the only authorized path for creating and mutating
// appointments. It combines the pure interval/slot arithmetic from
// internal/scheduling with the persistence layer, and closes the classic
// read-check-then-write race by holding a per-(doctor, date) lock around a
// single transaction.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/notify"
	"eyeclinic-server/internal/scheduling"
)

// Scheduler orchestrates appointment creation, conflict detection and
// availability queries. All mutation of appointments and scheduling links goes
// through it.
type Scheduler struct {
	db          *gorm.DB
	notifier    notify.Notifier
	logger      zerolog.Logger
	slots       scheduling.SlotConfig
	frontendURL string
	locks       keyedMutex
}

// New creates a Scheduler.
func New(db *gorm.DB, notifier notify.Notifier, logger zerolog.Logger, slots scheduling.SlotConfig, frontendURL string) *Scheduler {
	return &Scheduler{
		db:          db,
		notifier:    notifier,
		logger:      logger,
		slots:       slots,
		frontendURL: frontendURL,
	}
}

// RequestMeta identifies the actor and request context for audit records.
type RequestMeta struct {
	ActorID   string
	IPAddress string
	UserAgent string
}

// ScheduleRequest is the staff-facing appointment creation request. Patient
// and doctor must already exist.
type ScheduleRequest struct {
	PatientID       string
	DoctorID        string
	AppointmentType models.AppointmentType
	Date            string // YYYY-MM-DD
	StartTime       string // HH:MM or HH:MM:SS
	EndTime         string
	Reason          string
	Notes           string
}

// Schedule validates the request, checks the slot for conflicts and persists
// the appointment, all under the (doctor, date) lock inside one transaction.
// Staff notification and confirmation email fire after commit and never fail
// the operation.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest, meta RequestMeta) (*models.Appointment, error) {
	if req.PatientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	if req.DoctorID == "" {
		return nil, fmt.Errorf("%w: doctorId is required", ErrValidation)
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	interval, err := scheduling.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Intake forms are lenient about the visit type.
	apptType := req.AppointmentType
	if !models.ValidAppointmentType(apptType) {
		apptType = models.TypeConsultation
	}

	var doctor models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND role = ?", req.DoctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	appointment := models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentType: apptType,
		AppointmentDate: date,
		StartTime:       interval.Start.String(),
		EndTime:         interval.End.String(),
		Status:          models.StatusScheduled,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	unlock := s.locks.Lock(slotKey(doctor.ID, date))
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.createWithConflictCheck(tx, &appointment, interval, ""); err != nil {
			return err
		}
		return s.audit(tx, meta, models.ActionAppointmentCreated, appointment.ID, req)
	})
	if err != nil {
		return nil, err
	}

	go s.fanOutScheduled(appointment, patient, doctor)

	return &appointment, nil
}

// Slot is an available booking interval, with a human-readable display time.
type Slot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	DisplayTime string `json:"displayTime"`
}

// AvailableSlots returns the clinic's slot grid for a date with every slot
// that conflicts with a non-cancelled appointment of the doctor filtered out.
func (s *Scheduler) AvailableSlots(ctx context.Context, doctorID, date string) ([]Slot, error) {
	if doctorID == "" || date == "" {
		return nil, fmt.Errorf("%w: doctorId and date are required", ErrValidation)
	}
	normalized, err := normalizeDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	busy, err := s.busyIntervals(s.db.WithContext(ctx), doctorID, normalized, "")
	if err != nil {
		return nil, err
	}

	available := []Slot{}
	for _, candidate := range s.slots.Slots() {
		if _, conflict := scheduling.FirstConflict(busy, candidate); conflict {
			continue
		}
		available = append(available, Slot{
			StartTime:   candidate.Start.String(),
			EndTime:     candidate.End.String(),
			DisplayTime: candidate.Start.Display(),
		})
	}
	return available, nil
}

// UpdateRequest carries optional field edits for an appointment. Nil fields
// are left unchanged.
type UpdateRequest struct {
	DoctorID        *string
	AppointmentType *models.AppointmentType
	Date            *string
	StartTime       *string
	EndTime         *string
	Reason          *string
	Notes           *string
}

// Update edits appointment fields. When the doctor, date or times change the
// new interval is conflict-checked against everything but the appointment
// itself.
func (s *Scheduler) Update(ctx context.Context, id string, req UpdateRequest, meta RequestMeta) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.db.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	rescheduled := false
	if req.DoctorID != nil && *req.DoctorID != appointment.DoctorID {
		var doctor models.User
		if err := s.db.WithContext(ctx).Where("id = ? AND role = ?", *req.DoctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrDoctorNotFound
			}
			return nil, err
		}
		appointment.DoctorID = *req.DoctorID
		rescheduled = true
	}
	if req.Date != nil {
		date, err := normalizeDate(*req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if date != appointment.AppointmentDate {
			appointment.AppointmentDate = date
			rescheduled = true
		}
	}
	if req.StartTime != nil {
		clock, err := scheduling.ParseClock(*req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		appointment.StartTime = clock.String()
		rescheduled = true
	}
	if req.EndTime != nil {
		clock, err := scheduling.ParseClock(*req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		appointment.EndTime = clock.String()
		rescheduled = true
	}
	if req.AppointmentType != nil {
		if !models.ValidAppointmentType(*req.AppointmentType) {
			return nil, fmt.Errorf("%w: unknown appointment type %q", ErrValidation, *req.AppointmentType)
		}
		appointment.AppointmentType = *req.AppointmentType
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	interval, err := scheduling.ParseInterval(appointment.StartTime, appointment.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	unlock := s.locks.Lock(slotKey(appointment.DoctorID, appointment.AppointmentDate))
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rescheduled {
			busy, err := s.busyIntervals(tx, appointment.DoctorID, appointment.AppointmentDate, appointment.ID)
			if err != nil {
				return err
			}
			if _, conflict := scheduling.FirstConflict(busy, interval); conflict {
				return ErrSlotConflict
			}
		}
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		return s.audit(tx, meta, models.ActionAppointmentUpdated, appointment.ID, req)
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// UpdateStatus applies a status transition (confirm, start, complete, no-show).
func (s *Scheduler) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, notes string, meta RequestMeta) (*models.Appointment, error) {
	switch status {
	case models.StatusScheduled, models.StatusConfirmed, models.StatusInProgress,
		models.StatusCompleted, models.StatusCancelled, models.StatusNoShow:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var appointment models.Appointment
	if err := s.db.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	appointment.Status = status
	if notes != "" {
		appointment.Notes = notes
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		return s.audit(tx, meta, models.ActionAppointmentUpdated, appointment.ID, map[string]any{"status": status})
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Cancel transitions the appointment to cancelled. Appointments are never
// deleted; cancelling frees the slot for new bookings. The patient is emailed
// best-effort.
func (s *Scheduler) Cancel(ctx context.Context, id string, meta RequestMeta) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.db.WithContext(ctx).Preload("Patient").First(&appointment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	appointment.Status = models.StatusCancelled
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		return s.audit(tx, meta, models.ActionAppointmentCancelled, appointment.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	if appointment.Patient.Email != "" {
		appt := appointment
		go func() {
			data := notify.AppointmentEmail{
				PatientName: appt.Patient.FullName(),
				Date:        appt.AppointmentDate,
				Time:        appt.StartTime,
			}
			if err := s.notifier.SendAppointmentCancelled(appt.Patient.Email, data); err != nil {
				s.logger.Error().Err(err).Str("appointment", appt.ID).Msg("cancellation email failed")
			}
		}()
	}

	return &appointment, nil
}

// Get fetches one appointment with its patient and doctor.
func (s *Scheduler) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.db.WithContext(ctx).Preload("Patient").Preload("Doctor").First(&appointment, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// ListFilter narrows the appointment listing.
type ListFilter struct {
	Date      string
	DoctorID  string
	PatientID string
	Status    models.AppointmentStatus
	Page      int
	Limit     int
}

// List returns a page of appointments matching the filter plus the total count.
func (s *Scheduler) List(ctx context.Context, filter ListFilter) ([]models.Appointment, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Appointment{})
	if filter.Date != "" {
		date, err := normalizeDate(filter.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		query = query.Where("appointment_date = ?", date)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []models.Appointment
	err := query.Preload("Patient").Preload("Doctor").
		Order("appointment_date ASC, start_time ASC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

// DoctorSchedule returns a doctor's appointments, optionally bounded to a
// date range, ordered chronologically.
func (s *Scheduler) DoctorSchedule(ctx context.Context, doctorID, startDate, endDate string) ([]models.Appointment, error) {
	query := s.db.WithContext(ctx).Where("doctor_id = ?", doctorID)
	if startDate != "" && endDate != "" {
		from, err := normalizeDate(startDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		to, err := normalizeDate(endDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		query = query.Where("appointment_date BETWEEN ? AND ?", from, to)
	}

	var appointments []models.Appointment
	err := query.Preload("Patient").
		Order("appointment_date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// createWithConflictCheck re-reads the doctor's day inside the transaction,
// rejects on overlap and inserts the appointment. excludeID skips one
// appointment (used when rescheduling).
func (s *Scheduler) createWithConflictCheck(tx *gorm.DB, appointment *models.Appointment, interval scheduling.Interval, excludeID string) error {
	busy, err := s.busyIntervals(tx, appointment.DoctorID, appointment.AppointmentDate, excludeID)
	if err != nil {
		return err
	}
	if _, conflict := scheduling.FirstConflict(busy, interval); conflict {
		return ErrSlotConflict
	}
	return tx.Create(appointment).Error
}

// busyIntervals loads the intervals of every appointment for (doctor, date)
// whose status still occupies its slot.
func (s *Scheduler) busyIntervals(tx *gorm.DB, doctorID, date, excludeID string) ([]scheduling.Interval, error) {
	query := tx.Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status NOT IN ?", doctorID, date, models.ExcludedStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []models.Appointment
	if err := query.Select("start_time", "end_time").Find(&rows).Error; err != nil {
		return nil, err
	}

	busy := make([]scheduling.Interval, 0, len(rows))
	for _, row := range rows {
		iv, err := scheduling.ParseInterval(row.StartTime, row.EndTime)
		if err != nil {
			return nil, fmt.Errorf("stored appointment %s has malformed times: %w", row.ID, err)
		}
		busy = append(busy, iv)
	}
	return busy, nil
}

// audit writes an AuditLog row inside the caller's transaction so the audit
// trail commits or rolls back with the change itself.
func (s *Scheduler) audit(tx *gorm.DB, meta RequestMeta, action, entityID string, changes any) error {
	var payload datatypes.JSON
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(b)
	}
	return tx.Create(&models.AuditLog{
		UserID:     meta.ActorID,
		Action:     action,
		EntityType: "Appointment",
		EntityID:   entityID,
		Changes:    payload,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}).Error
}

// fanOutScheduled runs post-commit: a staff notification row for the doctor
// and a confirmation email when the patient has one. Failures are logged and
// never surfaced.
func (s *Scheduler) fanOutScheduled(appointment models.Appointment, patient models.Patient, doctor models.User) {
	notification := models.Notification{
		UserID:  doctor.ID,
		Type:    models.NotificationAppointmentReminder,
		Title:   "New Appointment Scheduled",
		Message: fmt.Sprintf("New appointment with %s on %s at %s", patient.FullName(), appointment.AppointmentDate, appointment.StartTime),
		Link:    "/appointments/" + appointment.ID,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		s.logger.Error().Err(err).Str("appointment", appointment.ID).Msg("staff notification failed")
	}

	if patient.Email != "" {
		data := notify.AppointmentEmail{
			PatientName: patient.FullName(),
			DoctorName:  doctor.FirstName + " " + doctor.LastName,
			Date:        appointment.AppointmentDate,
			Time:        appointment.StartTime,
		}
		if err := s.notifier.SendAppointmentScheduled(patient.Email, data); err != nil {
			s.logger.Error().Err(err).Str("appointment", appointment.ID).Msg("confirmation email failed")
		}
	} else if patient.Phone != "" {
		msg := fmt.Sprintf("Su cita con Dr. %s %s ha sido programada para el %s a las %s.",
			doctor.FirstName, doctor.LastName, appointment.AppointmentDate, appointment.StartTime)
		if err := s.notifier.SendSMS(patient.Phone, msg); err != nil {
			s.logger.Error().Err(err).Str("appointment", appointment.ID).Msg("confirmation SMS failed")
		}
	}
}

func slotKey(doctorID, date string) string {
	return doctorID + "|" + date
}

// normalizeDate accepts YYYY-MM-DD, optionally with a trailing time part, and
// returns the canonical YYYY-MM-DD form.
func normalizeDate(s string) (string, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return t.Format("2006-01-02"), nil
}
