package scheduler

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/scheduling"
)

// GeneratedLink is returned to staff after creating a scheduling link.
type GeneratedLink struct {
	Link      string     `json:"link"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
	MaxUses   int        `json:"maxUses"`
}

// GenerateLink creates a shareable scheduling link. A non-empty doctorID
// scopes the link to that doctor; maxUses and expiresInDays fall back to 1
// and 90 when not positive.
func (s *Scheduler) GenerateLink(ctx context.Context, doctorID string, maxUses, expiresInDays int, meta RequestMeta) (*GeneratedLink, error) {
	var scope *string
	if doctorID != "" {
		var doctor models.User
		if err := s.db.WithContext(ctx).Where("id = ? AND role = ?", doctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrDoctorNotFound
			}
			return nil, err
		}
		scope = &doctor.ID
	}

	if maxUses <= 0 {
		maxUses = 1
	}
	if expiresInDays <= 0 {
		expiresInDays = models.DefaultLinkExpiryDays
	}
	expires := time.Now().AddDate(0, 0, expiresInDays)

	link := models.AppointmentLink{
		DoctorID:  scope,
		IsActive:  true,
		ExpiresAt: &expires,
		MaxUses:   maxUses,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		return tx.Create(&models.AuditLog{
			UserID:     meta.ActorID,
			Action:     models.ActionLinkGenerated,
			EntityType: "AppointmentLink",
			EntityID:   link.ID,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &GeneratedLink{
		Link:      s.frontendURL + "/schedule-appointment/" + link.Token,
		Token:     link.Token,
		ExpiresAt: link.ExpiresAt,
		MaxUses:   link.MaxUses,
	}, nil
}

// ResolveLink loads a link by token and checks its validity in priority
// order: not found, inactive, expired, exhausted.
func (s *Scheduler) ResolveLink(ctx context.Context, token string) (*models.AppointmentLink, error) {
	var link models.AppointmentLink
	err := s.db.WithContext(ctx).Preload("Doctor").Where("token = ?", token).First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if !link.IsActive {
		return nil, ErrLinkInactive
	}
	if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
		return nil, ErrLinkExpired
	}
	if link.CurrentUses >= link.MaxUses {
		return nil, ErrLinkExhausted
	}
	return &link, nil
}

// LinkInfo is the public metadata for a valid link. Doctors is populated for
// unscoped links so the patient can pick one.
type LinkInfo struct {
	ID          string                 `json:"id"`
	DoctorID    *string                `json:"doctorId"`
	Doctor      *models.UserSanitized  `json:"doctor,omitempty"`
	Doctors     []models.UserSanitized `json:"doctors"`
	ExpiresAt   *time.Time             `json:"expiresAt"`
	MaxUses     int                    `json:"maxUses"`
	CurrentUses int                    `json:"currentUses"`
}

// LinkInfo resolves a token and assembles the public view of the link.
func (s *Scheduler) LinkInfo(ctx context.Context, token string) (*LinkInfo, error) {
	link, err := s.ResolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	info := &LinkInfo{
		ID:          link.ID,
		DoctorID:    link.DoctorID,
		Doctors:     []models.UserSanitized{},
		ExpiresAt:   link.ExpiresAt,
		MaxUses:     link.MaxUses,
		CurrentUses: link.CurrentUses,
	}
	if link.Doctor != nil {
		sanitized := link.Doctor.Sanitize()
		info.Doctor = &sanitized
	}

	if link.DoctorID == nil {
		var doctors []models.User
		err := s.db.WithContext(ctx).
			Where("role = ? AND is_active = ?", models.RoleDoctor, true).
			Find(&doctors).Error
		if err != nil {
			return nil, err
		}
		for _, d := range doctors {
			info.Doctors = append(info.Doctors, d.Sanitize())
		}
	}
	return info, nil
}

// LinkSlots revalidates the link, then returns the doctor's available slots
// for the date.
func (s *Scheduler) LinkSlots(ctx context.Context, token, doctorID, date string) ([]Slot, error) {
	if _, err := s.ResolveLink(ctx, token); err != nil {
		return nil, err
	}
	return s.AvailableSlots(ctx, doctorID, date)
}

// LinkScheduleRequest is a patient's booking through a scheduling link.
type LinkScheduleRequest struct {
	DoctorID        string
	Date            string
	StartTime       string
	EndTime         string
	AppointmentType models.AppointmentType
	Reason          string
	Patient         PatientInfo
}

// ScheduleViaLink books an appointment through a link. The link is
// revalidated, the doctor scope enforced, the patient found or created, and
// the conflict check, insert and use-counter increment all commit in one
// transaction under the slot lock, so a link can never exceed its use limit.
func (s *Scheduler) ScheduleViaLink(ctx context.Context, token string, req LinkScheduleRequest) (*models.Appointment, error) {
	link, err := s.ResolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	var doctor models.User
	err = s.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", req.DoctorID, models.RoleDoctor, true).
		First(&doctor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if link.DoctorID != nil && *link.DoctorID != req.DoctorID {
		return nil, ErrLinkDoctorMismatch
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	interval, err := scheduling.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	patient, err := s.findOrCreatePatient(ctx, req.Patient)
	if err != nil {
		return nil, err
	}

	apptType := req.AppointmentType
	if !models.ValidAppointmentType(apptType) {
		apptType = models.TypeConsultation
	}
	reason := req.Reason
	if reason == "" {
		reason = "Cita programada por el paciente"
	}

	appointment := models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentType: apptType,
		AppointmentDate: date,
		StartTime:       interval.Start.String(),
		EndTime:         interval.End.String(),
		Status:          models.StatusScheduled,
		Reason:          reason,
	}

	unlock := s.locks.Lock(slotKey(doctor.ID, date))
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.createWithConflictCheck(tx, &appointment, interval, ""); err != nil {
			return err
		}

		// Guarded increment: zero rows affected means a concurrent booking
		// already consumed the last use, and the whole transaction rolls back.
		res := tx.Model(&models.AppointmentLink{}).
			Where("id = ? AND current_uses < max_uses", link.ID).
			UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLinkExhausted
		}

		return s.audit(tx, RequestMeta{}, models.ActionAppointmentCreated, appointment.ID, map[string]any{
			"via":   "appointment_link",
			"link":  link.ID,
			"start": appointment.StartTime,
			"end":   appointment.EndTime,
		})
	})
	if err != nil {
		return nil, err
	}

	go s.fanOutScheduled(appointment, *patient, doctor)

	appointment.Patient = *patient
	appointment.Doctor = doctor
	return &appointment, nil
}
