package scheduler

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/scheduling"
)

// serviceTypes maps the website's service names onto visit types. Unmapped
// names fall back to consultation.
var serviceTypes = map[string]models.AppointmentType{
	"Consulta Oftalmológica":     models.TypeConsultation,
	"Examen de la Vista":         models.TypeEyeExam,
	"Procedimientos Quirúrgicos": models.TypeSurgery,
	"Control y Seguimiento":      models.TypeFollowUp,
	"Atención de Emergencia":     models.TypeEmergency,
	"Cirugía de Cataratas":       models.TypeSurgery,
	"Terapia Visual":             models.TypeFollowUp,
}

// ServiceTypeFromName resolves a website service name to a visit type.
func ServiceTypeFromName(name string) models.AppointmentType {
	if t, ok := serviceTypes[name]; ok {
		return t
	}
	return models.TypeConsultation
}

// PublicRequest is the unauthenticated website intake form.
type PublicRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Date      string
	StartTime string
	Service   string
	Message   string
}

// PublicConfirmation is the payload returned to the website after a booking.
type PublicConfirmation struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	PatientName string `json:"patientName"`
}

// SchedulePublic books an appointment from the public website: the patient is
// found by email or phone (created with placeholder demographics if absent),
// the doctor defaults to the first active one, and the visit runs one slot
// length from the requested start.
func (s *Scheduler) SchedulePublic(ctx context.Context, req PublicRequest) (*PublicConfirmation, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", ErrValidation)
	}
	if req.Email == "" && req.Phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", ErrValidation)
	}
	if req.Date == "" || req.StartTime == "" {
		return nil, fmt.Errorf("%w: appointmentDate and startTime are required", ErrValidation)
	}

	start, err := scheduling.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end := start + scheduling.Clock(s.slots.SlotMinutes*60)

	var doctor models.User
	err = s.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleDoctor, true).
		Order("created_at ASC").
		First(&doctor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoActiveDoctor
		}
		return nil, err
	}

	patient, err := s.findOrCreatePatient(ctx, PatientInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return nil, err
	}

	reason := req.Message
	if reason == "" {
		reason = "Cita solicitada desde el sitio web"
	}

	appointment, err := s.Schedule(ctx, ScheduleRequest{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentType: ServiceTypeFromName(req.Service),
		Date:            req.Date,
		StartTime:       start.String(),
		EndTime:         end.String(),
		Reason:          reason,
	}, RequestMeta{})
	if err != nil {
		return nil, err
	}

	return &PublicConfirmation{
		ID:          appointment.ID,
		Date:        appointment.AppointmentDate,
		Time:        appointment.StartTime,
		PatientName: patient.FullName(),
	}, nil
}

// PatientInfo is the minimal patient intake captured by public and link flows.
type PatientInfo struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// findOrCreatePatient looks the patient up by email, then by phone, and
// creates a record with deterministic placeholders when neither matches.
func (s *Scheduler) findOrCreatePatient(ctx context.Context, info PatientInfo) (*models.Patient, error) {
	db := s.db.WithContext(ctx)

	var patient models.Patient
	if info.Email != "" {
		if err := db.Where("email = ?", info.Email).First(&patient).Error; err == nil {
			return &patient, nil
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	if info.Phone != "" {
		if err := db.Where("phone = ?", info.Phone).First(&patient).Error; err == nil {
			return &patient, nil
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	if info.FirstName == "" || info.LastName == "" {
		return nil, fmt.Errorf("%w: patient information is required", ErrValidation)
	}

	dob := time.Now()
	if info.DateOfBirth != "" {
		if parsed, err := time.Parse("2006-01-02", info.DateOfBirth); err == nil {
			dob = parsed
		}
	}
	gender := models.Gender(info.Gender)
	switch gender {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
	default:
		gender = models.GenderOther
	}

	patient = models.Patient{
		FirstName:   info.FirstName,
		LastName:    info.LastName,
		DateOfBirth: dob,
		Gender:      gender,
		Email:       info.Email,
		Phone:       info.Phone,
		Address:     info.Address,
		City:        info.City,
		State:       info.State,
		ZipCode:     info.ZipCode,
		IsActive:    true,
	}
	if err := db.Create(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}
