package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// AppointmentType represents the kind of visit.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeEyeExam      AppointmentType = "eye_exam"
	TypeSurgery      AppointmentType = "surgery"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeEmergency    AppointmentType = "emergency"
)

// ExcludedStatuses are the statuses that never count towards slot conflicts.
// Cancelled and no-show appointments free their slot.
var ExcludedStatuses = []AppointmentStatus{StatusCancelled, StatusNoShow}

// ValidAppointmentType reports whether t is one of the known visit types.
func ValidAppointmentType(t AppointmentType) bool {
	switch t {
	case TypeConsultation, TypeEyeExam, TypeSurgery, TypeFollowUp, TypeEmergency:
		return true
	}
	return false
}

// Appointment represents a scheduled clinic visit. AppointmentDate is stored as
// YYYY-MM-DD and the times as HH:MM:SS wall-clock strings, so lexical ordering
// matches chronological ordering within a day.
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index:idx_appt_doctor_date,priority:3" json:"patientId"`
	DoctorID        string            `gorm:"size:36;index:idx_appt_doctor_date,priority:1" json:"doctorId"`
	AppointmentType AppointmentType   `gorm:"size:20;default:'consultation'" json:"appointmentType"`
	AppointmentDate string            `gorm:"size:10;index:idx_appt_doctor_date,priority:2" json:"appointmentDate"`
	StartTime       string            `gorm:"size:8" json:"startTime"`
	EndTime         string            `gorm:"size:8" json:"endTime"`
	Status          AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Reason          string            `gorm:"type:text" json:"reason"`
	Notes           string            `gorm:"type:text" json:"notes"`
	ReminderSent    bool              `gorm:"default:false" json:"reminderSent"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  User    `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}
