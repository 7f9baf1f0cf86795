package models

import (
	"time"
)

// Gender enum for patient records.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient represents a clinic patient. Patients are referenced by appointments
// and may be created on the fly during public or link-based scheduling.
type Patient struct {
	BaseModel
	FirstName                string    `gorm:"size:100;not null" json:"firstName"`
	LastName                 string    `gorm:"size:100;not null" json:"lastName"`
	DateOfBirth              time.Time `json:"dateOfBirth"`
	Gender                   Gender    `gorm:"size:10;default:'other'" json:"gender"`
	Email                    string    `gorm:"size:255;index" json:"email,omitempty"`
	Phone                    string    `gorm:"size:30;index" json:"phone"`
	Address                  string    `gorm:"type:text" json:"address,omitempty"`
	City                     string    `gorm:"size:100" json:"city,omitempty"`
	State                    string    `gorm:"size:100" json:"state,omitempty"`
	ZipCode                  string    `gorm:"size:20" json:"zipCode,omitempty"`
	EmergencyContactName     string    `gorm:"size:100" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone    string    `gorm:"size:30" json:"emergencyContactPhone,omitempty"`
	EmergencyContactRelation string    `gorm:"size:50" json:"emergencyContactRelation,omitempty"`
	MedicalHistory           string    `gorm:"type:text" json:"medicalHistory,omitempty"`
	Allergies                string    `gorm:"type:text" json:"allergies,omitempty"`
	InsuranceProvider        string    `gorm:"size:100" json:"insuranceProvider,omitempty"`
	InsurancePolicyNumber    string    `gorm:"size:100" json:"insurancePolicyNumber,omitempty"`
	InsuranceGroupNumber     string    `gorm:"size:100" json:"insuranceGroupNumber,omitempty"`
	IsActive                 bool      `gorm:"default:true" json:"isActive"`

	// Relations
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
