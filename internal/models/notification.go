package models

// NotificationType categorises in-app staff notifications.
type NotificationType string

const (
	NotificationAppointmentReminder NotificationType = "appointment_reminder"
)

// Notification is an in-app notification row for a staff user.
type Notification struct {
	BaseModel
	UserID  string           `gorm:"size:36;index" json:"userId"`
	Type    NotificationType `gorm:"size:40" json:"type"`
	Title   string           `gorm:"size:255" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	Link    string           `gorm:"size:255" json:"link,omitempty"`
	IsRead  bool             `gorm:"default:false" json:"isRead"`
}
