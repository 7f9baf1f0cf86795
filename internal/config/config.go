package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	JWTSecret            string
	JWTExpirationMinutes int
	Database             DatabaseConfig
	Mailer               MailerConfig
	Twilio               TwilioConfig
	Clinic               ClinicConfig
	Admin                AdminConfig
	FrontendURL          string
	AppURL               string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds SMTP email service configuration
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// TwilioConfig holds SMS delivery configuration. SMS is disabled when AccountSID is empty.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// ClinicConfig holds the clinic operating window and the slot grid size.
type ClinicConfig struct {
	OpeningHour int
	ClosingHour int
	SlotMinutes int
}

// AdminConfig holds the credentials for the idempotent admin bootstrap at startup.
type AdminConfig struct {
	Email    string
	Password string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "eyeclinic"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	mailPort, err := strconv.Atoi(getEnv("EMAIL_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_PORT: %w", err)
	}
	mailerConfig := MailerConfig{
		Host:     getEnv("EMAIL_HOST", ""),
		Port:     mailPort,
		Username: getEnv("EMAIL_USER", ""),
		Password: getEnv("EMAIL_PASS", ""),
		From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
	}

	twilioConfig := TwilioConfig{
		AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
	}

	openingHour, err := strconv.Atoi(getEnv("CLINIC_OPENING_HOUR", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_OPENING_HOUR: %w", err)
	}
	closingHour, err := strconv.Atoi(getEnv("CLINIC_CLOSING_HOUR", "17"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_CLOSING_HOUR: %w", err)
	}
	slotMinutes, err := strconv.Atoi(getEnv("CLINIC_SLOT_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_SLOT_MINUTES: %w", err)
	}
	if openingHour < 0 || closingHour > 24 || openingHour >= closingHour {
		return nil, fmt.Errorf("invalid clinic hours: opening %d, closing %d", openingHour, closingHour)
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("invalid CLINIC_SLOT_MINUTES: %d", slotMinutes)
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "480"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                 getEnv("PORT", "3001"),
		Origin:               getEnv("ORIGIN", "http://localhost:4200"),
		Environment:          getEnv("APP_ENV", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTExpirationMinutes: jwtExpMinutes,
		Database:             dbConfig,
		Mailer:               mailerConfig,
		Twilio:               twilioConfig,
		Clinic: ClinicConfig{
			OpeningHour: openingHour,
			ClosingHour: closingHour,
			SlotMinutes: slotMinutes,
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@eyeclinic.local"),
			Password: getEnv("ADMIN_PASSWORD", "changeme123"),
		},
		FrontendURL: getEnv("FRONTEND_URL", "https://eyeclinic.aledsystems.com"),
		AppURL:      getEnv("APP_URL", "http://localhost:3001"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
