// Package notify delivers best-effort email and SMS notifications. Delivery
// failures are logged by callers and never fail the operation that triggered
// them.
package notify

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"

	"eyeclinic-server/internal/config"
)

// AppointmentEmail carries the fields rendered into appointment emails.
type AppointmentEmail struct {
	PatientName string
	DoctorName  string
	Date        string
	Time        string
}

// Notifier sends transactional messages to patients.
type Notifier interface {
	SendAppointmentScheduled(to string, data AppointmentEmail) error
	SendAppointmentCancelled(to string, data AppointmentEmail) error
	SendSMS(to, message string) error
}

// Service is the SMTP + Twilio backed Notifier.
type Service struct {
	mailer *config.MailerConfig
	twilio *twilio.RestClient
	from   string
	logger zerolog.Logger
}

// NewService builds a Notifier from configuration. SMS is disabled when no
// Twilio account SID is configured; email when no SMTP host is configured.
func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	s := &Service{logger: logger}
	if cfg.Mailer.Host != "" {
		mailer := cfg.Mailer
		s.mailer = &mailer
	}
	if cfg.Twilio.AccountSID != "" {
		s.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.Twilio.AccountSID,
			Password: cfg.Twilio.AuthToken,
		})
		s.from = cfg.Twilio.FromNumber
	}
	return s
}

// SendAppointmentScheduled emails the patient their booking confirmation.
func (s *Service) SendAppointmentScheduled(to string, data AppointmentEmail) error {
	html := fmt.Sprintf(`<h2>Appointment Scheduled</h2>
<p>Dear %s,</p>
<p>Your appointment has been scheduled with Dr. %s on %s at %s.</p>
<p>Please arrive 15 minutes early for your appointment.</p>
<p>Thank you,<br>Eye Clinic Management System</p>`,
		data.PatientName, data.DoctorName, data.Date, data.Time)
	return s.sendMail(to, "Appointment Scheduled", html)
}

// SendAppointmentCancelled emails the patient a cancellation notice.
func (s *Service) SendAppointmentCancelled(to string, data AppointmentEmail) error {
	html := fmt.Sprintf(`<h2>Appointment Cancelled</h2>
<p>Dear %s,</p>
<p>Your appointment scheduled for %s at %s has been cancelled.</p>
<p>Please contact us to reschedule if needed.</p>
<p>Thank you,<br>Eye Clinic Management System</p>`,
		data.PatientName, data.Date, data.Time)
	return s.sendMail(to, "Appointment Cancelled", html)
}

func (s *Service) sendMail(to, subject, html string) error {
	if s.mailer == nil {
		s.logger.Debug().Str("to", to).Str("subject", subject).Msg("mailer not configured, email not sent")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.mailer.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.mailer.Host, s.mailer.Port, s.mailer.Username, s.mailer.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// SendSMS sends a text message through Twilio.
func (s *Service) SendSMS(to, message string) error {
	if s.twilio == nil {
		s.logger.Debug().Str("to", to).Msg("twilio not configured, SMS not sent")
		return nil
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(message)
	if _, err := s.twilio.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send SMS to %s: %w", to, err)
	}
	return nil
}

// Noop is a Notifier that does nothing; used in tests.
type Noop struct{}

func (Noop) SendAppointmentScheduled(string, AppointmentEmail) error { return nil }
func (Noop) SendAppointmentCancelled(string, AppointmentEmail) error { return nil }
func (Noop) SendSMS(string, string) error                            { return nil }

// Failing is a Notifier whose sends always fail; used in tests to prove that
// notification failures never fail the scheduling operation.
type Failing struct{}

var errSendFailed = errors.New("send failed")

func (Failing) SendAppointmentScheduled(string, AppointmentEmail) error { return errSendFailed }
func (Failing) SendAppointmentCancelled(string, AppointmentEmail) error { return errSendFailed }
func (Failing) SendSMS(string, string) error                            { return errSendFailed }
