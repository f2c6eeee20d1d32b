// Package notification delivers clinic emails (appointment confirmations and
// related patient messages) with template rendering. Delivery is best effort:
// callers fire and forget, and failures are logged rather than surfaced.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template. Placeholders use the
// {{key}} form.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "appointment-confirmation",
			Name:    "Appointment Confirmation",
			Subject: "Appointment Confirmation - {{clinic_name}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your appointment with {{doctor_name}} ({{speciality}}) is confirmed for {{date}} at {{time}}.\n" +
				"Consultation fee: {{fee}}.\n\n" +
				"Regards,\n{{clinic_name}}\n{{clinic_website}}",
		},
		{
			ID:      "booking-confirmation",
			Name:    "Test Booking Confirmation",
			Subject: "Test Booking Confirmation - {{clinic_name}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your {{test_name}} booking is confirmed for {{date}} ({{time_slot}} slot).\n" +
				"Amount: {{price}}. Payment mode: {{payment_mode}}.\n\n" +
				"Regards,\n{{clinic_name}}\n{{clinic_website}}",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// SMTPConfig holds connection settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers email over plain SMTP with AUTH.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ClinicInfo is injected into every rendered template.
type ClinicInfo struct {
	Name    string
	Website string
}

// Notifier renders and sends clinic notifications. Send failures are logged
// and swallowed so booking flows never fail on email problems.
type Notifier struct {
	sender    EmailSender
	templates *TemplateEngine
	clinic    ClinicInfo
	logger    zerolog.Logger
}

func NewNotifier(sender EmailSender, tpl *TemplateEngine, clinic ClinicInfo, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: tpl,
		clinic:    clinic,
		logger:    logger,
	}
}

// AppointmentBooked sends the appointment confirmation email.
func (n *Notifier) AppointmentBooked(ctx context.Context, to string, data map[string]string) {
	n.send(ctx, "appointment-confirmation", to, data)
}

// TestBooked sends the test booking confirmation email.
func (n *Notifier) TestBooked(ctx context.Context, to string, data map[string]string) {
	n.send(ctx, "booking-confirmation", to, data)
}

func (n *Notifier) send(ctx context.Context, templateID, to string, data map[string]string) {
	if to == "" {
		return
	}
	merged := map[string]string{
		"clinic_name":    n.clinic.Name,
		"clinic_website": n.clinic.Website,
	}
	for k, v := range data {
		merged[k] = v
	}

	subject, body, err := n.templates.Render(templateID, merged)
	if err != nil {
		n.logger.Error().Err(err).Str("template", templateID).Msg("render notification")
		return
	}
	if err := n.sender.SendEmail(ctx, to, subject, body); err != nil {
		n.logger.Error().Err(err).Str("template", templateID).Str("to", to).Msg("send notification")
		return
	}
	n.logger.Info().Str("template", templateID).Str("to", to).Msg("notification sent")
}
