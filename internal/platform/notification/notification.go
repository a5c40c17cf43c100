// Package notification delivers account lifecycle emails with template
// rendering and a log-backed transport for environments without SMTP.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Mailer is the interface for sending email messages.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
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
			ID:      "staff-registration-pending",
			Subject: "New staff registration awaiting approval",
			Body:    "{{name}} has registered as {{role}} ({{email}}) and is awaiting approval.",
		},
		{
			ID:      "account-approved",
			Subject: "Your account has been approved",
			Body:    "Dear {{name}}, your {{role}} account has been approved. You can now log in.",
		},
		{
			ID:      "account-rejected",
			Subject: "Your account registration was declined",
			Body:    "Dear {{name}}, your registration could not be approved. Please contact the administrator.",
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

// ---------------------------------------------------------------------------
// Transports
// ---------------------------------------------------------------------------

// LogMailer writes outbound mail to the structured log instead of delivering
// it. Used in development and test deployments without an SMTP relay.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendEmail logs the message and always succeeds.
func (m *LogMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("outbound email")
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockMailer is a test double for Mailer.
type MockMailer struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockMailer) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

// Notifier sends account lifecycle emails. Callers decide whether a delivery
// failure is fatal; registration flows typically log and continue.
type Notifier struct {
	mailer    Mailer
	templates *TemplateEngine
}

// NewNotifier constructs a Notifier.
func NewNotifier(mailer Mailer, templates *TemplateEngine) *Notifier {
	return &Notifier{mailer: mailer, templates: templates}
}

func (n *Notifier) send(ctx context.Context, templateID, to string, data map[string]string) error {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	if err := n.mailer.SendEmail(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// StaffRegistrationPending alerts an administrator that a new staff account is
// waiting for approval.
func (n *Notifier) StaffRegistrationPending(ctx context.Context, adminEmail, name, role, email string) error {
	return n.send(ctx, "staff-registration-pending", adminEmail, map[string]string{
		"name":  name,
		"role":  role,
		"email": email,
	})
}

// AccountApproved tells a staff member their account is active.
func (n *Notifier) AccountApproved(ctx context.Context, to, name, role string) error {
	return n.send(ctx, "account-approved", to, map[string]string{
		"name": name,
		"role": role,
	})
}

// AccountRejected tells a staff member their registration was declined.
func (n *Notifier) AccountRejected(ctx context.Context, to, name string) error {
	return n.send(ctx, "account-rejected", to, map[string]string{
		"name": name,
	})
}
