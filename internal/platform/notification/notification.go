// Package notification provides the outbound email notification system for
// lab events: QC failures and results-available messages. Delivery transport
// is abstracted behind EmailSender; this package owns templates, in-memory
// history, and a recording test double.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Template IDs for the built-in lab notification templates.
const (
	TemplateQCFailure        = "qc-failure"
	TemplateResultsSuccess   = "results-available-success"
	TemplateResultsFailure   = "results-available-failure"
	TemplateSampleRegistered = "sample-registered"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
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
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateQCFailure,
			Name:    "QC Failure",
			Subject: "QC failure on sample {{barcode}}",
			Body:    "Sample {{barcode}} failed quality control for {{workflow}}: {{reason}}. Review and resubmit or override.",
		},
		{
			ID:      TemplateResultsSuccess,
			Name:    "Results Available",
			Subject: "Results available for sample {{barcode}}",
			Body:    "All requested workflows for sample {{barcode}} have completed. Results are available for release.",
		},
		{
			ID:      TemplateResultsFailure,
			Name:    "Results Available (Failed)",
			Subject: "Sample {{barcode}} failed processing",
			Body:    "Sample {{barcode}} failed processing: {{reason}}. A repeat collection may be required.",
		},
		{
			ID:      TemplateSampleRegistered,
			Name:    "Sample Registered",
			Subject: "Sample {{barcode}} registered",
			Body:    "Sample {{barcode}} was registered with {{workflow_count}} requested workflow(s).",
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
// supplied data map. Keys present in the template but absent from data are
// left as-is.
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

// Manager orchestrates rendering, sending, and in-memory history of
// notifications.
type Manager struct {
	sender        EmailSender
	templates     *TemplateEngine
	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewManager constructs a Manager.
func NewManager(sender EmailSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		sender:        sender,
		templates:     tpl,
		notifications: make(map[string]*Notification),
	}
}

// Send dispatches a notification, assigns an ID and timestamps, and records
// the outcome in-memory.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	sendErr := m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get retrieves a notification by ID.
func (m *Manager) Get(id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// List returns all recorded notifications, newest first not guaranteed.
func (m *Manager) List() []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, n)
	}
	return out
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
