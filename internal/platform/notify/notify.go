// Package notify provides the fire-and-forget event dispatcher used by
// the referral engine. Dispatch is keyed by event name, renders a
// template, and hands the result to an email sender; delivery is never
// awaited by the caller and failures are logged, not returned.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Events emitted by the referral engine.
const (
	EventReferralCreated   = "referral.created"
	EventReferralSubmitted = "referral.submitted"
	EventReferralWithdrawn = "referral.withdrawn"
	EventDeletionRequested = "deletion.requested"
	EventDeletionApproved  = "deletion.approved"
	EventDeletionRejected  = "deletion.rejected"
	EventScreenerCrisis    = "screener.crisis"
)

// Dispatcher delivers event notifications. Implementations never block
// the caller on delivery confirmation.
type Dispatcher interface {
	Dispatch(ctx context.Context, event string, data map[string]string)
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template keyed by event name.
type Template struct {
	Event   string
	Subject string
	Body    string
}

// TemplateEngine renders event templates with {{key}} substitution.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in referral
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			Event:   EventReferralCreated,
			Subject: "We received your referral for {{child_name}}",
			Body:    "Hi {{parent_name}}, your referral has been started. Finish the remaining onboarding steps whenever you are ready.",
		},
		{
			Event:   EventReferralSubmitted,
			Subject: "Your referral for {{child_name}} has been submitted",
			Body:    "Hi {{parent_name}}, your referral was submitted on {{submitted_at}} and our care team is reviewing it.",
		},
		{
			Event:   EventReferralWithdrawn,
			Subject: "Your referral has been withdrawn",
			Body:    "Hi {{parent_name}}, your referral was withdrawn. You can start a new one at any time.",
		},
		{
			Event:   EventDeletionRequested,
			Subject: "We received your data deletion request",
			Body:    "Hi {{parent_name}}, we received your request on {{requested_at}}. An administrator will review it shortly.",
		},
		{
			Event:   EventDeletionApproved,
			Subject: "Your data deletion request was approved",
			Body:    "Hi {{parent_name}}, your family's personal information has been removed from our records.",
		},
		{
			Event:   EventDeletionRejected,
			Subject: "About your data deletion request",
			Body:    "Hi {{parent_name}}, we could not complete your deletion request. Please contact support for details.",
		},
		{
			Event:   EventScreenerCrisis,
			Subject: "Immediate attention needed for referral {{referral_id}}",
			Body:    "A screener message on referral {{referral_id}} was flagged as a crisis at {{flagged_at}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.Event] = &t
	}
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Event] = &t
}

// Render looks up the template for an event and performs {{key}}
// replacement. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(event string, data map[string]string) (subject, body string, ok bool) {
	e.mu.RLock()
	t, found := e.templates[event]
	e.mu.RUnlock()
	if !found {
		return "", "", false
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, true
}

// ---------------------------------------------------------------------------
// Email dispatcher
// ---------------------------------------------------------------------------

const sendTimeout = 10 * time.Second

// EmailDispatcher renders event templates and emails them to the
// recipient named in data["recipient"]. Failures are logged and
// swallowed; the engine never blocks on notification delivery.
type EmailDispatcher struct {
	sender    EmailSender
	templates *TemplateEngine
	log       zerolog.Logger
}

// NewEmailDispatcher constructs an EmailDispatcher.
func NewEmailDispatcher(sender EmailSender, templates *TemplateEngine, log zerolog.Logger) *EmailDispatcher {
	return &EmailDispatcher{sender: sender, templates: templates, log: log}
}

// Dispatch renders and sends the event notification. The caller's
// context is detached: a cancelled request must not abort delivery of a
// notification that was already owed.
func (d *EmailDispatcher) Dispatch(_ context.Context, event string, data map[string]string) {
	recipient := data["recipient"]
	if recipient == "" {
		d.log.Warn().Str("event", event).Msg("notification skipped: no recipient")
		return
	}

	subject, body, ok := d.templates.Render(event, data)
	if !ok {
		d.log.Warn().Str("event", event).Msg("notification skipped: no template")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.sender.SendEmail(ctx, recipient, subject, body); err != nil {
		d.log.Error().Err(err).
			Str("event", event).
			Str("notification_id", uuid.New().String()).
			Msg("notification delivery failed")
		return
	}
	d.log.Debug().Str("event", event).Str("recipient", recipient).Msg("notification sent")
}

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

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
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("send failed")
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

// Recorder is a Dispatcher test double that records dispatched events.
type Recorder struct {
	mu     sync.Mutex
	events []string
	data   []map[string]string
}

// Dispatch records the event.
func (r *Recorder) Dispatch(_ context.Context, event string, data map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

// Events returns a copy of recorded event names.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Data returns the data map for the i-th dispatched event.
func (r *Recorder) Data(i int) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.data) {
		return nil
	}
	return r.data[i]
}
