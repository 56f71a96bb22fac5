package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// MailService sends transactional mail over SMTP. When the SMTP environment
// is incomplete the service is disabled: sends return ErrMailDisabled and
// handlers decide whether that is worth reporting.
type MailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
	siteURL  string
	enabled  bool
	log      *zap.Logger
}

// ErrMailDisabled signals that no SMTP credentials were configured.
var ErrMailDisabled = fmt.Errorf("mail service disabled: missing SMTP configuration")

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	SiteURL  string
}

func NewMailService(cfg MailConfig, log *zap.Logger) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Warn("mail service disabled: missing SMTP environment variables")
	}
	if cfg.FromName == "" {
		cfg.FromName = "EventHorizon"
	}
	return &MailService{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		fromName: cfg.FromName,
		siteURL:  strings.TrimRight(cfg.SiteURL, "/"),
		enabled:  enabled,
		log:      log,
	}
}

func (s *MailService) Enabled() bool {
	return s.enabled
}

func (s *MailService) send(to []string, subject, body, replyTo string) error {
	if !s.enabled {
		return ErrMailDisabled
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	var headers strings.Builder
	fmt.Fprintf(&headers, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&headers, "From: %s <%s>\r\n", s.fromName, s.from)
	if replyTo != "" {
		fmt.Fprintf(&headers, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&headers, "Subject: %s\r\n", subject)
	headers.WriteString("MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n")

	if err := smtp.SendMail(addr, auth, s.from, to, []byte(headers.String()+body)); err != nil {
		s.log.Error("failed to send email", zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

func (s *MailService) render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

// Templates are embedded as constants so the binary has no runtime asset
// dependency. Plain table-free HTML keeps them readable in every client.

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <h2>Welcome to EventHorizon, {{.Name}}!</h2>
  <p>Your account is ready. Create a room, invite your team and start planning
  events everyone actually wants to attend.</p>
  <p><a href="{{.LoginURL}}" style="display:inline-block;padding:10px 18px;background:#4f46e5;color:#fff;border-radius:6px;text-decoration:none">Log in</a></p>
</div>`))

var inviteTemplate = template.Must(template.New("invite").Parse(`
<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <p>{{.Body}}</p>
  <p><a href="{{.EventURL}}" style="display:inline-block;padding:10px 18px;background:#4f46e5;color:#fff;border-radius:6px;text-decoration:none">{{.CallToAction}}</a></p>
</div>`))

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <p>{{.Body}}</p>
  <p><a href="{{.EventURL}}" style="display:inline-block;padding:10px 18px;background:#4f46e5;color:#fff;border-radius:6px;text-decoration:none">Vote now</a></p>
</div>`))

var bookingTemplate = template.Must(template.New("booking").Parse(`
<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <h2>Booking request: {{.ActivityTitle}}</h2>
  <p>Hello {{.ProviderName}},</p>
  <p>{{.OrganizerName}} would like to book <strong>{{.ActivityTitle}}</strong>
  for the event "{{.EventName}}".</p>
  <ul>
    <li>Participants: {{.ParticipantCount}}</li>
    <li>Preferred date: {{.PreferredDate}}</li>
    <li>Budget: {{.Budget}}</li>
  </ul>
  {{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
  <p>Reply to this email to reach the organizer directly at {{.OrganizerEmail}}.</p>
</div>`))

func (s *MailService) SendWelcomeEmail(email, name string) error {
	body, err := s.render(welcomeTemplate, map[string]string{
		"Name":     name,
		"LoginURL": s.siteURL + "/login",
	})
	if err != nil {
		return err
	}
	return s.send([]string{email}, "Welcome to EventHorizon!", body, "")
}

func (s *MailService) SendEventInvite(email string, invite *InviteContent, eventURL string) error {
	body, err := s.render(inviteTemplate, map[string]string{
		"Body":         invite.Body,
		"EventURL":     s.siteURL + eventURL,
		"CallToAction": invite.CallToAction,
	})
	if err != nil {
		return err
	}
	return s.send([]string{email}, invite.Subject, body, "")
}

func (s *MailService) SendVotingReminder(email string, reminder *ReminderContent, eventURL string) error {
	body, err := s.render(reminderTemplate, map[string]string{
		"Body":     reminder.Body,
		"EventURL": s.siteURL + eventURL,
	})
	if err != nil {
		return err
	}
	return s.send([]string{email}, reminder.Subject, body, "")
}

// BookingRequest is the payload for a provider booking mail. Replies go to
// the organizer, not the platform.
type BookingRequest struct {
	ProviderEmail    string
	ProviderName     string
	ActivityTitle    string
	EventName        string
	OrganizerName    string
	OrganizerEmail   string
	ParticipantCount int
	PreferredDate    string
	Budget           string
	Notes            string
}

func (s *MailService) SendBookingRequest(req BookingRequest) error {
	body, err := s.render(bookingTemplate, req)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Booking request: %s for %d people", req.ActivityTitle, req.ParticipantCount)
	return s.send([]string{req.ProviderEmail}, subject, body, req.OrganizerEmail)
}
