package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/diagnosis/heritage-portal/internal/summary"
	"github.com/diagnosis/heritage-portal/pkg/config"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

// New picks the delivery backend: dev output when requested, MailerSend
// when an API key is set, SMTP when a host is set, dev output otherwise.
func New(cfg config.EmailConfig) Sender {
	switch {
	case cfg.DevMode:
		return NewDevMailer(nil)
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	case cfg.SMTPHost != "":
		from := cfg.FromEmail
		if cfg.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
		}
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, from, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPTLS)
	default:
		logger.Warn("No email backend configured, printing emails to stdout")
		return NewDevMailer(nil)
	}
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(`
<h2>{{.Hotel}}: booking received</h2>
<p>Dear {{.S.Guest.FullName}},</p>
<p>Thank you for choosing {{.Hotel}}. Your booking <strong>{{.S.BookingID}}</strong> is {{.S.Status}}.</p>
{{if .S.Available}}<p><strong>{{.S.RoomName}}</strong> ({{.S.Category}})</p>{{else}}<p>{{.S.Message}}</p>{{end}}
<table cellpadding="4">
  <tr><td>Check-in</td><td>{{.S.CheckIn}}</td></tr>
  <tr><td>Check-out</td><td>{{.S.CheckOut}}</td></tr>
  <tr><td>Nights</td><td>{{.S.Nights}}</td></tr>
  <tr><td>Guests</td><td>{{.S.Guest.Adults}} adult(s), {{.S.Guest.Children}} child(ren)</td></tr>
  {{range .S.Lines}}<tr><td>{{.Label}}</td><td>{{.Amount}}</td></tr>
  {{end}}<tr><td><strong>Total</strong></td><td><strong>{{.S.Total}}</strong></td></tr>
</table>
{{with .S.Guest.SpecialRequests}}<p>Special requests: {{.}}</p>{{end}}
<p>We look forward to welcoming you.</p>
`))

// Confirmation renders the booking confirmation for s. The text part is
// the plain summary rendering.
func Confirmation(hotel string, s summary.Summary) (Message, error) {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Dear %s,\n\nThank you for booking with %s.\n\n", s.Guest.FullName, hotel)
	if err := s.Render(&text); err != nil {
		return Message{}, fmt.Errorf("render summary: %w", err)
	}

	var html bytes.Buffer
	if err := confirmationHTML.Execute(&html, struct {
		Hotel string
		S     summary.Summary
	}{hotel, s}); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}

	return Message{
		ToEmail: s.Guest.Email,
		ToName:  s.Guest.FullName,
		Subject: fmt.Sprintf("Your %s booking %s", hotel, s.BookingID),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
