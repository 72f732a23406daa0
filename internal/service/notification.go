package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

const qrSize = 256

var errNoMailer = errors.New("no mailer configured")

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<h2>Your table is confirmed</h2>
<p>Hi {{.Name}},</p>
<p>We look forward to seeing you on <strong>{{.When}}</strong> for a party of {{.PartySize}}.</p>
<p>Reservation number: <strong>{{.Number}}</strong></p>
{{if .QRCode}}<p><img alt="{{.Number}}" width="200" height="200" src="{{.QRCode}}"></p>
<p>Show this code to our staff when you arrive.</p>{{end}}
<p>Need to cancel? You can do so online up to {{.Cutoff}} before your booking.</p>
</body></html>`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<h2>See you soon</h2>
<p>Hi {{.Name}},</p>
<p>This is a reminder of your reservation <strong>{{.Number}}</strong> today at <strong>{{.When}}</strong> for {{.PartySize}}.</p>
<p>Tables are held for {{.Grace}} past the booking time.</p>
</body></html>`))

type emailData struct {
	Name      string
	Number    string
	When      string
	PartySize int
	Cutoff    string
	Grace     string
	QRCode    template.URL
}

func (s *Service) emailData(r *model.Reservation, layout string) emailData {
	name := "guest"
	if r.Customer != nil && r.Customer.Name != "" {
		name = r.Customer.Name
	}
	return emailData{
		Name:      name,
		Number:    r.Number,
		When:      r.ReservationTime.In(s.policy.Location).Format(layout),
		PartySize: r.PartySize,
		Cutoff:    humanDuration(s.policy.CustomerCancelCutoff),
		Grace:     humanDuration(s.policy.NoShowGrace),
	}
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}

func recipient(r *model.Reservation) (string, bool) {
	if r.Customer == nil || r.Customer.Email == nil || *r.Customer.Email == "" {
		return "", false
	}
	return *r.Customer.Email, true
}

// RenderConfirmation returns the confirmation email body for r.
func (s *Service) RenderConfirmation(r *model.Reservation) (string, error) {
	data := s.emailData(r, "Mon 2 Jan 2006 at 15:04")
	if s.codes != nil {
		png, err := s.codes.PNG(r.Number, qrSize)
		if err != nil {
			s.log.Warn("EMAIL", fmt.Sprintf("qr for %s: %v", r.Number, err))
		} else {
			data.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

// RenderReminder returns the reminder email body for r.
func (s *Service) RenderReminder(r *model.Reservation) (string, error) {
	var buf bytes.Buffer
	if err := reminderTmpl.Execute(&buf, s.emailData(r, "15:04")); err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

// ReservationQRCode renders the QR code guests show on arrival.
func (s *Service) ReservationQRCode(r *model.Reservation, size int) ([]byte, error) {
	if s.codes == nil {
		return nil, errors.New("no qr renderer configured")
	}
	if size <= 0 {
		size = qrSize
	}
	return s.codes.PNG(r.Number, size)
}

func (s *Service) sendConfirmation(ctx context.Context, r *model.Reservation) error {
	to, ok := recipient(r)
	if !ok {
		return nil
	}
	if s.mailer == nil {
		return errNoMailer
	}
	body, err := s.RenderConfirmation(r)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, to, "Reservation "+r.Number+" confirmed", body)
}

func (s *Service) sendReminder(ctx context.Context, r *model.Reservation) error {
	to, ok := recipient(r)
	if !ok {
		return nil
	}
	if s.mailer == nil {
		return errNoMailer
	}
	body, err := s.RenderReminder(r)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, to, "Reminder: your table at "+r.ReservationTime.In(s.policy.Location).Format("15:04"), body)
}
