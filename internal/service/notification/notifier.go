// Package notification tells appointment participants about status changes.
package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
)

// Notifier never fails the caller; delivery problems are logged.
type Notifier interface {
	AppointmentChanged(ctx context.Context, appt *model.Appointment, patient, doctor *model.User)
}

// New returns an SMTP notifier when a host is configured, else a log notifier.
func New(cfg config.SMTPConfig) Notifier {
	if cfg.Host == "" {
		return LogNotifier{}
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewSMTPNotifier(d, cfg.From)
}

type LogNotifier struct{}

func (LogNotifier) AppointmentChanged(_ context.Context, appt *model.Appointment, patient, doctor *model.User) {
	log.Info().
		Int64("appointment_id", appt.ID).
		Str("status", string(appt.Status)).
		Str("patient", patient.Username).
		Str("doctor", doctor.Username).
		Msg("appointment changed")
}

// Sender is the part of *gomail.Dialer the notifier uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier mails both participants that have an address on file.
// Mail goes out on a background goroutine; Close waits for it.
type SMTPNotifier struct {
	sender Sender
	from   string
	wg     sync.WaitGroup
}

func NewSMTPNotifier(sender Sender, from string) *SMTPNotifier {
	return &SMTPNotifier{sender: sender, from: from}
}

func (n *SMTPNotifier) AppointmentChanged(_ context.Context, appt *model.Appointment, patient, doctor *model.User) {
	var msgs []*gomail.Message
	for _, u := range []*model.User{patient, doctor} {
		if u.Email == nil || *u.Email == "" {
			continue
		}
		msgs = append(msgs, n.message(*u.Email, appt, patient, doctor))
	}
	if len(msgs) == 0 {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.sender.DialAndSend(msgs...); err != nil {
			log.Error().Err(err).Int64("appointment_id", appt.ID).Msg("failed to send appointment email")
		}
	}()
}

func (n *SMTPNotifier) message(to string, appt *model.Appointment, patient, doctor *model.User) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Appointment %s", appt.Status))
	m.SetBody("text/plain", fmt.Sprintf(
		"Appointment #%d between %s and Dr. %s on %s is now %s.",
		appt.ID, patient.Username, doctor.Username,
		appt.StartTime.Format("2006-01-02 15:04"), appt.Status,
	))
	return m
}

// Close blocks until queued mail has been handed to the server.
func (n *SMTPNotifier) Close() {
	n.wg.Wait()
}
