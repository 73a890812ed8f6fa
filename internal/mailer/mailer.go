package mailer

import (
	"io"
	"log"

	"gopkg.in/gomail.v2"
)

// Attachment is an in-memory file to include with a notification.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Mailer delivers outbound notifications. Sends are fire-and-forget from the
// pipeline's perspective; callers log failures and move on.
type Mailer interface {
	Send(to, subject, body string, attachments ...Attachment) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, user, pass, from string) Mailer {
	if host == "" {
		log.Printf("SMTP_HOST not set; outbound mail will be logged only")
		return &logMailer{}
	}
	if from == "" {
		from = user
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (m *smtpMailer) Send(to, subject, body string, attachments ...Attachment) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	for _, a := range attachments {
		a := a
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(a.Data)
				return err
			}),
		}
		if a.MIMEType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.MIMEType},
			}))
		}
		msg.Attach(a.Filename, settings...)
	}
	return m.dialer.DialAndSend(msg)
}

// logMailer stands in when SMTP is not configured (local development).
type logMailer struct{}

func (*logMailer) Send(to, subject, _ string, _ ...Attachment) error {
	log.Printf("[mail] to=%s subject=%q (smtp disabled)", to, subject)
	return nil
}
