package mailer

import (
	"fmt"
	"strconv"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends transactional mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// SendPriceDrop tells a user that a listing they saved got cheaper.
func (m *SMTPMailer) SendPriceDrop(toEmail string, l *domain.Listing) error {
	if err := m.dialer.DialAndSend(NewPriceDropMessage(m.from, toEmail, l)); err != nil {
		return fmt.Errorf("send price drop mail to %s: %w", toEmail, err)
	}
	return nil
}

func NewPriceDropMessage(from, to string, l *domain.Listing) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Price drop: "+l.Title)

	body := fmt.Sprintf("Good news! %q is now %s", l.Title, formatPrice(l.Price))
	if l.PreviousPrice != nil {
		body += " (was " + formatPrice(l.PreviousPrice) + ")"
	}
	body += ".\n"
	msg.SetBody("text/plain", body)
	return msg
}

func formatPrice(p *float64) string {
	if p == nil {
		return "free to swap"
	}
	return "$" + strconv.FormatFloat(*p, 'f', 2, 64)
}
