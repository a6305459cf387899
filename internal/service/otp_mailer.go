package service

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const otpMailSubject = "PlakshaConnect - Your OTP Code"

// SMTPOTPSender mails passcodes through an SMTP relay.
type SMTPOTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// TTL is quoted in the message body.
	TTL time.Duration
}

// SendOTP implements OTPSender. Credentials are only sent when a username is
// configured.
func (s SMTPOTPSender) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	addr := net.JoinHostPort(s.Host, s.Port)
	if err := smtp.SendMail(addr, auth, s.envelopeFrom(), []string{email}, s.message(email, code)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s SMTPOTPSender) envelopeFrom() string {
	from := s.From
	if start, end := strings.LastIndex(from, "<"), strings.LastIndex(from, ">"); start >= 0 && end > start {
		from = from[start+1 : end]
	}
	return strings.TrimSpace(from)
}

func (s SMTPOTPSender) message(to, code string) []byte {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	var b strings.Builder
	b.WriteString("From: " + s.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + otpMailSubject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Your PlakshaConnect verification code is: %s\r\n\r\n", code)
	fmt.Fprintf(&b, "This code will expire in %d minutes.\r\n", int(ttl.Minutes()))
	b.WriteString("If you didn't request this code, please ignore this email.\r\n")
	return []byte(b.String())
}
