// Package notifier delivers review alerts to human verifiers over SMTP.
package notifier

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// ReviewAlert describes a flagged payout awaiting manual review.
type ReviewAlert struct {
	PayoutID  string
	OwnerID   string
	Amount    float64
	Status    string
	RiskScore float64
}

// Mailer sends plain-text notification mail through an authenticated SMTP relay.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	to       string
}

// NewMailer constructs a Mailer for the given relay and recipient.
func NewMailer(host string, port int, username, password, from, fromName, to string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		to:       to,
	}
}

// SendReviewAlert notifies the reviewer inbox about a held payout.
func (m *Mailer) SendReviewAlert(alert ReviewAlert) error {
	subject := fmt.Sprintf("Payout %s held for review (%s)", alert.PayoutID, alert.Status)
	body := renderReviewAlert(alert)

	fromHeader := fmt.Sprintf("%s <%s>", m.fromName, m.from)
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", m.to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	log.Printf("[MAIL] smtp sending to=%s via=%s:%d", m.to, m.host, m.port)

	if err := m.sendWithTimeout([]byte(msg)); err != nil {
		return err
	}

	log.Printf("[MAIL] sent to=%s", m.to)
	return nil
}

func renderReviewAlert(alert ReviewAlert) string {
	return strings.Join([]string{
		"A carbon-credit payout request was held for manual review.",
		"",
		fmt.Sprintf("Payout:     %s", alert.PayoutID),
		fmt.Sprintf("Farmer:     %s", alert.OwnerID),
		fmt.Sprintf("Amount:     %.2f", alert.Amount),
		fmt.Sprintf("Status:     %s", alert.Status),
		fmt.Sprintf("Risk score: %.2f", alert.RiskScore),
		"",
		"Review the request in the verifier dashboard before releasing funds.",
	}, "\r\n")
}

func (m *Mailer) sendWithTimeout(msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	conn, err := net.DialTimeout("tcp", addr, 8*time.Second)
	if err != nil {
		return err
	}
	// Deadline covers the whole SMTP conversation, not just the dial.
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(m.to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
