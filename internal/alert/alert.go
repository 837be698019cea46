// Package alert sends operator notifications over SMTP and guards
// against paging the same condition twice within one polling epoch.
package alert

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"sync"
)

// ErrorCode is the closed set of outcomes SendAlert can report, matching
// the status codes the Gmail alert sink historically returned.
type ErrorCode int

const (
	NoError ErrorCode = iota
	ConnectionError
	AuthorizationError
	EmailSendError
	EnvironmentError
	OtherError
)

func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "no_error"
	case ConnectionError:
		return "connection_error"
	case AuthorizationError:
		return "authorization_error"
	case EmailSendError:
		return "email_send_error"
	case EnvironmentError:
		return "environment_error"
	default:
		return "other_error"
	}
}

// Sink sends one alert and reports how it went.
type Sink interface {
	SendAlert(subject, body string) ErrorCode
}

// SMTPSink sends alerts over implicit TLS to a Gmail-compatible SMTP
// submission endpoint, from and to the same mailbox — matching the
// single-account alerting model the reference project uses.
type SMTPSink struct {
	Host     string
	Port     string
	Username string
	Password string

	hostname string
}

// NewSMTPSinkFromEnv builds a sink from GMAIL_USERNAME/GMAIL_PASSWORD,
// returning EnvironmentError via a nil Sink if either is missing.
func NewSMTPSinkFromEnv() (*SMTPSink, ErrorCode) {
	user := os.Getenv("GMAIL_USERNAME")
	pass := os.Getenv("GMAIL_PASSWORD")
	if user == "" || pass == "" {
		return nil, EnvironmentError
	}
	host, _ := os.Hostname()
	return &SMTPSink{
		Host:     "smtp.gmail.com",
		Port:     "465",
		Username: user,
		Password: pass,
		hostname: host,
	}, NoError
}

// SendAlert delivers one email with a trace footer identifying the host
// and process that raised it.
func (s *SMTPSink) SendAlert(subject, body string) ErrorCode {
	addr := net.JoinHostPort(s.Host, s.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return ConnectionError
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return ConnectionError
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := client.Auth(auth); err != nil {
		return AuthorizationError
	}

	trace := fmt.Sprintf("\n\nthermostat supervisor alert sent from host %s", s.hostname)
	message := buildMessage(s.Username, s.Username, subject, body+trace)

	if err := client.Mail(s.Username); err != nil {
		return EmailSendError
	}
	if err := client.Rcpt(s.Username); err != nil {
		return EmailSendError
	}
	w, err := client.Data()
	if err != nil {
		return EmailSendError
	}
	if _, err := w.Write(message); err != nil {
		return EmailSendError
	}
	if err := w.Close(); err != nil {
		return EmailSendError
	}
	return NoError
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body))
}

// Kind names the condition an operator alert is about. The constants
// below are the error kinds, each with its own subject prefix; the
// supervisor also raises deviation alerts under per-mode kinds such as
// "heat_deviation", which carry the generic "[alert]" prefix.
// It is distinct from driver.Kind: a driver error is normalized into one
// of four capability-level outcomes, while Kind additionally covers
// supervisor-level conditions (a schedule outside its comfort limit, an
// unparseable device field, an unexpected internal failure) that never
// originate from a driver call at all.
type Kind string

const (
	TransientNetwork Kind = "transient_network"
	KindAuthError    Kind = "auth_error"
	KindNotSupported Kind = "not_supported"
	PolicyViolation  Kind = "policy_violation"
	ProtocolError    Kind = "protocol_error"
	InternalError    Kind = "internal_error"
)

// SubjectPrefix returns the conventional email subject prefix for k, so
// every alert kind is visually distinguishable in an inbox.
func (k Kind) SubjectPrefix() string {
	switch k {
	case TransientNetwork:
		return "[transient]"
	case KindAuthError:
		return "[auth]"
	case KindNotSupported:
		return "[not supported]"
	case PolicyViolation:
		return "[policy]"
	case ProtocolError:
		return "[protocol]"
	case InternalError:
		return "[internal]"
	default:
		return "[alert]"
	}
}

// DedupKey identifies one alert condition for suppression purposes: the
// kind of alert and the zone it concerns.
type DedupKey struct {
	Kind Kind
	Zone string
}

// Deduper suppresses repeat alerts for the same (kind, zone) within one
// polling epoch — a zone stuck in a deviation loop pages once per epoch,
// not once per poll.
type Deduper struct {
	mu   sync.Mutex
	sent map[DedupKey]int64
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{sent: make(map[DedupKey]int64)}
}

// ShouldSend reports whether an alert for key has not already been sent
// during epoch, and records it as sent if so.
func (d *Deduper) ShouldSend(key DedupKey, epoch int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.sent[key]; ok && last == epoch {
		return false
	}
	d.sent[key] = epoch
	return true
}
