package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL selects implicit TLS (usually port 465). Otherwise STARTTLS is
	// used when the server offers it.
	SSL         bool
	DialTimeout time.Duration
}

type sendFunc func(ctx context.Context, from string, to []string, msg []byte) error

// SMTPNotifier mails confirmation links.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	n := &SMTPNotifier{cfg: cfg, now: time.Now}
	n.send = n.deliver
	return n
}

const confirmationSubject = "Coisando Coisas - confirme seu email"

func (n *SMTPNotifier) SendConfirmation(ctx context.Context, to, nickname, link string) error {
	fromHeader, fromAddr, err := parseAddressForHeader(n.cfg.From)
	if err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	toHeader, toAddr, err := parseAddressForHeader(to)
	if err != nil {
		return fmt.Errorf("to address: %w", err)
	}

	body := fmt.Sprintf(`<h1>Olá, %s!</h1>
<p>Confirme seu email para começar a usar o Coisando Coisas:</p>
<p><a href="%s">%s</a></p>
`, htmlEscape(nickname), link, link)

	msg, err := buildEmailMessage(fromHeader, toHeader, confirmationSubject, body, n.now())
	if err != nil {
		return err
	}
	return n.send(ctx, fromAddr, []string{toAddr}, msg)
}

// deliver runs one SMTP session. The dial honours ctx and DialTimeout.
func (n *SMTPNotifier) deliver(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	dialer := &net.Dialer{Timeout: n.cfg.DialTimeout}
	tlsConfig := &tls.Config{ServerName: n.cfg.Host}

	var (
		conn net.Conn
		err  error
	)
	if n.cfg.SSL {
		td := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if !n.cfg.SSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if n.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

func parseAddressForHeader(input string) (string, string, error) {
	if err := rejectCRLF(input, "address"); err != nil {
		return "", "", err
	}

	addr, err := mail.ParseAddress(input)
	if err != nil {
		return "", "", err
	}

	return addr.String(), addr.Address, nil
}

func buildEmailMessage(fromHeader, toHeader, subject, body string, date time.Time) ([]byte, error) {
	if err := rejectCRLF(subject, "subject"); err != nil {
		return nil, err
	}
	encodedSubject := mime.QEncoding.Encode("UTF-8", subject)

	header := fmt.Sprintf("Date: %s\r\nFrom: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		date.Format(time.RFC1123Z), fromHeader, toHeader, encodedSubject)
	return []byte(header + body), nil
}

func rejectCRLF(value string, field string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("invalid %s header: CRLF not allowed", field)
	}
	return nil
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func htmlEscape(s string) string { return htmlReplacer.Replace(s) }
