package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/plugins/properties"
	"github.com/petfolio/petfolio/internal/sanitize"
)

// PropertySource provides the cipher secrets used for the stored SMTP
// password. Satisfied by properties.PropertyService.
type PropertySource interface {
	Value(ctx context.Context, key string) (string, error)
}

// MailService is the interface other plugins use to send email.
// This is the cross-plugin contract -- users relies on it for welcome mail.
type MailService interface {
	Send(ctx context.Context, to, subject, body string) error
	IsConfigured(ctx context.Context) bool
}

// NotificationService extends MailService with the contact form and admin
// settings management.
type NotificationService interface {
	MailService

	// SendContact relays a contact form submission to the site address.
	SendContact(ctx context.Context, req ContactRequest) error

	// GetSettings returns the SMTP configuration (password redacted).
	GetSettings(ctx context.Context) (*SMTPSettings, error)

	// UpdateSettings saves new SMTP settings. Empty password keeps existing.
	UpdateSettings(ctx context.Context, req UpdateSMTPRequest) error

	// TestConnection verifies SMTP connectivity with current settings.
	TestConnection(ctx context.Context) error
}

type notificationService struct {
	repo           SMTPRepository
	props          PropertySource
	cipherMode     cipher.Mode
	contactAddress string
}

// NewNotificationService creates a notification service. contactAddress is
// where contact form submissions are delivered.
func NewNotificationService(repo SMTPRepository, props PropertySource, mode cipher.Mode, contactAddress string) NotificationService {
	return &notificationService{
		repo:           repo,
		props:          props,
		cipherMode:     mode,
		contactAddress: contactAddress,
	}
}

// --- MailService (cross-plugin interface) ---

// IsConfigured returns true if SMTP is enabled and has a host configured.
func (s *notificationService) IsConfigured(ctx context.Context) bool {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return false
	}
	return row.Enabled && row.Host != ""
}

// Send delivers an email using the stored SMTP settings. The password is
// decrypted at send time -- plaintext credentials are never cached.
func (s *notificationService) Send(ctx context.Context, to, subject, body string) error {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("loading smtp settings: %w", err))
	}
	if !row.Enabled || row.Host == "" {
		return apperror.NewBadRequest("SMTP is not configured")
	}

	password, err := s.decryptPassword(ctx, row)
	if err != nil {
		return err
	}

	from := mail.Address{Name: row.FromName, Address: row.FromAddress}

	// Build RFC 2822 message.
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", row.Host, row.Port)

	// Send based on encryption mode.
	switch row.Encryption {
	case "ssl":
		return s.sendSSL(addr, row.Host, row.Username, password, from.Address, to, msg.String())
	case "none":
		return s.sendPlain(addr, row.Host, row.Username, password, from.Address, to, msg.String())
	default: // "starttls"
		return s.sendStartTLS(addr, row.Host, row.Username, password, from.Address, to, msg.String())
	}
}

// SendContact relays a contact form submission. User text is sanitized
// before it is embedded in the outgoing message.
func (s *notificationService) SendContact(ctx context.Context, req ContactRequest) error {
	req.Name = sanitize.Text(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = sanitize.Text(req.Message)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperror.NewValidation("a valid email is required")
	}
	if req.Message == "" {
		return apperror.NewValidation("message is required")
	}
	if s.contactAddress == "" {
		return apperror.NewBadRequest("contact form is not available")
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", req.Name, req.Email, req.Message)
	if err := s.Send(ctx, s.contactAddress, "New contact form message", body); err != nil {
		return err
	}
	slog.Info("Contact message relayed", "from", req.Email)
	return nil
}

// decryptPassword recovers the plaintext SMTP password using the cipher
// secrets from the property store.
func (s *notificationService) decryptPassword(ctx context.Context, row *smtpRow) (string, error) {
	if row.PasswordEncrypted == "" {
		return "", nil
	}
	secret, salt, err := s.cipherSecrets(ctx)
	if err != nil {
		return "", err
	}
	password, err := cipher.Decrypt(row.PasswordEncrypted, secret, salt)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("decrypting smtp password: %w", err))
	}
	return password, nil
}

func (s *notificationService) cipherSecrets(ctx context.Context) (secret, salt string, err error) {
	secret, err = s.props.Value(ctx, properties.KeyCryptoSecret)
	if err != nil {
		return "", "", apperror.NewInternal(fmt.Errorf("loading %s: %w", properties.KeyCryptoSecret, err))
	}
	salt, err = s.props.Value(ctx, properties.KeyCryptoSalt)
	if err != nil {
		return "", "", apperror.NewInternal(fmt.Errorf("loading %s: %w", properties.KeyCryptoSalt, err))
	}
	return secret, salt, nil
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (s *notificationService) sendStartTLS(addr, host, username, password, from, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if username != "" {
		auth := gosmtp.PlainAuth("", username, password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendSSL sends email using implicit SSL/TLS (port 465 typical).
func (s *notificationService) sendSSL(addr, host, username, password, from, to, msg string) error {
	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if username != "" {
		auth := gosmtp.PlainAuth("", username, password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendPlain sends email without encryption.
func (s *notificationService) sendPlain(addr, host, username, password, from, to, msg string) error {
	var auth gosmtp.Auth
	if username != "" {
		auth = gosmtp.PlainAuth("", username, password, host)
	}
	if err := gosmtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func (s *notificationService) sendMessage(client *gosmtp.Client, from, to, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}

// --- Admin management ---

// GetSettings returns SMTP settings with the password redacted.
func (s *notificationService) GetSettings(ctx context.Context) (*SMTPSettings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading smtp settings: %w", err))
	}
	return row.toSettings(), nil
}

// UpdateSettings saves SMTP settings. If the password field is empty,
// the existing encrypted password is preserved.
func (s *notificationService) UpdateSettings(ctx context.Context, req UpdateSMTPRequest) error {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("loading current smtp settings: %w", err))
	}

	row := &smtpRow{
		Host:        strings.TrimSpace(req.Host),
		Port:        req.Port,
		Username:    strings.TrimSpace(req.Username),
		FromAddress: strings.TrimSpace(req.FromAddress),
		FromName:    strings.TrimSpace(req.FromName),
		Encryption:  req.Encryption,
		Enabled:     req.Enabled,
	}

	if row.Port <= 0 {
		row.Port = 587
	}
	if row.FromName == "" {
		row.FromName = "Petfolio"
	}
	if row.Encryption == "" {
		row.Encryption = "starttls"
	}

	// Handle password: empty = keep existing, non-empty = encrypt + store.
	if req.Password != "" {
		secret, salt, err := s.cipherSecrets(ctx)
		if err != nil {
			return err
		}
		encrypted, err := cipher.Encrypt(req.Password, secret, salt, s.cipherMode)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("encrypting smtp password: %w", err))
		}
		row.PasswordEncrypted = encrypted
	} else {
		row.PasswordEncrypted = current.PasswordEncrypted
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		return apperror.NewInternal(fmt.Errorf("saving smtp settings: %w", err))
	}

	slog.Info("smtp settings updated",
		slog.String("host", row.Host),
		slog.Int("port", row.Port),
		slog.Bool("enabled", row.Enabled),
	)
	return nil
}

// TestConnection verifies SMTP connectivity by establishing a connection
// and performing the EHLO handshake.
func (s *notificationService) TestConnection(ctx context.Context) error {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("loading smtp settings: %w", err))
	}
	if row.Host == "" {
		return apperror.NewBadRequest("SMTP host is not configured")
	}

	password, err := s.decryptPassword(ctx, row)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", row.Host, row.Port)

	switch row.Encryption {
	case "ssl":
		return s.testSSL(addr, row.Host, row.Username, password)
	default: // "starttls" or "none"
		return s.testStartTLS(addr, row.Host, row.Username, password, row.Encryption == "starttls")
	}
}

// testStartTLS tests connectivity with optional STARTTLS.
func (s *notificationService) testStartTLS(addr, host, username, password string, useTLS bool) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("could not connect to %s: %v", addr, err))
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, host)
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("SMTP handshake failed: %v", err))
	}
	defer client.Close()

	if useTLS {
		tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return apperror.NewBadRequest(fmt.Sprintf("STARTTLS failed: %v", err))
		}
	}

	if username != "" {
		auth := gosmtp.PlainAuth("", username, password, host)
		if err := client.Auth(auth); err != nil {
			return apperror.NewBadRequest(fmt.Sprintf("authentication failed: %v", err))
		}
	}

	return client.Quit()
}

// testSSL tests connectivity with implicit SSL/TLS.
func (s *notificationService) testSSL(addr, host, username, password string) error {
	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("could not connect to %s (SSL): %v", addr, err))
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, host)
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("SMTP handshake failed: %v", err))
	}
	defer client.Close()

	if username != "" {
		auth := gosmtp.PlainAuth("", username, password, host)
		if err := client.Auth(auth); err != nil {
			return apperror.NewBadRequest(fmt.Sprintf("authentication failed: %v", err))
		}
	}

	return client.Quit()
}
