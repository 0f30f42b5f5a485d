package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const (
	submitTimeout = 60 * time.Second
	dialTimeout   = 10 * time.Second
	relayDeadline = 30 * time.Second
)

var (
	errSMTPBusy = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 2},
		Message:      "Analysis already in progress, try again later",
	}
	errSMTPClassifier = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      "Classifier unavailable, try again later",
	}
	errSMTPBlank = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 6, 0},
		Message:      "Message has no analyzable text",
	}
	errSMTPPhishing = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 7, 1},
		Message:      "Message rejected as phishing",
	}
	errSMTPRelay = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 4, 1},
		Message:      "Failed to relay message",
	}
	errSMTPMalformed = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 6, 0},
		Message:      "Malformed message",
	}
)

// SMTPFrontend accepts messages over SMTP and submits their text as email
// analyses into the session
type SMTPFrontend struct {
	controller        *core.SubmissionController
	logger            *zap.Logger
	listenAddr        string
	domain            string
	forwardAddr       string
	blockPhishing     bool
	verdictHeader     string
	probabilityHeader string
	server            *smtp.Server
	listener          net.Listener
}

// NewSMTPFrontend creates a new SMTP intake
func NewSMTPFrontend(controller *core.SubmissionController, logger *zap.Logger, cfg config.SMTPServerConfig) *SMTPFrontend {
	return &SMTPFrontend{
		controller:        controller,
		logger:            logger,
		listenAddr:        cfg.ListenAddress,
		domain:            cfg.Domain,
		forwardAddr:       cfg.ForwardAddress,
		blockPhishing:     cfg.BlockPhishing,
		verdictHeader:     cfg.VerdictHeader,
		probabilityHeader: cfg.ProbabilityHeader,
	}
}

// Name identifies the frontend
func (f *SMTPFrontend) Name() string {
	return "smtp"
}

// Addr returns the bound listen address once started
func (f *SMTPFrontend) Addr() string {
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (f *SMTPFrontend) Start() error {
	f.server = smtp.NewServer(&smtpBackend{frontend: f})
	f.server.Addr = f.listenAddr
	f.server.Domain = f.domain
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = ln

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	f.logger.Info("SMTP frontend started",
		zap.String("address", ln.Addr().String()),
		zap.String("forward_address", f.forwardAddr),
		zap.Bool("block_phishing", f.blockPhishing))
	return nil
}

// Stop stops the SMTP server
func (f *SMTPFrontend) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// process classifies one message and decides its SMTP outcome
func (f *SMTPFrontend) process(sender string, recipients []string, raw []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Warn("Failed to parse email message", zap.String("sender", sender), zap.Error(err))
		return errSMTPMalformed
	}

	text, err := analysisText(msg)
	if err != nil {
		f.logger.Warn("Failed to extract text content", zap.String("sender", sender), zap.Error(err))
		return errSMTPMalformed
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	result, err := f.controller.Submit(ctx, core.KindEmail, text)
	if err != nil {
		f.logger.Warn("Email submission failed", zap.String("sender", sender), zap.Error(err))
		return smtpErrorFor(err)
	}

	f.logger.Info("Processed email",
		zap.String("id", result.ID),
		zap.String("sender", sender),
		zap.String("sender_domain", senderDomain(sender)),
		zap.String("prediction", string(result.Prediction)),
		zap.Float64("probability", result.Probability))

	if result.Prediction == core.VerdictPhishing && f.blockPhishing {
		return errSMTPPhishing
	}

	if f.forwardAddr == "" {
		return nil
	}

	if err := f.relay(sender, recipients, f.annotate(raw, *result)); err != nil {
		f.logger.Error("Failed to relay email", zap.String("sender", sender), zap.Error(err))
		return errSMTPRelay
	}
	return nil
}

// annotate prepends the verdict headers to the raw message
func (f *SMTPFrontend) annotate(raw []byte, result core.AnalysisResult) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s\r\n", f.verdictHeader, result.Prediction)
	fmt.Fprintf(&buf, "%s: %.4f\r\n", f.probabilityHeader, result.Probability)
	buf.Write(raw)
	return buf.Bytes()
}

// relay re-injects the message to the downstream MTA
func (f *SMTPFrontend) relay(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", f.forwardAddr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.forwardAddr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(relayDeadline)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpErrorFor maps submission failures to SMTP replies
func smtpErrorFor(err error) *smtp.SMTPError {
	switch {
	case errors.Is(err, core.ErrSlotBusy):
		return errSMTPBusy
	case core.IsValidationError(err):
		return errSMTPBlank
	default:
		return errSMTPClassifier
	}
}

func senderDomain(sender string) string {
	if _, domain, ok := strings.Cut(sender, "@"); ok && domain != "" {
		return domain
	}
	return "unknown"
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	frontend *SMTPFrontend
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{frontend: b.frontend}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	frontend   *SMTPFrontend
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and hands it to the frontend
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.frontend.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.frontend.process(s.sender, s.recipients, raw)
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
