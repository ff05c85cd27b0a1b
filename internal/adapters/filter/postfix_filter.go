package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"go.uber.org/zap"
)

const (
	// AnalysisErrorHeader is added when the message could not be assessed
	AnalysisErrorHeader = "X-Scam-Analysis-Error"

	analysisTimeout = 30 * time.Second
	maxReasonLength = 900
	defaultPrefix   = "[**SCAM**] "
)

// Header values of the status header
const (
	StatusScam    = "scam"
	StatusClean   = "clean"
	StatusUnknown = "unknown"
)

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	analyzer ports.Analyzer
	logger   *zap.Logger
	cfg      config.SMTPConfig
	server   *smtp.Server
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(analyzer ports.Analyzer, cfg config.SMTPConfig, logger *zap.Logger) *PostfixFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = defaultPrefix
	}

	return &PostfixFilter{
		analyzer: analyzer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessSubmission analyzes a submission directly
func (f *PostfixFilter) ProcessSubmission(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error) {
	return f.analyzer.Analyze(ctx, sub)
}

// processMessage analyzes a raw message and returns the annotated copy to re-inject.
// A non-nil error rejects the message.
func (f *PostfixFilter) processMessage(ctx context.Context, sender string, raw []byte) ([]byte, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	subject, err := decodeEncodedHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	content := body
	if subject != "" {
		content = subject + "\n\n" + body
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	result, analysisErr := f.analyzer.Analyze(ctx, &core.Submission{
		Content: content,
		Type:    core.ContentTypeText,
		Source:  "smtp:" + sender,
	})
	if analysisErr != nil {
		f.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", sender))
		result = nil
	}

	// Only reject when the message is a scam and the analysis succeeded
	if result != nil && result.IsScam && f.cfg.BlockScam {
		f.logger.Info("Rejecting scam email",
			zap.String("from", sender),
			zap.Int("risk_score", result.RiskScore),
			zap.String("category", string(result.Category)),
			zap.String("reason", result.Explanation),
			zap.String("model", result.ModelUsed))
		return nil, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as scam (score: %d)", result.RiskScore),
		}
	}

	if result != nil {
		f.logger.Info("Processed email",
			zap.String("from", sender),
			zap.Bool("is_scam", result.IsScam),
			zap.Int("risk_score", result.RiskScore),
			zap.String("model", result.ModelUsed))
	}

	return annotateMessage(raw, result, analysisErr, f.cfg), nil
}

// annotateMessage prepends the scam headers to a raw message, optionally
// prefixing the subject of scams. The body is preserved byte for byte.
func annotateMessage(raw []byte, result *core.RiskAssessment, analysisErr error, cfg config.SMTPConfig) []byte {
	headerSection, body := splitMessage(raw)

	var out bytes.Buffer
	writeHeader := func(name, value string) {
		fmt.Fprintf(&out, "%s: %s\r\n", name, value)
	}

	if result != nil {
		status := StatusClean
		if result.IsScam {
			status = StatusScam
		}
		writeHeader(cfg.StatusHeader, status)
		writeHeader(cfg.ScoreHeader, strconv.Itoa(result.RiskScore))
		writeHeader(cfg.CategoryHeader, string(result.Category))
		writeHeader(cfg.ReasonHeader, headerValue(result.Explanation))
	} else {
		writeHeader(cfg.StatusHeader, StatusUnknown)
	}
	if analysisErr != nil {
		writeHeader(AnalysisErrorHeader, headerValue(analysisErr.Error()))
	}

	rewriteSubject := result != nil && result.IsScam && cfg.ModifySubject && cfg.SubjectPrefix != ""
	writeOriginalHeaders(&out, headerSection, rewriteSubject, cfg.SubjectPrefix)

	// End of headers
	out.WriteString("\r\n")
	out.Write(body)

	return out.Bytes()
}

// splitMessage separates the header block from the body
func splitMessage(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, nil
}

// writeOriginalHeaders copies header lines in order with CRLF endings,
// replacing the Subject when rewriteSubject is set
func writeOriginalHeaders(out *bytes.Buffer, headerSection []byte, rewriteSubject bool, prefix string) {
	lines := strings.Split(string(headerSection), "\n")
	sawSubject := false

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == "" {
			continue
		}

		if rewriteSubject && hasHeaderName(line, "Subject") {
			// Gather folded continuation lines
			value := strings.TrimSpace(line[len("Subject:"):])
			for i+1 < len(lines) && isContinuation(lines[i+1]) {
				i++
				value += " " + strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
			}
			sawSubject = true
			out.WriteString("Subject: " + prefixedSubject(value, prefix) + "\r\n")
			continue
		}

		out.WriteString(line + "\r\n")
	}

	if rewriteSubject && !sawSubject {
		out.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", strings.TrimSpace(prefix)) + "\r\n")
	}
}

func prefixedSubject(value, prefix string) string {
	decoded, err := decodeEncodedHeader(value)
	if err != nil {
		decoded = value
	}
	if strings.HasPrefix(decoded, prefix) {
		return value
	}
	return mime.QEncoding.Encode("utf-8", prefix+decoded)
}

func hasHeaderName(line, name string) bool {
	return len(line) > len(name) && line[len(name)] == ':' && strings.EqualFold(line[:len(name)], name)
}

func isContinuation(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// headerValue makes text safe for a single header line
func headerValue(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxReasonLength {
		s = s[:maxReasonLength]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return mime.QEncoding.Encode("utf-8", s)
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddress, strconv.Itoa(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
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

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already queued
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
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

// Data analyzes the message and re-injects it into Postfix
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	annotated, err := s.filter.processMessage(context.Background(), s.sender, raw)
	if err != nil {
		return err
	}

	if !s.filter.cfg.PostfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}

	if err := s.filter.sendToPostfix(s.sender, s.recipients, annotated); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
