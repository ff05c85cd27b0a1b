package filter

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/heuristic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scamMessage = "From: security@bank-alerts.xyz\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Account notice\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"URGENT: Your account will be suspended. Click here to verify: http://secure-bank-update.com\r\n"

const cleanMessage = "From: friend@example.com\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Lunch\r\n" +
	"\r\n" +
	"Want to grab lunch on Thursday at the usual place?\r\n"

func testSMTPConfig() config.SMTPConfig {
	cfg := config.NewFromViper(config.NewEmptyViper()).GetSMTP()
	cfg.PostfixEnabled = false
	return cfg
}

type stubAnalyzer struct {
	result *core.RiskAssessment
	err    error
	got    *core.Submission
}

func (s *stubAnalyzer) Analyze(_ context.Context, sub *core.Submission) (*core.RiskAssessment, error) {
	s.got = sub
	return s.result, s.err
}

func heuristicAnalyzer() *core.AssessmentService {
	return core.NewAssessmentService(heuristic.NewDefaultScorer(), nil, nil, nil, nil, nil, zap.NewNop(), core.ServiceOptions{})
}

func TestAnnotateMessage_Headers(t *testing.T) {
	result := &core.RiskAssessment{
		IsScam:      true,
		RiskScore:   65,
		Category:    core.CategoryPhishing,
		Explanation: "High risk\r\nmultiline",
	}

	out := string(annotateMessage([]byte(scamMessage), result, nil, testSMTPConfig()))

	assert.True(t, strings.HasPrefix(out, "X-Scam-Status: scam\r\nX-Scam-Score: 65\r\nX-Scam-Category: phishing\r\nX-Scam-Reason: High risk multiline\r\n"))
	assert.Contains(t, out, "Subject: Account notice\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nURGENT: Your account will be suspended. Click here to verify: http://secure-bank-update.com\r\n"))
}

func TestAnnotateMessage_SubjectPrefix(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	result := &core.RiskAssessment{IsScam: true, RiskScore: 80, Category: core.CategoryFraud}

	out := string(annotateMessage([]byte(scamMessage), result, nil, cfg))
	assert.Contains(t, out, "Subject: [**SCAM**] Account notice\r\n")
	assert.Equal(t, 1, strings.Count(out, "Subject:"))

	// already prefixed subjects are left alone
	again := string(annotateMessage([]byte(out), result, nil, cfg))
	assert.Equal(t, 1, strings.Count(again, "[**SCAM**]"))
}

func TestAnnotateMessage_FoldedSubject(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	raw := "Subject: Your account\r\n needs attention\r\nFrom: x@y.z\r\n\r\nbody"
	result := &core.RiskAssessment{IsScam: true, RiskScore: 70, Category: core.CategoryPhishing}

	out := string(annotateMessage([]byte(raw), result, nil, cfg))
	assert.Contains(t, out, "Subject: [**SCAM**] Your account needs attention\r\nFrom: x@y.z\r\n")
	assert.NotContains(t, out, "\r\n needs attention")
}

func TestAnnotateMessage_CleanLeavesSubject(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	result := &core.RiskAssessment{IsScam: false, RiskScore: 0, Category: core.CategorySafe}

	out := string(annotateMessage([]byte(cleanMessage), result, nil, cfg))
	assert.Contains(t, out, "X-Scam-Status: clean\r\n")
	assert.Contains(t, out, "Subject: Lunch\r\n")
}

func TestAnnotateMessage_AnalysisError(t *testing.T) {
	out := string(annotateMessage([]byte(cleanMessage), nil, errors.New("context deadline exceeded"), testSMTPConfig()))

	assert.Contains(t, out, "X-Scam-Status: unknown\r\n")
	assert.Contains(t, out, "X-Scam-Analysis-Error: context deadline exceeded\r\n")
	assert.NotContains(t, out, "X-Scam-Score")
}

func TestAnnotateMessage_LFOnlyInput(t *testing.T) {
	raw := "Subject: hi\nFrom: a@b.c\n\nline one\nline two\n"
	result := &core.RiskAssessment{RiskScore: 10, Category: core.CategorySafe}

	out := string(annotateMessage([]byte(raw), result, nil, testSMTPConfig()))
	assert.Contains(t, out, "Subject: hi\r\nFrom: a@b.c\r\n\r\nline one\nline two\n")
}

func TestProcessMessage_HeuristicScam(t *testing.T) {
	f := NewPostfixFilter(heuristicAnalyzer(), testSMTPConfig(), zap.NewNop())

	out, err := f.processMessage(context.Background(), "security@bank-alerts.xyz", []byte(scamMessage))
	require.NoError(t, err)
	assert.Contains(t, string(out), "X-Scam-Status: scam\r\n")
	assert.Contains(t, string(out), "X-Scam-Category: phishing\r\n")
}

func TestProcessMessage_SubmissionContent(t *testing.T) {
	stub := &stubAnalyzer{result: &core.RiskAssessment{Category: core.CategorySafe}}
	f := NewPostfixFilter(stub, testSMTPConfig(), zap.NewNop())

	_, err := f.processMessage(context.Background(), "friend@example.com", []byte(cleanMessage))
	require.NoError(t, err)

	require.NotNil(t, stub.got)
	assert.Equal(t, core.ContentTypeText, stub.got.Type)
	assert.Equal(t, "smtp:friend@example.com", stub.got.Source)
	assert.True(t, strings.HasPrefix(stub.got.Content, "Lunch\n\nWant to grab lunch"))
}

func TestProcessMessage_BlocksScam(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.BlockScam = true
	f := NewPostfixFilter(heuristicAnalyzer(), cfg, zap.NewNop())

	_, err := f.processMessage(context.Background(), "x@y.z", []byte(scamMessage))

	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)
}

func TestProcessMessage_AnalysisFailureIsNotBlocked(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.BlockScam = true
	f := NewPostfixFilter(&stubAnalyzer{err: errors.New("boom")}, cfg, zap.NewNop())

	out, err := f.processMessage(context.Background(), "x@y.z", []byte(scamMessage))
	require.NoError(t, err)
	assert.Contains(t, string(out), "X-Scam-Analysis-Error: boom\r\n")
}

// fakePostfix accepts re-injected messages
type fakePostfix struct {
	mu       sync.Mutex
	from     string
	rcpts    []string
	messages [][]byte
}

func (b *fakePostfix) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &fakePostfixSession{backend: b}, nil
}

type fakePostfixSession struct {
	backend *fakePostfix
}

func (s *fakePostfixSession) Reset()        {}
func (s *fakePostfixSession) Logout() error { return nil }

func (s *fakePostfixSession) Mail(from string, _ *smtp.MailOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.from = from
	return nil
}

func (s *fakePostfixSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.rcpts = append(s.backend.rcpts, to)
	return nil
}

func (s *fakePostfixSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.messages = append(s.backend.messages, data)
	return nil
}

func startFakePostfix(t *testing.T) (*fakePostfix, string, int) {
	t.Helper()
	backend := &fakePostfix{}
	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return backend, host, port
}

func TestSession_ReinjectsAnnotatedMessage(t *testing.T) {
	postfix, host, port := startFakePostfix(t)

	cfg := testSMTPConfig()
	cfg.PostfixEnabled = true
	cfg.PostfixAddress = host
	cfg.PostfixPort = port
	f := NewPostfixFilter(heuristicAnalyzer(), cfg, zap.NewNop())

	session := &smtpSession{filter: f}
	require.NoError(t, session.Mail("security@bank-alerts.xyz", nil))
	require.NoError(t, session.Rcpt("victim@example.com", nil))
	require.NoError(t, session.Data(strings.NewReader(scamMessage)))

	require.Eventually(t, func() bool {
		postfix.mu.Lock()
		defer postfix.mu.Unlock()
		return len(postfix.messages) == 1
	}, 2*time.Second, 10*time.Millisecond)

	postfix.mu.Lock()
	defer postfix.mu.Unlock()
	assert.Equal(t, "security@bank-alerts.xyz", postfix.from)
	assert.Equal(t, []string{"victim@example.com"}, postfix.rcpts)
	assert.Contains(t, string(postfix.messages[0]), "X-Scam-Status: scam")

	session.Reset()
	assert.Empty(t, session.sender)
	assert.Empty(t, session.recipients)
}

func TestSession_PostfixUnavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	cfg := testSMTPConfig()
	cfg.PostfixEnabled = true
	cfg.PostfixAddress = "127.0.0.1"
	cfg.PostfixPort = addr.Port
	f := NewPostfixFilter(heuristicAnalyzer(), cfg, zap.NewNop())

	session := &smtpSession{filter: f, sender: "a@b.c", recipients: []string{"d@e.f"}}
	assert.Error(t, session.Data(strings.NewReader(cleanMessage)))
}
