package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ghostpost/internal/composer"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/security/injection"
	"github.com/ignite/ghostpost/internal/security/sendgate"
	"github.com/ignite/ghostpost/internal/threads"
	"github.com/ignite/ghostpost/internal/triage"
)

type stubTriager struct {
	snap *triage.Snapshot
	err  error
}

func (s *stubTriager) GetTriageData(ctx context.Context, limit int) (*triage.Snapshot, error) {
	return s.snap, s.err
}

type stubBriefs struct {
	brief *string
	err   error
}

func (s *stubBriefs) GenerateBrief(ctx context.Context, threadID int64) (*string, error) {
	return s.brief, s.err
}

type stubGate struct {
	decision    sendgate.Decision
	err         error
	recordErr   error
	recordedFor string
}

func (s *stubGate) CheckSendAllowed(ctx context.Context, to domain.AddressList, body, actor string, threadID *int64) (sendgate.Decision, error) {
	return s.decision, s.err
}

func (s *stubGate) RecordSend(ctx context.Context, actor string) error {
	s.recordedFor = actor
	return s.recordErr
}

type stubComposer struct {
	result *composer.ReplyResult
	err    error
}

func (s *stubComposer) GenerateReply(ctx context.Context, threadID int64, instructions, styleOverride *string) (*composer.ReplyResult, error) {
	return s.result, s.err
}

type stubSender struct {
	sent bool
	err  error
}

func (s *stubSender) Send(ctx context.Context, from, to, subject, body string) error {
	s.sent = true
	return s.err
}

type stubScanner struct {
	matches []injection.Match
	err     error
}

func (s *stubScanner) ScanAndQuarantine(ctx context.Context, emailID int64) ([]injection.Match, error) {
	return s.matches, s.err
}

type stubThreadAdvancer struct {
	called       bool
	err          error
	markSentID   int64
	markSentErr  error
	markSentCall bool
}

func (s *stubThreadAdvancer) ReplyReceived(ctx context.Context, id int64) (*domain.Thread, error) {
	s.called = true
	return nil, s.err
}

func (s *stubThreadAdvancer) MarkSent(ctx context.Context, id int64, followUpDays int) (*domain.Thread, error) {
	s.markSentCall = true
	s.markSentID = id
	return nil, s.markSentErr
}

type stubAttachmentStore struct {
	blobKey string
	err     error
}

func (s *stubAttachmentStore) Put(ctx context.Context, threadID int64, filename, contentType string, data []byte) (string, error) {
	return s.blobKey, s.err
}

type stubAttachmentRecorder struct {
	email  *domain.Email
	getErr error
	added  domain.Attachment
	addErr error
}

func (s *stubAttachmentRecorder) GetEmail(ctx context.Context, id int64) (*domain.Email, error) {
	return s.email, s.getErr
}

func (s *stubAttachmentRecorder) AddAttachment(ctx context.Context, emailID int64, a domain.Attachment) error {
	s.added = a
	return s.addErr
}

type stubNotifier struct {
	alertCalled    bool
	newEmailCalled bool
}

func (s *stubNotifier) NotifyNewEmail(ctx context.Context, threadID int64, subject, sender, urgency string) (bool, error) {
	s.newEmailCalled = true
	return true, nil
}

func (s *stubNotifier) NotifySecurityAlert(ctx context.Context, threadID *int64, eventType, details string, severity domain.Severity) (bool, error) {
	s.alertCalled = true
	return true, nil
}

func TestHandleHealth(t *testing.T) {
	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestHandleTriageReturnsSnapshot(t *testing.T) {
	h := &Handlers{Triage: &stubTriager{snap: &triage.Snapshot{Summary: triage.Summary{TotalThreads: 3}}}}
	req := httptest.NewRequest(http.MethodGet, "/triage", nil)
	w := httptest.NewRecorder()

	h.HandleTriage(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_threads":3`)
}

func TestHandleThreadBriefNotFound(t *testing.T) {
	h := &Handlers{Briefs: &stubBriefs{brief: nil}}
	req := httptest.NewRequest(http.MethodGet, "/threads/99/brief", nil)
	req = withURLParam(req, "id", "99")
	w := httptest.NewRecorder()

	h.HandleThreadBrief(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleThreadBriefInvalidID(t *testing.T) {
	h := &Handlers{Briefs: &stubBriefs{}}
	req := httptest.NewRequest(http.MethodGet, "/threads/abc/brief", nil)
	req = withURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	h.HandleThreadBrief(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSendDeniedByGate(t *testing.T) {
	gate := &stubGate{decision: sendgate.Decision{Allowed: false, Reasons: []string{"recipient on blocklist: x@y.com"}}}
	sender := &stubSender{}
	h := &Handlers{Gate: gate, Mail: sender, From: "me@ghostpost"}

	body := bytes.NewBufferString(`{"thread_id":1,"to":"x@y.com","subject":"hi","body":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/send", body)
	w := httptest.NewRecorder()

	h.HandleSend(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, sender.sent)
}

func TestHandleSendComposesWhenBodyMissing(t *testing.T) {
	gate := &stubGate{decision: sendgate.Decision{Allowed: true}}
	sender := &stubSender{}
	comp := &stubComposer{result: &composer.ReplyResult{To: "x@y.com", Subject: "Re: hi", Body: "generated"}}
	h := &Handlers{Gate: gate, Mail: sender, Composer: comp, From: "me@ghostpost"}

	body := bytes.NewBufferString(`{"thread_id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/send", body)
	w := httptest.NewRecorder()

	h.HandleSend(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sender.sent)
	assert.Contains(t, w.Body.String(), "generated")
}

func TestHandleSendMarksThreadSentAndRecordsRate(t *testing.T) {
	gate := &stubGate{decision: sendgate.Decision{Allowed: true}}
	sender := &stubSender{}
	advancer := &stubThreadAdvancer{}
	h := &Handlers{Gate: gate, Mail: sender, Threads: advancer, From: "me@ghostpost"}

	body := bytes.NewBufferString(`{"thread_id":7,"to":"x@y.com","subject":"hi","body":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/send", body)
	w := httptest.NewRecorder()

	h.HandleSend(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, advancer.markSentCall)
	assert.Equal(t, int64(7), advancer.markSentID)
	assert.Equal(t, "agent", gate.recordedFor)
}

func TestHandleSendPropagatesMailError(t *testing.T) {
	gate := &stubGate{decision: sendgate.Decision{Allowed: true}}
	sender := &stubSender{err: errors.New("ses down")}
	h := &Handlers{Gate: gate, Mail: sender, From: "me@ghostpost"}

	body := bytes.NewBufferString(`{"thread_id":1,"to":"x@y.com","subject":"hi","body":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/send", body)
	w := httptest.NewRecorder()

	h.HandleSend(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleEmailIngestedScansAndAdvances(t *testing.T) {
	scanner := &stubScanner{matches: []injection.Match{{PatternName: "jailbreak_phrase", Severity: injection.High}}}
	advancer := &stubThreadAdvancer{}
	h := &Handlers{Scan: scanner, Threads: advancer}

	body := bytes.NewBufferString(`{"thread_id":1,"email_id":2}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/ingested", body)
	w := httptest.NewRecorder()

	h.HandleEmailIngested(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, advancer.called)
	assert.Contains(t, w.Body.String(), "jailbreak_phrase")
}

func TestHandleEmailIngestedNotifiesOnMatchAndNewEmail(t *testing.T) {
	scanner := &stubScanner{matches: []injection.Match{{PatternName: "jailbreak_phrase", Severity: injection.Critical}}}
	recorder := &stubAttachmentRecorder{email: &domain.Email{ID: 2, ThreadID: 1, Subject: "urgent", FromAddress: "a@b.com", Urgency: "critical"}}
	notifier := &stubNotifier{}
	h := &Handlers{Scan: scanner, Emails: recorder, Notify: notifier}

	body := bytes.NewBufferString(`{"thread_id":1,"email_id":2}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/ingested", body)
	w := httptest.NewRecorder()

	h.HandleEmailIngested(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, notifier.alertCalled)
	assert.True(t, notifier.newEmailCalled)
}

func TestHandleEmailIngestedToleratesInvalidTransition(t *testing.T) {
	advancer := &stubThreadAdvancer{err: threads.ErrInvalidTransition}
	h := &Handlers{Threads: advancer}

	body := bytes.NewBufferString(`{"thread_id":1,"email_id":2}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/ingested", body)
	w := httptest.NewRecorder()

	h.HandleEmailIngested(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAddAttachmentStoresAndRecords(t *testing.T) {
	store := &stubAttachmentStore{blobKey: "s3://bucket/key"}
	recorder := &stubAttachmentRecorder{email: &domain.Email{ID: 2, ThreadID: 1}}
	h := &Handlers{Attachments: store, Emails: recorder}

	body := bytes.NewBufferString(`{"filename":"report.pdf","content_type":"application/pdf","data":"aGVsbG8="}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/2/attachments", body)
	req = withURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.HandleAddAttachment(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s3://bucket/key", recorder.added.BlobKey)
	assert.Equal(t, "report.pdf", recorder.added.Filename)
}

func TestHandleAddAttachmentNotConfigured(t *testing.T) {
	h := &Handlers{}

	body := bytes.NewBufferString(`{"filename":"report.pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/2/attachments", body)
	req = withURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.HandleAddAttachment(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
