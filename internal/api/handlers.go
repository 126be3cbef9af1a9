package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/ghostpost/internal/composer"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/httputil"
	"github.com/ignite/ghostpost/internal/security/injection"
	"github.com/ignite/ghostpost/internal/security/sendgate"
	"github.com/ignite/ghostpost/internal/threads"
	"github.com/ignite/ghostpost/internal/triage"
)

// Triager produces the C8 dashboard snapshot.
type Triager interface {
	GetTriageData(ctx context.Context, limit int) (*triage.Snapshot, error)
}

// BriefGenerator produces the C13 per-thread brief.
type BriefGenerator interface {
	GenerateBrief(ctx context.Context, threadID int64) (*string, error)
}

// SendGate is C5's single pre-send decision point. RecordSend bumps the
// rate-limit counter for a send that actually went out.
type SendGate interface {
	CheckSendAllowed(ctx context.Context, to domain.AddressList, body, actor string, threadID *int64) (sendgate.Decision, error)
	RecordSend(ctx context.Context, actor string) error
}

// Composer generates reply text (C14).
type Composer interface {
	GenerateReply(ctx context.Context, threadID int64, instructions, styleOverride *string) (*composer.ReplyResult, error)
}

// Sender dispatches an outbound email once the send gate has cleared it.
type Sender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Scanner runs C2's injection scan against a stored email.
type Scanner interface {
	ScanAndQuarantine(ctx context.Context, emailID int64) ([]injection.Match, error)
}

// ThreadAdvancer is the subset of C7's thread lifecycle the HTTP surface
// drives directly: an inbound reply moves WAITING_REPLY back to ACTIVE,
// and a confirmed outbound send moves a non-terminal thread into
// WAITING_REPLY with a scheduled follow-up.
type ThreadAdvancer interface {
	ReplyReceived(ctx context.Context, id int64) (*domain.Thread, error)
	MarkSent(ctx context.Context, id int64, followUpDays int) (*domain.Thread, error)
}

// AttachmentStore persists attachment bytes, keyed by an opaque blob key.
// Satisfied by *attachments.S3Store.
type AttachmentStore interface {
	Put(ctx context.Context, threadID int64, filename, contentType string, data []byte) (blobKey string, err error)
}

// AttachmentRecorder records an attachment's metadata against its email
// once the bytes are in the blob store. Satisfied by *postgres.ThreadRepo.
type AttachmentRecorder interface {
	AddAttachment(ctx context.Context, emailID int64, a domain.Attachment) error
	GetEmail(ctx context.Context, id int64) (*domain.Email, error)
}

// Notifier is the subset of C9 the ingest endpoint drives directly: a
// high-urgency email or a detected injection attempt each raise a
// notification as soon as they're known, rather than waiting on the
// next scheduler tick.
type Notifier interface {
	NotifyNewEmail(ctx context.Context, threadID int64, subject, sender, urgency string) (bool, error)
	NotifySecurityAlert(ctx context.Context, threadID *int64, eventType, details string, severity domain.Severity) (bool, error)
}

// Handlers bundles the collaborators the HTTP surface calls through to.
type Handlers struct {
	Triage      Triager
	Briefs      BriefGenerator
	Gate        SendGate
	Composer    Composer
	Mail        Sender
	Scan        Scanner
	Threads     ThreadAdvancer
	Attachments AttachmentStore
	Emails      AttachmentRecorder
	Notify      Notifier
	From        string
}

// HandleHealth answers GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// HandleTriage answers GET /triage.
func (h *Handlers) HandleTriage(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	snap, err := h.Triage.GetTriageData(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, snap)
}

// HandleThreadBrief answers GET /threads/{id}/brief.
func (h *Handlers) HandleThreadBrief(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid thread id")
		return
	}

	brief, err := h.Briefs.GenerateBrief(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if brief == nil {
		httputil.NotFound(w, "thread not found or has no emails")
		return
	}
	httputil.OK(w, map[string]string{"brief": *brief})
}

// sendRequest is the POST /send body: either Body is given directly, or
// the composer generates one for ThreadID.
type sendRequest struct {
	ThreadID     int64   `json:"thread_id"`
	To           string  `json:"to"`
	Subject      string  `json:"subject"`
	Body         string  `json:"body"`
	Instructions *string `json:"instructions,omitempty"`
	Style        *string `json:"style,omitempty"`
}

// HandleSend answers POST /send: compose (if body is empty), gate, and
// dispatch. The send gate is the only path to the mail provider — every
// branch below funnels through h.Gate.CheckSendAllowed.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	to, subject, body := req.To, req.Subject, req.Body

	if body == "" {
		if h.Composer == nil {
			httputil.Error(w, http.StatusServiceUnavailable, "no body given and composer not configured")
			return
		}
		result, err := h.Composer.GenerateReply(r.Context(), req.ThreadID, req.Instructions, req.Style)
		if err != nil {
			httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		to, subject, body = result.To, result.Subject, result.Body
	}

	threadID := &req.ThreadID
	decision, err := h.Gate.CheckSendAllowed(r.Context(), domain.NewAddressList(to), body, "agent", threadID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !decision.Allowed {
		httputil.JSON(w, http.StatusForbidden, map[string]any{
			"allowed": false,
			"reasons": decision.Reasons,
		})
		return
	}

	if err := h.Mail.Send(r.Context(), h.From, to, subject, body); err != nil {
		httputil.Error(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.Gate.RecordSend(r.Context(), "agent"); err != nil {
		httputil.InternalError(w, err)
		return
	}
	if h.Threads != nil {
		if _, err := h.Threads.MarkSent(r.Context(), req.ThreadID, 0); err != nil && !errors.Is(err, threads.ErrInvalidTransition) {
			httputil.InternalError(w, err)
			return
		}
	}

	httputil.OK(w, map[string]any{
		"allowed":  true,
		"warnings": decision.Warnings,
		"to":       to,
		"subject":  subject,
		"body":     body,
	})
}

// emailIngestedRequest is the POST /emails/ingested body: the external
// mail-intake collaborator (outside this system's scope) has already
// stored the email and reports its id plus owning thread.
type emailIngestedRequest struct {
	ThreadID int64 `json:"thread_id"`
	EmailID  int64 `json:"email_id"`
}

// HandleEmailIngested answers POST /emails/ingested: scans the new email
// for injection attempts (C2) and advances the owning thread out of
// WAITING_REPLY (C7), the two steps spec.md's data flow places between
// mail intake and security-event logging.
func (h *Handlers) HandleEmailIngested(w http.ResponseWriter, r *http.Request) {
	var req emailIngestedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	var matches []injection.Match
	if h.Scan != nil {
		var err error
		matches, err = h.Scan.ScanAndQuarantine(r.Context(), req.EmailID)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
	}

	if h.Threads != nil {
		// ReplyReceived only applies to a thread already WAITING_REPLY; a
		// first email on a brand-new thread, or another message on one
		// already ACTIVE, is a legitimate no-op here.
		if _, err := h.Threads.ReplyReceived(r.Context(), req.ThreadID); err != nil && !errors.Is(err, threads.ErrInvalidTransition) {
			httputil.InternalError(w, err)
			return
		}
	}

	if h.Notify != nil {
		if len(matches) > 0 {
			severity := domain.Severity(injection.GetMaxSeverity(matches))
			if _, err := h.Notify.NotifySecurityAlert(r.Context(), &req.ThreadID, "injection_detected", matches[0].PatternName, severity); err != nil {
				httputil.InternalError(w, err)
				return
			}
		}
		if h.Emails != nil {
			if email, err := h.Emails.GetEmail(r.Context(), req.EmailID); err == nil && email != nil {
				if _, err := h.Notify.NotifyNewEmail(r.Context(), req.ThreadID, email.Subject, email.FromAddress, email.Urgency); err != nil {
					httputil.InternalError(w, err)
					return
				}
			}
		}
	}

	httputil.OK(w, map[string]any{
		"injection_matches": matches,
	})
}

// addAttachmentRequest is the POST /emails/{id}/attachments body: the
// mail-intake collaborator has already stored the Email row and now
// uploads one attachment's bytes, base64-encoded.
type addAttachmentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// HandleAddAttachment answers POST /emails/{id}/attachments: writes the
// bytes to the blob store and records the metadata against the email,
// the Email entity's "optional attachment list" (spec.md §3).
func (h *Handlers) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	emailID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid email id")
		return
	}
	if h.Attachments == nil || h.Emails == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "attachment storage not configured")
		return
	}

	var req addAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	email, err := h.Emails.GetEmail(r.Context(), emailID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if email == nil {
		httputil.NotFound(w, "email not found")
		return
	}

	blobKey, err := h.Attachments.Put(r.Context(), email.ThreadID, req.Filename, req.ContentType, req.Data)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	a := domain.Attachment{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Data)),
		BlobKey:     blobKey,
	}
	if err := h.Emails.AddAttachment(r.Context(), emailID, a); err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.Created(w, a)
}
