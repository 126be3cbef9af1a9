package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/ghostpost/internal/domain"
)

// ThreadRepo implements every thread-side repository interface the core
// packages define (threads.Repository, triage/brief/composer/contextfiles'
// ThreadRepository, sendgate.ThreadLoader) against one threads table plus
// its owned emails table.
type ThreadRepo struct{ db *sql.DB }

// NewThreadRepo builds a ThreadRepo backed by db.
func NewThreadRepo(db *sql.DB) *ThreadRepo { return &ThreadRepo{db: db} }

const threadColumns = `id, subject, state, priority, category, summary, goal, acceptance_criteria,
	goal_status, playbook, auto_reply_mode, follow_up_interval_days, next_follow_up_at,
	security_score_avg, last_activity_at, notes`

func scanThread(row interface{ Scan(...any) error }) (*domain.Thread, error) {
	var t domain.Thread
	var category, summary, goal, acceptance, goalStatus, playbook, notes sql.NullString
	var nextFollowUp sql.NullTime

	if err := row.Scan(
		&t.ID, &t.Subject, &t.State, &t.Priority, &category, &summary, &goal, &acceptance,
		&goalStatus, &playbook, &t.AutoReplyMode, &t.FollowUpIntervalDays, &nextFollowUp,
		&t.SecurityScoreAvg, &t.LastActivityAt, &notes,
	); err != nil {
		return nil, err
	}

	t.Category = category.String
	t.Summary = summary.String
	t.Goal = goal.String
	t.AcceptanceCriteria = acceptance.String
	t.GoalStatus = domain.GoalStatus(goalStatus.String)
	t.Playbook = playbook.String
	t.Notes = notes.String
	if nextFollowUp.Valid {
		v := nextFollowUp.Time
		t.NextFollowUpAt = &v
	}
	return &t, nil
}

// GetThread returns (nil, nil) when id is unknown, per threads.Repository's
// contract.
func (r *ThreadRepo) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE id = $1`, id)
	t, err := scanThread(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return t, nil
}

// UpdateThread persists every mutable field the state machine and triage
// pipeline touch.
func (r *ThreadRepo) UpdateThread(ctx context.Context, t *domain.Thread) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE threads SET
			subject = $2, state = $3, priority = $4, category = $5, summary = $6,
			goal = $7, acceptance_criteria = $8, goal_status = $9, playbook = $10,
			auto_reply_mode = $11, follow_up_interval_days = $12, next_follow_up_at = $13,
			security_score_avg = $14, last_activity_at = $15, notes = $16
		WHERE id = $1
	`, t.ID, t.Subject, t.State, t.Priority, t.Category, t.Summary,
		t.Goal, t.AcceptanceCriteria, string(t.GoalStatus),
		t.Playbook, t.AutoReplyMode, t.FollowUpIntervalDays, t.NextFollowUpAt,
		t.SecurityScoreAvg, t.LastActivityAt, t.Notes)
	if err != nil {
		return fmt.Errorf("update thread: %w", err)
	}
	return nil
}

// ListWaitingReplyOverdue feeds the follow-up scheduler.
func (r *ThreadRepo) ListWaitingReplyOverdue(ctx context.Context, now time.Time) ([]*domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state = $1 AND next_follow_up_at IS NOT NULL AND next_follow_up_at <= $2
		ORDER BY next_follow_up_at ASC
	`, domain.ThreadWaitingReply, now)
	if err != nil {
		return nil, fmt.Errorf("list waiting-reply overdue: %w", err)
	}
	defer rows.Close()

	var out []*domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountByState groups threads by their lifecycle state.
func (r *ThreadRepo) CountByState(ctx context.Context) (map[domain.ThreadState]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM threads GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count threads by state: %w", err)
	}
	defer rows.Close()

	out := map[domain.ThreadState]int{}
	for rows.Next() {
		var state domain.ThreadState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		out[state] = n
	}
	return out, rows.Err()
}

// CountUnread and CountUnreadEmails both count unread emails across every
// thread; triage and the projector share the same underlying query.
func (r *ThreadRepo) CountUnread(ctx context.Context) (int, error) {
	return r.countUnreadEmails(ctx)
}

func (r *ThreadRepo) CountUnreadEmails(ctx context.Context) (int, error) {
	return r.countUnreadEmails(ctx)
}

func (r *ThreadRepo) countUnreadEmails(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails WHERE read = false`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread emails: %w", err)
	}
	return n, nil
}

// ListOverdue returns WAITING_REPLY/FOLLOW_UP threads whose next follow-up
// has passed, oldest-deadline-first.
func (r *ThreadRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state IN ($1, $2) AND next_follow_up_at IS NOT NULL AND next_follow_up_at <= $3
		ORDER BY next_follow_up_at ASC
	`, domain.ThreadWaitingReply, domain.ThreadFollowUp, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue threads: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// ListNew returns NEW threads, most-recent-activity-first.
func (r *ThreadRepo) ListNew(ctx context.Context, limit int) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state = $1
		ORDER BY last_activity_at DESC
		LIMIT $2
	`, domain.ThreadNew, limit)
	if err != nil {
		return nil, fmt.Errorf("list new threads: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// ListActiveGoalInProgress returns ACTIVE threads with a set goal still in
// progress.
func (r *ThreadRepo) ListActiveGoalInProgress(ctx context.Context, limit int) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state = $1 AND goal <> '' AND goal_status = $2
		ORDER BY last_activity_at DESC
		LIMIT $3
	`, domain.ThreadActive, domain.GoalInProgress, limit)
	if err != nil {
		return nil, fmt.Errorf("list active goal-in-progress threads: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// LastSyncAt returns the most recent email's received_at across every
// thread, nil if there are no emails yet.
func (r *ThreadRepo) LastSyncAt(ctx context.Context) (*time.Time, error) {
	var t sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(received_at) FROM emails`).Scan(&t)
	if err != nil {
		return nil, fmt.Errorf("last sync at: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// ListNeedsAttention returns non-archived threads with priority
// critical/high or an overdue follow-up, priority desc then follow-up-date
// asc.
func (r *ThreadRepo) ListNeedsAttention(ctx context.Context, now time.Time, limit int) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state <> $1 AND (
			priority IN ($2, $3)
			OR (next_follow_up_at IS NOT NULL AND next_follow_up_at <= $4)
		)
		ORDER BY
			CASE priority
				WHEN 'critical' THEN 3
				WHEN 'high' THEN 2
				WHEN 'normal' THEN 1
				ELSE 0
			END DESC,
			next_follow_up_at ASC NULLS LAST
		LIMIT $5
	`, domain.ThreadArchived, domain.PriorityCritical, domain.PriorityHigh, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list needs-attention threads: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// ListGoalInProgress returns threads with goal_status = in_progress,
// most-recently-active first.
func (r *ThreadRepo) ListGoalInProgress(ctx context.Context) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE goal_status = $1
		ORDER BY last_activity_at DESC
	`, domain.GoalInProgress)
	if err != nil {
		return nil, fmt.Errorf("list goal-in-progress threads: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// ListWithGoal returns every thread with a goal set, most-recently-active
// first.
func (r *ThreadRepo) ListWithGoal(ctx context.Context) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE goal <> ''
		ORDER BY last_activity_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list threads with goal: %w", err)
	}
	defer rows.Close()
	return scanThreadRows(rows)
}

// ListNonArchived returns non-archived threads with emails loaded,
// most-recently-active first, capped at limit.
func (r *ThreadRepo) ListNonArchived(ctx context.Context, limit int) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE state <> $1
		ORDER BY last_activity_at DESC
		LIMIT $2
	`, domain.ThreadArchived, limit)
	if err != nil {
		return nil, fmt.Errorf("list non-archived threads: %w", err)
	}
	defer rows.Close()
	threads, err := scanThreadRows(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachEmails(ctx, threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// ListAllWithEmails returns every thread, any state, with emails loaded.
func (r *ThreadRepo) ListAllWithEmails(ctx context.Context) ([]domain.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+threadColumns+` FROM threads ORDER BY last_activity_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all threads: %w", err)
	}
	defer rows.Close()
	threads, err := scanThreadRows(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachEmails(ctx, threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// GetWithEmails loads a single thread with its emails, ordered per
// domain.Email.Date().
func (r *ThreadRepo) GetWithEmails(ctx context.Context, id int64) (*domain.Thread, error) {
	t, err := r.GetThread(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	emails, err := r.loadEmails(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	t.Emails = emails[id]
	return t, nil
}

func (r *ThreadRepo) attachEmails(ctx context.Context, threads []domain.Thread) error {
	if len(threads) == 0 {
		return nil
	}
	ids := make([]int64, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	byThread, err := r.loadEmails(ctx, ids)
	if err != nil {
		return err
	}
	for i := range threads {
		threads[i].Emails = byThread[threads[i].ID]
	}
	return nil
}

const emailColumns = `id, thread_id, from_address, to_addresses, body_plain, body_html, subject,
	sent, read, received_at, sent_date, created_at, sentiment, urgency, action_required, security_score`

// loadEmails fetches every email belonging to any of threadIDs, grouped by
// thread and ordered by the coalesced send/receive timestamp (spec.md
// §4.C12's ordering rule).
func (r *ThreadRepo) loadEmails(ctx context.Context, threadIDs []int64) (map[int64][]domain.Email, error) {
	if len(threadIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+emailColumns+` FROM emails
		WHERE thread_id = ANY($1)
		ORDER BY thread_id, COALESCE(sent_date, received_at, created_at) ASC
	`, pq.Array(threadIDs))
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}
	defer rows.Close()

	out := map[int64][]domain.Email{}
	for rows.Next() {
		var e domain.Email
		var toRaw []byte
		var sentDate sql.NullTime
		var sentiment, urgency sql.NullString
		var securityScore sql.NullFloat64

		if err := rows.Scan(
			&e.ID, &e.ThreadID, &e.FromAddress, &toRaw, &e.BodyPlain, &e.BodyHTML, &e.Subject,
			&e.Sent, &e.Read, &e.ReceivedAt, &sentDate, &e.CreatedAt,
			&sentiment, &urgency, &e.ActionRequired, &securityScore,
		); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}

		if len(toRaw) > 0 {
			if err := json.Unmarshal(toRaw, &e.ToAddresses); err != nil {
				return nil, fmt.Errorf("unmarshal to_addresses: %w", err)
			}
		}
		if sentDate.Valid {
			v := sentDate.Time
			e.SentDate = &v
		}
		e.Sentiment = sentiment.String
		e.Urgency = urgency.String
		if securityScore.Valid {
			v := securityScore.Float64
			e.SecurityScore = &v
		}

		out[e.ThreadID] = append(out[e.ThreadID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var emailIDs []int64
	for _, emails := range out {
		for _, e := range emails {
			emailIDs = append(emailIDs, e.ID)
		}
	}
	byEmail, err := r.loadAttachments(ctx, emailIDs)
	if err != nil {
		return nil, err
	}
	for threadID, emails := range out {
		for i := range emails {
			emails[i].Attachments = byEmail[emails[i].ID]
		}
		out[threadID] = emails
	}

	return out, nil
}

// loadAttachments fetches every attachment row belonging to any of
// emailIDs, grouped by email id.
func (r *ThreadRepo) loadAttachments(ctx context.Context, emailIDs []int64) (map[int64][]domain.Attachment, error) {
	if len(emailIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT email_id, filename, content_type, size_bytes, blob_key
		FROM attachments
		WHERE email_id = ANY($1)
	`, pq.Array(emailIDs))
	if err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	defer rows.Close()

	out := map[int64][]domain.Attachment{}
	for rows.Next() {
		var emailID int64
		var a domain.Attachment
		if err := rows.Scan(&emailID, &a.Filename, &a.ContentType, &a.SizeBytes, &a.BlobKey); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out[emailID] = append(out[emailID], a)
	}
	return out, rows.Err()
}

// AddAttachment records one attachment's metadata against an already
// persisted email, after its bytes have been written to the blob store.
func (r *ThreadRepo) AddAttachment(ctx context.Context, emailID int64, a domain.Attachment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attachments (email_id, filename, content_type, size_bytes, blob_key)
		VALUES ($1, $2, $3, $4, $5)
	`, emailID, a.Filename, a.ContentType, a.SizeBytes, a.BlobKey)
	if err != nil {
		return fmt.Errorf("add attachment to email %d: %w", emailID, err)
	}
	return nil
}

// GetEmail fetches a single email by id. A missing id returns (nil, nil),
// matching GetThread's not-found convention.
func (r *ThreadRepo) GetEmail(ctx context.Context, id int64) (*domain.Email, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = $1`, id)

	var e domain.Email
	var toRaw []byte
	var sentDate sql.NullTime
	var sentiment, urgency sql.NullString
	var securityScore sql.NullFloat64

	err := row.Scan(
		&e.ID, &e.ThreadID, &e.FromAddress, &toRaw, &e.BodyPlain, &e.BodyHTML, &e.Subject,
		&e.Sent, &e.Read, &e.ReceivedAt, &sentDate, &e.CreatedAt,
		&sentiment, &urgency, &e.ActionRequired, &securityScore,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get email %d: %w", id, err)
	}

	if len(toRaw) > 0 {
		if err := json.Unmarshal(toRaw, &e.ToAddresses); err != nil {
			return nil, fmt.Errorf("unmarshal to_addresses: %w", err)
		}
	}
	if sentDate.Valid {
		v := sentDate.Time
		e.SentDate = &v
	}
	e.Sentiment = sentiment.String
	e.Urgency = urgency.String
	if securityScore.Valid {
		v := securityScore.Float64
		e.SecurityScore = &v
	}

	byEmail, err := r.loadAttachments(ctx, []int64{e.ID})
	if err != nil {
		return nil, err
	}
	e.Attachments = byEmail[e.ID]

	return &e, nil
}

func scanThreadRows(rows *sql.Rows) ([]domain.Thread, error) {
	var out []domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
