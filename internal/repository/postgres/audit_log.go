package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/ghostpost/internal/domain"
)

// AuditLogRepo implements audit.ActionRepository.
type AuditLogRepo struct{ db *sql.DB }

// NewAuditLogRepo builds an AuditLogRepo backed by db.
func NewAuditLogRepo(db *sql.DB) *AuditLogRepo { return &AuditLogRepo{db: db} }

// InsertAuditLog persists a, assigning a.ID and a.CreatedAt from the
// generated key.
func (r *AuditLogRepo) InsertAuditLog(ctx context.Context, a *domain.AuditLog) error {
	metadataRaw, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit log metadata: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (actor, action_type, subject_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, a.Actor, a.ActionType, a.SubjectID, metadataRaw).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
