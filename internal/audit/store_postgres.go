package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"tutela/internal/domain"
)

// PostgresStore persists the trail in the audit_events table. The BIGSERIAL
// seq column is the ordering key; inserts never update existing rows.
// List-valued fields are stored as JSONB so the pgx stdlib driver round-trips
// them without driver-specific array types.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	categories, err := json.Marshal(event.DataCategories)
	if err != nil {
		return fmt.Errorf("marshal data categories: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, data_subject_id, action, purpose, legal_basis,
			data_categories, actor, timestamp, ip_address, user_agent,
			result, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq
	`
	err = s.db.QueryRowContext(ctx, query,
		event.ID,
		event.DataSubjectID,
		event.Action,
		event.Purpose,
		string(event.LegalBasis),
		categories,
		event.Actor,
		event.Timestamp,
		event.IPAddress,
		event.UserAgent,
		string(event.Result),
		details,
	).Scan(&event.Seq)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]domain.AuditEvent, error) {
	var (
		conds []string
		args  []any
	)
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conds = append(conds, fmt.Sprintf("data_subject_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	query := `
		SELECT seq, id, data_subject_id, action, purpose, legal_basis,
			   data_categories, actor, timestamp, ip_address, user_agent,
			   result, details
		FROM audit_events
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var (
			e          domain.AuditEvent
			legalBasis string
			result     string
			categories []byte
			details    []byte
		)
		if err := rows.Scan(
			&e.Seq, &e.ID, &e.DataSubjectID, &e.Action, &e.Purpose,
			&legalBasis, &categories, &e.Actor, &e.Timestamp,
			&e.IPAddress, &e.UserAgent, &result, &details,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.LegalBasis = domain.LegalBasis(legalBasis)
		e.Result = domain.AuditResult(result)
		if len(categories) > 0 {
			if err := json.Unmarshal(categories, &e.DataCategories); err != nil {
				return nil, fmt.Errorf("unmarshal data categories: %w", err)
			}
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
