package consent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

// PostgresStore persists consents in the consents table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, consent *domain.Consent) error {
	categories, err := json.Marshal(consent.DataCategories)
	if err != nil {
		return fmt.Errorf("marshal data categories: %w", err)
	}

	query := `
		INSERT INTO consents (
			id, data_subject_id, purpose, data_categories, given,
			consent_date, method, withdrawn, withdrawal_date, version,
			ip_address, user_agent, agent_summary, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			withdrawn = EXCLUDED.withdrawn,
			withdrawal_date = EXCLUDED.withdrawal_date,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		consent.ID, consent.DataSubjectID, consent.Purpose, categories,
		consent.Given, consent.ConsentDate, string(consent.Method),
		consent.Withdrawn, consent.WithdrawalDate, consent.Version,
		consent.Capture.IPAddress, consent.Capture.UserAgent,
		consent.Capture.AgentSummary, consent.CreatedAt, consent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert consent: %w", err)
	}
	return nil
}

const consentColumns = `
	id, data_subject_id, purpose, data_categories, given,
	consent_date, method, withdrawn, withdrawal_date, version,
	ip_address, user_agent, agent_summary, created_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Consent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+consentColumns+` FROM consents WHERE id = $1`, id)
	consent, err := scanConsent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query consent: %w", err)
	}
	return consent, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+consentColumns+` FROM consents WHERE data_subject_id = $1 ORDER BY created_at`,
		subjectID)
	if err != nil {
		return nil, fmt.Errorf("query consents: %w", err)
	}
	defer rows.Close()

	var consents []domain.Consent
	for rows.Next() {
		consent, err := scanConsent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		consents = append(consents, *consent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consents: %w", err)
	}
	return consents, nil
}

func (s *PostgresStore) DeleteBySubject(ctx context.Context, subjectID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM consents WHERE data_subject_id = $1`, subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete consents: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete consents: %w", err)
	}
	return int(affected), nil
}

func scanConsent(scan func(dest ...any) error) (*domain.Consent, error) {
	var (
		consent    domain.Consent
		categories []byte
		method     string
	)
	err := scan(
		&consent.ID, &consent.DataSubjectID, &consent.Purpose, &categories,
		&consent.Given, &consent.ConsentDate, &method, &consent.Withdrawn,
		&consent.WithdrawalDate, &consent.Version,
		&consent.Capture.IPAddress, &consent.Capture.UserAgent,
		&consent.Capture.AgentSummary, &consent.CreatedAt, &consent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	consent.Method = domain.ConsentMethod(method)
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &consent.DataCategories); err != nil {
			return nil, fmt.Errorf("unmarshal data categories: %w", err)
		}
	}
	return &consent, nil
}
