package subject

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

// PostgresStore persists data subjects in the data_subjects table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, subject *domain.DataSubject) error {
	categories, err := json.Marshal(subject.DataCategories)
	if err != nil {
		return fmt.Errorf("marshal data categories: %w", err)
	}

	query := `
		INSERT INTO data_subjects (
			id, name, email, document, phone, address, birth_date,
			nationality, consent_given, data_categories, processing_basis,
			retention_days, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			document = EXCLUDED.document,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			birth_date = EXCLUDED.birth_date,
			nationality = EXCLUDED.nationality,
			consent_given = EXCLUDED.consent_given,
			data_categories = EXCLUDED.data_categories,
			processing_basis = EXCLUDED.processing_basis,
			retention_days = EXCLUDED.retention_days,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		subject.ID, subject.Name, subject.Email, subject.Document,
		subject.Phone, subject.Address, subject.BirthDate,
		subject.Nationality, subject.ConsentGiven, categories,
		string(subject.ProcessingBasis), subject.DataRetentionPeriod,
		subject.CreatedAt, subject.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert data subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.DataSubject, error) {
	query := `
		SELECT id, name, email, document, phone, address, birth_date,
			   nationality, consent_given, data_categories, processing_basis,
			   retention_days, created_at, updated_at
		FROM data_subjects
		WHERE id = $1
	`
	var (
		subject    domain.DataSubject
		categories []byte
		basis      string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&subject.ID, &subject.Name, &subject.Email, &subject.Document,
		&subject.Phone, &subject.Address, &subject.BirthDate,
		&subject.Nationality, &subject.ConsentGiven, &categories, &basis,
		&subject.DataRetentionPeriod, &subject.CreatedAt, &subject.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query data subject: %w", err)
	}
	subject.ProcessingBasis = domain.LegalBasis(basis)
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &subject.DataCategories); err != nil {
			return nil, fmt.Errorf("unmarshal data categories: %w", err)
		}
	}
	return &subject, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM data_subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete data subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete data subject: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
