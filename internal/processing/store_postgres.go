package processing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

// PostgresStore persists activities in the processing_activities table.
// String lists are stored as JSONB so subject references can be queried
// with the containment operator.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, activity *domain.ProcessingActivity) error {
	lists, err := marshalLists(activity)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO processing_activities (
			id, purpose, legal_basis, data_categories, data_subjects,
			retention_period, security_measures, third_party_sharing,
			third_parties, cross_border_transfer, transfer_countries,
			protection_contact, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			purpose = EXCLUDED.purpose,
			legal_basis = EXCLUDED.legal_basis,
			data_categories = EXCLUDED.data_categories,
			data_subjects = EXCLUDED.data_subjects,
			retention_period = EXCLUDED.retention_period,
			security_measures = EXCLUDED.security_measures,
			third_party_sharing = EXCLUDED.third_party_sharing,
			third_parties = EXCLUDED.third_parties,
			cross_border_transfer = EXCLUDED.cross_border_transfer,
			transfer_countries = EXCLUDED.transfer_countries,
			protection_contact = EXCLUDED.protection_contact,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		activity.ID, activity.Purpose, string(activity.LegalBasis),
		lists.categories, lists.subjects, activity.RetentionPeriod,
		lists.measures, activity.ThirdPartySharing, lists.thirdParties,
		activity.CrossBorderTransfer, lists.countries,
		activity.ProtectionContact, activity.CreatedAt, activity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert processing activity: %w", err)
	}
	return nil
}

const activityColumns = `
	id, purpose, legal_basis, data_categories, data_subjects,
	retention_period, security_measures, third_party_sharing,
	third_parties, cross_border_transfer, transfer_countries,
	protection_contact, created_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.ProcessingActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM processing_activities WHERE id = $1`
	activity, err := scanActivity(s.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find processing activity: %w", err)
	}
	return activity, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.ProcessingActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM processing_activities ORDER BY created_at`
	return s.queryActivities(ctx, query)
}

func (s *PostgresStore) ListReferencing(ctx context.Context, subjectID string) ([]domain.ProcessingActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM processing_activities
		WHERE data_subjects @> to_jsonb($1::text)
		ORDER BY created_at
	`
	return s.queryActivities(ctx, query, subjectID)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processing_activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete processing activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete processing activity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) queryActivities(ctx context.Context, query string, args ...any) ([]domain.ProcessingActivity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processing activities: %w", err)
	}
	defer rows.Close()

	var out []domain.ProcessingActivity
	for rows.Next() {
		activity, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan processing activity: %w", err)
		}
		out = append(out, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processing activities: %w", err)
	}
	return out, nil
}

type activityLists struct {
	categories   []byte
	subjects     []byte
	measures     []byte
	thirdParties []byte
	countries    []byte
}

func marshalLists(activity *domain.ProcessingActivity) (activityLists, error) {
	var lists activityLists
	var err error
	if lists.categories, err = json.Marshal(activity.DataCategories); err != nil {
		return lists, fmt.Errorf("marshal data categories: %w", err)
	}
	if lists.subjects, err = json.Marshal(activity.DataSubjects); err != nil {
		return lists, fmt.Errorf("marshal data subjects: %w", err)
	}
	if lists.measures, err = json.Marshal(activity.SecurityMeasures); err != nil {
		return lists, fmt.Errorf("marshal security measures: %w", err)
	}
	if lists.thirdParties, err = json.Marshal(activity.ThirdParties); err != nil {
		return lists, fmt.Errorf("marshal third parties: %w", err)
	}
	if lists.countries, err = json.Marshal(activity.TransferCountries); err != nil {
		return lists, fmt.Errorf("marshal transfer countries: %w", err)
	}
	return lists, nil
}

func scanActivity(scan func(dest ...any) error) (*domain.ProcessingActivity, error) {
	var (
		activity     domain.ProcessingActivity
		basis        string
		categories   []byte
		subjects     []byte
		measures     []byte
		thirdParties []byte
		countries    []byte
	)
	err := scan(
		&activity.ID, &activity.Purpose, &basis, &categories, &subjects,
		&activity.RetentionPeriod, &measures, &activity.ThirdPartySharing,
		&thirdParties, &activity.CrossBorderTransfer, &countries,
		&activity.ProtectionContact, &activity.CreatedAt, &activity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	activity.LegalBasis = domain.LegalBasis(basis)
	for _, col := range []struct {
		raw  []byte
		dest *[]string
	}{
		{categories, &activity.DataCategories},
		{subjects, &activity.DataSubjects},
		{measures, &activity.SecurityMeasures},
		{thirdParties, &activity.ThirdParties},
		{countries, &activity.TransferCountries},
	} {
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("unmarshal list column: %w", err)
		}
	}
	return &activity, nil
}
