package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/schedule"
)

// Subject repository errors.
var (
	ErrSubjectNotFound      = fmt.Errorf("%w in store", models.ErrNotFound)
	ErrSubjectAlreadyExists = errors.New("subject with this id already exists")
)

const subjectColumns = `id, name, cpf, active, last_verified_date, verify_frequency_in_days`

// SubjectRepository handles subject persistence. Subjects are listed in
// insertion order.
type SubjectRepository struct {
	db *DB
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(db *DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a subject, assigning an id when it has none.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.New().String()
	}
	if err := validateForStore(subject); err != nil {
		return err
	}

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		position, err := nextPosition(ctx, tx)
		if err != nil {
			return err
		}
		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subjects (
				id, position, name, cpf, active, last_verified_date,
				verify_frequency_in_days, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			subject.ID, position, subject.Name, subject.CPF, boolToInt(subject.Active),
			subject.LastVerifiedDate, subject.VerifyFrequencyInDays, now, now,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return ErrSubjectAlreadyExists
			}
			return fmt.Errorf("failed to insert subject: %w", err)
		}
		return nil
	})
}

// Upsert inserts or replaces every subject in one transaction. Existing rows
// keep their position. It returns the subjects as stored, ids filled in.
func (r *SubjectRepository) Upsert(ctx context.Context, subjects []models.Subject) ([]models.Subject, error) {
	out := models.CloneSubjects(subjects)
	validation := &models.ValidationErrors{}
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.New().String()
		}
		if err := validateForStore(&out[i]); err != nil {
			validation.Add(fmt.Sprintf("[%d]", i), err)
		}
	}
	if err := validation.Err(); err != nil {
		return nil, err
	}

	err := r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		position, err := nextPosition(ctx, tx)
		if err != nil {
			return err
		}
		now := time.Now().UTC().Format(time.RFC3339)
		for _, s := range out {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO subjects (
					id, position, name, cpf, active, last_verified_date,
					verify_frequency_in_days, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					cpf = excluded.cpf,
					active = excluded.active,
					last_verified_date = excluded.last_verified_date,
					verify_frequency_in_days = excluded.verify_frequency_in_days,
					updated_at = excluded.updated_at
			`,
				s.ID, position, s.Name, s.CPF, boolToInt(s.Active),
				s.LastVerifiedDate, s.VerifyFrequencyInDays, now, now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert subject %s: %w", s.ID, err)
			}
			position++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get retrieves a subject by id.
func (r *SubjectRepository) Get(ctx context.Context, id string) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
	subject, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return subject, nil
}

// List retrieves every subject in insertion order.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subjectColumns+` FROM subjects ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, *subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}
	return subjects, nil
}

// UpdateLastVerified stores a new visit date and returns the updated subject.
func (r *SubjectRepository) UpdateLastVerified(ctx context.Context, id, date string) (*models.Subject, error) {
	if _, err := schedule.Parse(date, nil); err != nil {
		return nil, err
	}

	var updated *models.Subject
	err := r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE subjects SET last_verified_date = ?, updated_at = ? WHERE id = ?
		`, date, time.Now().UTC().Format(time.RFC3339), id)
		if err != nil {
			return fmt.Errorf("failed to update subject: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n == 0 {
			return ErrSubjectNotFound
		}

		row := tx.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
		updated, err = scanSubject(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrSubjectNotFound
	}
	return nil
}

// Count returns the number of stored subjects.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subjects: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*models.Subject, error) {
	var (
		s      models.Subject
		active int
	)
	if err := row.Scan(&s.ID, &s.Name, &s.CPF, &active, &s.LastVerifiedDate, &s.VerifyFrequencyInDays); err != nil {
		return nil, err
	}
	s.Active = active != 0
	return &s, nil
}

func nextPosition(ctx context.Context, tx *sql.Tx) (int, error) {
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM subjects`).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read subject position: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

// validateForStore is the ingestion check: structural fields plus a parseable
// last verified date.
func validateForStore(s *models.Subject) error {
	validation := &models.ValidationErrors{}
	if err := s.Validate(); err != nil {
		validation.Add("", err)
	}
	if _, err := schedule.Parse(s.LastVerifiedDate, nil); err != nil {
		validation.Add("last_verified_date", err)
	}
	return validation.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
