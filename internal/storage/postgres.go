package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// PostgresStore implements Store using a pgx connection pool. The schema is
// managed by the migration runner, not by this store.
type PostgresStore struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(db *pgxpool.Pool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		log: logger,
	}
}

// SaveAssessment inserts a completed questionnaire record.
func (s *PostgresStore) SaveAssessment(ctx context.Context, record *domain.AnswerRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("marshaling answers: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, subject_id, recorded_at, answers, co_occurrence, impact
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err = s.db.Exec(ctx, query,
		record.ID,
		record.SubjectID,
		record.RecordedAt,
		answers,
		record.CoOccurrence,
		string(record.Impact),
	)

	if err != nil {
		s.log.WithFields(logrus.Fields{
			"assessment_id": record.ID,
			"subject_id":    record.SubjectID,
			"error":         err,
		}).Error("Failed to save assessment")
		return fmt.Errorf("saving assessment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"subject_id":    record.SubjectID,
	}).Info("Assessment saved")

	return nil
}

// GetAssessment retrieves a single assessment by ID.
func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	query := `
		SELECT id, subject_id, recorded_at, answers, co_occurrence, impact
		FROM assessments
		WHERE id = $1`

	record, err := scanAssessmentRow(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment")
		return nil, fmt.Errorf("getting assessment: %w", err)
	}

	return record, nil
}

// ListAssessments returns a subject's assessments ordered newest first.
func (s *PostgresStore) ListAssessments(ctx context.Context, subjectID string, limit int) ([]*domain.AnswerRecord, error) {
	query := `
		SELECT id, subject_id, recorded_at, answers, co_occurrence, impact
		FROM assessments
		WHERE subject_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, subjectID, limit)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"error":      err,
		}).Error("Failed to list assessments")
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnswerRecord
	for rows.Next() {
		record, err := scanAssessmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", err)
	}

	return records, nil
}

// CountAssessments returns the number of assessments for a subject.
func (s *PostgresStore) CountAssessments(ctx context.Context, subjectID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE subject_id = $1`, subjectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting assessments: %w", err)
	}
	return count, nil
}

// SaveAnalysis inserts a generated analysis result. The full result document
// is stored as JSONB alongside the queryable identity columns.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}

	query := `
		INSERT INTO analyses (
			id, subject_id, generated_at, scheme, result
		) VALUES (
			$1, $2, $3, $4, $5
		)`

	_, err = s.db.Exec(ctx, query,
		result.ID,
		result.SubjectID,
		result.GeneratedAt,
		string(result.Scheme),
		doc,
	)

	if err != nil {
		s.log.WithFields(logrus.Fields{
			"analysis_id": result.ID,
			"subject_id":  result.SubjectID,
			"error":       err,
		}).Error("Failed to save analysis")
		return fmt.Errorf("saving analysis: %w", err)
	}

	s.log.WithFields(result.LogFields()).Info("Analysis saved")
	return nil
}

// GetAnalysis retrieves a single analysis by ID.
func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT result FROM analyses WHERE id = $1`, id,
	).Scan(&doc)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"analysis_id": id,
			"error":       err,
		}).Error("Failed to get analysis")
		return nil, fmt.Errorf("getting analysis: %w", err)
	}

	return unmarshalAnalysis(doc)
}

// ListAnalyses returns a subject's analyses ordered newest first.
func (s *PostgresStore) ListAnalyses(ctx context.Context, subjectID string, limit int) ([]*domain.AnalysisResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT result FROM analyses
		WHERE subject_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`, subjectID, limit)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"error":      err,
		}).Error("Failed to list analyses")
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var results []*domain.AnalysisResult
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		result, err := unmarshalAnalysis(doc)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analysis rows: %w", err)
	}

	return results, nil
}

// Health verifies the backend is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessmentRow(row rowScanner) (*domain.AnswerRecord, error) {
	var record domain.AnswerRecord
	var answers []byte
	var impact string

	err := row.Scan(
		&record.ID,
		&record.SubjectID,
		&record.RecordedAt,
		&answers,
		&record.CoOccurrence,
		&impact,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(answers, &record.Answers); err != nil {
		return nil, fmt.Errorf("unmarshaling answers: %w", err)
	}
	record.Impact = domain.FunctionalImpact(impact)

	return &record, nil
}

func unmarshalAnalysis(doc []byte) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis: %w", err)
	}
	return &result, nil
}
