package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mdq-screening-server/internal/domain"
)

// SQLiteStore implements Store using an embedded SQLite database. It creates
// the database file and schema on first open, so standalone deployments need
// no migration step.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Logger
}

// NewSQLiteStore opens or creates the SQLite database at dbPath.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("SQLite store opened")

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		log:    logger,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		recorded_at DATETIME NOT NULL,
		answers TEXT NOT NULL,
		co_occurrence INTEGER NOT NULL DEFAULT 0,
		impact TEXT NOT NULL DEFAULT 'none',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_subject_recorded
		ON assessments(subject_id, recorded_at);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		scheme TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_subject_generated
		ON analyses(subject_id, generated_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveAssessment inserts a completed questionnaire record.
func (s *SQLiteStore) SaveAssessment(ctx context.Context, record *domain.AnswerRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("marshaling answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			id, subject_id, recorded_at, answers, co_occurrence, impact
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.SubjectID,
		record.RecordedAt,
		string(answers),
		record.CoOccurrence,
		string(record.Impact),
	)
	if err != nil {
		return fmt.Errorf("saving assessment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"subject_id":    record.SubjectID,
	}).Debug("Assessment saved")

	return nil
}

// GetAssessment retrieves a single assessment by ID.
func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, recorded_at, answers, co_occurrence, impact
		FROM assessments
		WHERE id = ?
	`, id)

	record, err := scanAssessmentRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting assessment: %w", err)
	}
	return record, nil
}

// ListAssessments returns a subject's assessments ordered newest first.
func (s *SQLiteStore) ListAssessments(ctx context.Context, subjectID string, limit int) ([]*domain.AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, recorded_at, answers, co_occurrence, impact
		FROM assessments
		WHERE subject_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`, subjectID, limit)
	if err != nil {
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
	return records, rows.Err()
}

// CountAssessments returns the number of assessments for a subject.
func (s *SQLiteStore) CountAssessments(ctx context.Context, subjectID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assessments WHERE subject_id = ?", subjectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting assessments: %w", err)
	}
	return count, nil
}

// SaveAnalysis inserts a generated analysis result.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, subject_id, generated_at, scheme, result
		) VALUES (?, ?, ?, ?, ?)
	`,
		result.ID,
		result.SubjectID,
		result.GeneratedAt,
		string(result.Scheme),
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}

	s.log.WithFields(result.LogFields()).Debug("Analysis saved")
	return nil
}

// GetAnalysis retrieves a single analysis by ID.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT result FROM analyses WHERE id = ?", id,
	).Scan(&doc)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}

	return unmarshalAnalysis(doc)
}

// ListAnalyses returns a subject's analyses ordered newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, subjectID string, limit int) ([]*domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT result FROM analyses
		WHERE subject_id = ?
		ORDER BY generated_at DESC
		LIMIT ?
	`, subjectID, limit)
	if err != nil {
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
	return results, rows.Err()
}

// Health verifies the database is reachable.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
