// Package storage persists assessment records and analysis results. Two
// backends implement the Store interface: PostgreSQL for server deployments
// and embedded SQLite for standalone operation.
package storage

import (
	"context"

	"github.com/mdq-screening-server/internal/domain"
)

// Store defines assessment and analysis persistence operations.
type Store interface {
	// SaveAssessment inserts a completed questionnaire record.
	SaveAssessment(ctx context.Context, record *domain.AnswerRecord) error

	// GetAssessment retrieves a single assessment by ID.
	// Returns domain.ErrNotFound if no record exists.
	GetAssessment(ctx context.Context, id string) (*domain.AnswerRecord, error)

	// ListAssessments returns a subject's assessments ordered newest first,
	// capped at limit.
	ListAssessments(ctx context.Context, subjectID string, limit int) ([]*domain.AnswerRecord, error)

	// CountAssessments returns the number of assessments for a subject.
	CountAssessments(ctx context.Context, subjectID string) (int64, error)

	// SaveAnalysis inserts a generated analysis result.
	SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error

	// GetAnalysis retrieves a single analysis by ID.
	// Returns domain.ErrNotFound if no analysis exists.
	GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error)

	// ListAnalyses returns a subject's analyses ordered newest first,
	// capped at limit.
	ListAnalyses(ctx context.Context, subjectID string, limit int) ([]*domain.AnalysisResult, error)

	// Health verifies the backend is reachable.
	Health(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
