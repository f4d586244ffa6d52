// Package service orchestrates assessment intake and analysis generation
// across storage, caching and the scoring pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/assessment"
	"github.com/mdq-screening-server/internal/cache"
	"github.com/mdq-screening-server/internal/domain"
	"github.com/mdq-screening-server/internal/storage"
)

// ScreeningService is the application service behind the HTTP API. It owns
// the submit-assessment and get-analysis flows.
type ScreeningService struct {
	store        storage.Store
	cache        *cache.AnalysisCache
	analyzer     *assessment.Analyzer
	historyLimit int
	logger       *logrus.Logger

	now   func() time.Time
	newID func() string
}

// Config holds service construction settings.
type Config struct {
	// Scheme selects the scoring scheme for all analyses.
	Scheme domain.SchemeKind
	// HistoryLimit caps how many assessments feed trend analysis.
	HistoryLimit int
}

// NewScreeningService creates the screening service. analysisCache may be
// nil to disable caching.
func NewScreeningService(config Config, store storage.Store, analysisCache *cache.AnalysisCache, logger *logrus.Logger) (*ScreeningService, error) {
	analyzer, err := assessment.NewAnalyzer(config.Scheme, logger)
	if err != nil {
		return nil, err
	}

	historyLimit := config.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 30
	}

	return &ScreeningService{
		store:        store,
		cache:        analysisCache,
		analyzer:     analyzer,
		historyLimit: historyLimit,
		logger:       logger,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}, nil
}

// Scheme returns the scoring scheme in use.
func (s *ScreeningService) Scheme() *domain.ScoringScheme {
	return s.analyzer.Scheme()
}

// SubmitAssessment validates and persists a questionnaire record. Missing ID
// and timestamp are filled in, and the subject's cached analysis is dropped
// so the next read reflects the new data.
func (s *ScreeningService) SubmitAssessment(ctx context.Context, record *domain.AnswerRecord) (*domain.AnswerRecord, error) {
	if record == nil {
		return nil, domain.ErrInvalidAssessment
	}
	if record.ID == "" {
		record.ID = s.newID()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = s.now()
	}
	if record.Impact == "" {
		record.Impact = domain.IMPACT_NONE
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveAssessment(ctx, record); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, record.SubjectID)
	}

	s.logger.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"subject_id":    record.SubjectID,
	}).Info("Assessment submitted")

	return record, nil
}

// GetAssessment returns a single assessment by ID.
func (s *ScreeningService) GetAssessment(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	return s.store.GetAssessment(ctx, id)
}

// ListAssessments returns a subject's assessment history, newest first.
func (s *ScreeningService) ListAssessments(ctx context.Context, subjectID string) ([]*domain.AnswerRecord, error) {
	if subjectID == "" {
		return nil, domain.ErrInvalidSubjectID
	}
	return s.store.ListAssessments(ctx, subjectID, s.historyLimit)
}

// AnalyzeSubject returns the subject's current analysis, serving from cache
// when possible. A fresh analysis is persisted before it is returned. The
// second return value reports whether the result came from cache.
func (s *ScreeningService) AnalyzeSubject(ctx context.Context, subjectID string) (*domain.AnalysisResult, bool, error) {
	if subjectID == "" {
		return nil, false, domain.ErrInvalidSubjectID
	}

	if s.cache != nil {
		if cached := s.cache.Get(ctx, subjectID); cached != nil {
			return cached, true, nil
		}
	}

	history, err := s.store.ListAssessments(ctx, subjectID, s.historyLimit)
	if err != nil {
		return nil, false, fmt.Errorf("loading assessment history: %w", err)
	}

	result := s.analyzer.Analyze(ctx, subjectID, history)

	if err := s.store.SaveAnalysis(ctx, result); err != nil {
		// The analysis itself is still valid; persistence is best effort.
		s.logger.WithError(err).WithField("subject_id", subjectID).
			Warn("Failed to persist analysis")
	}

	if s.cache != nil {
		s.cache.Set(ctx, subjectID, result)
	}

	return result, false, nil
}

// GetAnalysis returns a previously generated analysis by ID.
func (s *ScreeningService) GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	return s.store.GetAnalysis(ctx, id)
}

// ListAnalyses returns a subject's analysis history, newest first.
func (s *ScreeningService) ListAnalyses(ctx context.Context, subjectID string) ([]*domain.AnalysisResult, error) {
	if subjectID == "" {
		return nil, domain.ErrInvalidSubjectID
	}
	return s.store.ListAnalyses(ctx, subjectID, s.historyLimit)
}

// CacheStats returns cache counters, or zero stats when caching is disabled.
func (s *ScreeningService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.GetStats()
}

// Health checks the storage backend.
func (s *ScreeningService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
