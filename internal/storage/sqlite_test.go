package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdq-screening-server/internal/domain"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := NewSQLiteStore(dbPath, testLogger())

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGetAssessment(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	record := testRecord("subject-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	err := store.SaveAssessment(ctx, record)
	require.NoError(t, err)

	retrieved, err := store.GetAssessment(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, retrieved.ID)
	assert.Equal(t, record.SubjectID, retrieved.SubjectID)
	assert.Equal(t, record.Answers, retrieved.Answers)
	assert.True(t, retrieved.CoOccurrence)
	assert.Equal(t, domain.IMPACT_MODERATE, retrieved.Impact)
	assert.True(t, record.RecordedAt.Equal(retrieved.RecordedAt))
}

func TestSQLiteStore_SaveAssessment_Invalid(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	record := testRecord("", time.Now())
	err := store.SaveAssessment(ctx, record)
	assert.ErrorIs(t, err, domain.ErrInvalidSubjectID)

	record = testRecord("subject-1", time.Time{})
	err = store.SaveAssessment(ctx, record)
	assert.ErrorIs(t, err, domain.ErrInvalidAssessment)
}

func TestSQLiteStore_GetAssessment_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetAssessment(context.Background(), "missing-id")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ListAssessments_NewestFirst(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		record := testRecord("subject-1", base.AddDate(0, 0, i*7))
		require.NoError(t, store.SaveAssessment(ctx, record))
	}
	// Another subject's record must not leak into the listing.
	require.NoError(t, store.SaveAssessment(ctx, testRecord("subject-2", base)))

	records, err := store.ListAssessments(ctx, "subject-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 4)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].RecordedAt.After(records[i].RecordedAt),
			"records must be ordered newest first")
	}
}

func TestSQLiteStore_ListAssessments_Limit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveAssessment(ctx, testRecord("subject-1", base.AddDate(0, 0, i))))
	}

	records, err := store.ListAssessments(ctx, "subject-1", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	// The cap keeps the newest records.
	assert.True(t, records[0].RecordedAt.Equal(base.AddDate(0, 0, 4)))
}

func TestSQLiteStore_CountAssessments(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveAssessment(ctx, testRecord("subject-1", base.AddDate(0, 0, i))))
	}

	count, err := store.CountAssessments(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.CountAssessments(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_SaveAndGetAnalysis(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	result := testAnalysis("subject-1", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	err := store.SaveAnalysis(ctx, result)
	require.NoError(t, err)

	retrieved, err := store.GetAnalysis(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, retrieved.ID)
	assert.Equal(t, result.SubjectID, retrieved.SubjectID)
	assert.Equal(t, domain.BINARY, retrieved.Scheme)
	assert.Equal(t, domain.MODERATE_POSITIVE, retrieved.Classification.Severity)
	assert.Equal(t, result.Recommendations.Recommendations, retrieved.Recommendations.Recommendations)
}

func TestSQLiteStore_GetAnalysis_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetAnalysis(context.Background(), "missing-id")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ListAnalyses(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveAnalysis(ctx, testAnalysis("subject-1", base.AddDate(0, 0, i))))
	}

	results, err := store.ListAnalyses(ctx, "subject-1", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].GeneratedAt.After(results[1].GeneratedAt))
}

func TestSQLiteStore_Health(t *testing.T) {
	store := createTestStore(t)

	assert.NoError(t, store.Health(context.Background()))
}

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, testLogger())
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRecord(subjectID string, recordedAt time.Time) *domain.AnswerRecord {
	return &domain.AnswerRecord{
		ID:         uuidString(recordedAt, subjectID),
		SubjectID:  subjectID,
		RecordedAt: recordedAt,
		Answers: map[domain.QuestionID]string{
			domain.Q1: domain.AnswerYes,
			domain.Q2: domain.AnswerNo,
			domain.Q3: domain.AnswerYes,
		},
		CoOccurrence: true,
		Impact:       domain.IMPACT_MODERATE,
	}
}

func testAnalysis(subjectID string, generatedAt time.Time) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ID:          uuidString(generatedAt, subjectID+"-analysis"),
		SubjectID:   subjectID,
		GeneratedAt: generatedAt,
		Scheme:      domain.BINARY,
		Classification: domain.Classification{
			Severity:       domain.MODERATE_POSITIVE,
			MDQResult:      domain.MDQ_POSITIVE_MODERATE,
			RiskPercentage: 62.5,
		},
		Trend: domain.TrendSummary{
			Trend:      domain.STABLE,
			Confidence: 0.5,
			DataPoints: 1,
		},
		Recommendations: domain.RecommendationBundle{
			Recommendations: []string{"Psychiatric evaluation recommended within one week"},
			MonitoringDays:  3,
		},
	}
}

// uuidString derives a unique, deterministic ID for test fixtures.
func uuidString(t time.Time, salt string) string {
	return salt + "-" + t.UTC().Format("20060102T150405")
}
