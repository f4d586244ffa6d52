package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdq-screening-server/internal/domain"
)

func setupMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &SQLiteStore{db: db, log: testLogger()}, mock
}

func TestSQLiteStore_SaveAssessment_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assessments")).
		WillReturnError(errors.New("disk I/O error"))

	record := testRecord("subject-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	err := store.SaveAssessment(context.Background(), record)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving assessment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetAssessment_ScansColumns(t *testing.T) {
	store, mock := setupMockStore(t)

	recordedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "subject_id", "recorded_at", "answers", "co_occurrence", "impact"}).
		AddRow("a-1", "subject-1", recordedAt, `{"q1":"yes","q2":"no"}`, true, "serious")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, recorded_at, answers, co_occurrence, impact")).
		WithArgs("a-1").
		WillReturnRows(rows)

	record, err := store.GetAssessment(context.Background(), "a-1")

	require.NoError(t, err)
	assert.Equal(t, "subject-1", record.SubjectID)
	assert.Equal(t, domain.AnswerYes, record.Answers[domain.Q1])
	assert.Equal(t, domain.IMPACT_SERIOUS, record.Impact)
	assert.True(t, record.CoOccurrence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetAssessment_MalformedAnswers(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "recorded_at", "answers", "co_occurrence", "impact"}).
		AddRow("a-1", "subject-1", time.Now(), `not-json`, false, "none")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, recorded_at, answers, co_occurrence, impact")).
		WithArgs("a-1").
		WillReturnRows(rows)

	_, err := store.GetAssessment(context.Background(), "a-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling answers")
}

func TestSQLiteStore_ListAssessments_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, recorded_at, answers, co_occurrence, impact")).
		WillReturnError(errors.New("database is locked"))

	_, err := store.ListAssessments(context.Background(), "subject-1", 30)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing assessments")
}

func TestSQLiteStore_GetAnalysis_MalformedDocument(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"result"}).AddRow(`{"analysis_id":`)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT result FROM analyses")).
		WithArgs("an-1").
		WillReturnRows(rows)

	_, err := store.GetAnalysis(context.Background(), "an-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling analysis")
}

func TestSQLiteStore_CountAssessments_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assessments")).
		WillReturnError(errors.New("database is locked"))

	_, err := store.CountAssessments(context.Background(), "subject-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting assessments")
}
