package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdq-screening-server/internal/domain"
)

func newTestAnalyzer(t *testing.T, kind domain.SchemeKind) *Analyzer {
	t.Helper()
	analyzer, err := NewAnalyzer(kind, testLogger())
	require.NoError(t, err)
	analyzer.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	analyzer.newID = func() string { return "analysis-fixed" }
	return analyzer
}

// historyOf builds an assessment history newest-first, spacing records ten
// days apart; builders are given oldest-first.
func historyOf(records ...*domain.AnswerRecord) []*domain.AnswerRecord {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*domain.AnswerRecord, len(records))
	for i, r := range records {
		r.RecordedAt = start.AddDate(0, 0, i*10)
		out[len(records)-1-i] = r
	}
	return out
}

func TestNewAnalyzer_UnknownScheme(t *testing.T) {
	_, err := NewAnalyzer(domain.SchemeKind("ternary"), testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidScheme)
}

func TestAnalyzer_Analyze_EmptyHistory(t *testing.T) {
	for _, kind := range []domain.SchemeKind{domain.BINARY, domain.FIVE_LEVEL} {
		t.Run(kind.String(), func(t *testing.T) {
			analyzer := newTestAnalyzer(t, kind)
			result := analyzer.Analyze(context.Background(), "subject-1", nil)

			require.NotNil(t, result)
			assert.Equal(t, analyzer.Scheme().LeastSevere(), result.Classification.Severity)
			assert.Equal(t, domain.STABLE, result.Trend.Trend)
			assert.InDelta(t, 0.5, result.Trend.Confidence, 0.001)
			assert.False(t, result.Recommendations.Emergency)
			assert.Equal(t, 30, result.Recommendations.MonitoringDays)
			assert.True(t, result.Treatment.InsufficientData)
			assert.Contains(t, result.Recommendations.Recommendations[0], "Insufficient data")
			assert.Contains(t, result.Improvement.RiskFactors, "No assessment data available")
		})
	}
}

func TestAnalyzer_Analyze_Deterministic(t *testing.T) {
	analyzer := newTestAnalyzer(t, domain.FIVE_LEVEL)
	history := historyOf(
		answerAll(domain.AnswerOften, true, domain.IMPACT_MODERATE),
		answerAll(domain.AnswerSometimes, true, domain.IMPACT_MODERATE),
		answerAll(domain.AnswerRarely, false, domain.IMPACT_MINOR),
	)

	first := analyzer.Analyze(context.Background(), "subject-1", history)
	second := analyzer.Analyze(context.Background(), "subject-1", history)
	assert.Equal(t, first, second)
}

func TestAnalyzer_Analyze_BinaryEndToEnd(t *testing.T) {
	analyzer := newTestAnalyzer(t, domain.BINARY)
	coreSeven := []domain.QuestionID{domain.Q1, domain.Q2, domain.Q3, domain.Q4, domain.Q5, domain.Q6, domain.Q7}

	history := historyOf(
		answerAll(domain.AnswerYes, true, domain.IMPACT_SERIOUS),
		answerSome(domain.AnswerYes, coreSeven, true, domain.IMPACT_MODERATE),
	)

	result := analyzer.Analyze(context.Background(), "subject-1", history)

	require.NotNil(t, result.Scored)
	assert.Equal(t, 7, result.Scored.TotalScore)
	assert.Equal(t, domain.MDQ_POSITIVE_MODERATE, result.Classification.MDQResult)
	assert.Equal(t, domain.MODERATE_POSITIVE, result.Classification.Severity)
	assert.Equal(t, 3, result.Recommendations.MonitoringDays)
	assert.Equal(t, 2, result.Trend.DataPoints)
	assert.True(t, result.Trend.Trend.IsImprovement())
	require.NotNil(t, result.Report)
	assert.Equal(t, 2, result.Report.TotalAssessments)
	assert.Equal(t, 10, result.Report.AssessmentSpanDays)
	assert.Equal(t, "moderate", result.Report.ImmediateRisk)
}

func TestAnalyzer_Analyze_FiveLevelEndToEnd(t *testing.T) {
	analyzer := newTestAnalyzer(t, domain.FIVE_LEVEL)

	history := historyOf(
		answerAll(domain.AnswerAlways, true, domain.IMPACT_SERIOUS),
		answerAll(domain.AnswerOften, true, domain.IMPACT_SERIOUS),
		answerAll(domain.AnswerAlways, true, domain.IMPACT_SERIOUS),
	)

	result := analyzer.Analyze(context.Background(), "subject-1", history)

	assert.Equal(t, 52, result.Scored.TotalScore)
	assert.Equal(t, domain.SEVERE_RISK, result.Classification.Severity)
	assert.Equal(t, domain.IMPAIRMENT_SEVERE, result.Classification.Impairment)
	assert.True(t, result.Recommendations.Emergency)
	assert.Equal(t, 1, result.Recommendations.MonitoringDays)
	require.NotNil(t, result.Statistics)
	assert.InDelta(t, 52.0, result.Statistics.Max, 0.001)
	assert.Equal(t, "critical", result.Report.ImmediateRisk)
	assert.Contains(t, result.Report.EmergencyIndicators, "severe_current_symptoms")
	assert.Contains(t, result.Report.MonitoringPriorities, "intensive_monitoring_required")
}

func TestAnalyzer_Analyze_SkipsUnusableRecords(t *testing.T) {
	analyzer := newTestAnalyzer(t, domain.BINARY)

	valid := answerAll(domain.AnswerYes, true, domain.IMPACT_MODERATE)
	broken := answerAll(domain.AnswerYes, true, domain.IMPACT_MODERATE)
	history := historyOf(broken, valid)
	history[1].RecordedAt = time.Time{}

	result := analyzer.Analyze(context.Background(), "subject-1", history)
	assert.Equal(t, 1, result.Trend.DataPoints)
}
