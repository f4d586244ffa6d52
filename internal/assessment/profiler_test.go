package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdq-screening-server/internal/domain"
)

func TestProfiler_Profile_FiveLevel(t *testing.T) {
	logger := testLogger()
	scorer := NewScorer(logger)
	profiler := NewProfiler(logger)
	scheme := domain.FiveLevelScheme()

	record := answerAll(domain.AnswerAlways, true, domain.IMPACT_SERIOUS)
	profile := profiler.Profile(scorer.Score(record, scheme), scheme)

	require.Len(t, profile.Categories, 13)
	for name, c := range profile.Categories {
		assert.Equal(t, 4, c.Score, "category %s", name)
		assert.Equal(t, 4, c.MaxScore, "category %s", name)
		assert.InDelta(t, 100.0, c.SeverityPct, 0.001, "category %s", name)
	}

	assert.Len(t, profile.PositiveSymptoms, 13)
	assert.Contains(t, profile.PositiveSymptoms[0], "(very severe)")
	assert.Equal(t, len(scheme.CoreSymptoms), profile.CoreSymptomCount)
	assert.Equal(t, 4, profile.IndicatorCount)
	for name, positive := range profile.Indicators {
		assert.True(t, positive, "indicator %s", name)
	}
}

func TestProfiler_Profile_Binary(t *testing.T) {
	logger := testLogger()
	scorer := NewScorer(logger)
	profiler := NewProfiler(logger)
	scheme := domain.BinaryScheme()

	record := answerSome(domain.AnswerYes, []domain.QuestionID{domain.Q1, domain.Q5, domain.Q6}, true, domain.IMPACT_MODERATE)
	profile := profiler.Profile(scorer.Score(record, scheme), scheme)

	assert.InDelta(t, 100.0, profile.Categories["mood_elevation"].SeverityPct, 0.001)
	assert.InDelta(t, 100.0, profile.Categories["cognitive_symptoms"].SeverityPct, 0.001)
	assert.InDelta(t, 0.0, profile.Categories["risk_behaviors"].SeverityPct, 0.001)

	assert.Len(t, profile.PositiveSymptoms, 3)
	assert.Contains(t, profile.PositiveSymptoms[0], "(present)")
	assert.Equal(t, 3, profile.CoreSymptomCount)

	// Single-point answers cannot reach the 2.0 group-mean threshold.
	assert.Equal(t, 0, profile.IndicatorCount)
}

func TestProfiler_Profile_IndicatorThreshold(t *testing.T) {
	logger := testLogger()
	scorer := NewScorer(logger)
	profiler := NewProfiler(logger)
	scheme := domain.FiveLevelScheme()

	tests := []struct {
		name          string
		record        *domain.AnswerRecord
		wantCoreManic bool
	}{
		{
			name:          "Group mean at threshold",
			record:        answerSome(domain.AnswerSometimes, []domain.QuestionID{domain.Q1, domain.Q2, domain.Q3, domain.Q5}, false, domain.IMPACT_NONE),
			wantCoreManic: true,
		},
		{
			name:          "Group mean below threshold",
			record:        answerSome(domain.AnswerSometimes, []domain.QuestionID{domain.Q1, domain.Q2}, false, domain.IMPACT_NONE),
			wantCoreManic: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := profiler.Profile(scorer.Score(tt.record, scheme), scheme)
			assert.Equal(t, tt.wantCoreManic, profile.Indicators[domain.GroupCoreManic])
		})
	}
}

func TestProfiler_Profile_Idempotent(t *testing.T) {
	logger := testLogger()
	scorer := NewScorer(logger)
	profiler := NewProfiler(logger)
	scheme := domain.FiveLevelScheme()

	record := answerSome(domain.AnswerOften, []domain.QuestionID{domain.Q1, domain.Q5, domain.Q10, domain.Q12}, true, domain.IMPACT_MODERATE)
	scored := scorer.Score(record, scheme)

	first := profiler.Profile(scored, scheme)
	second := profiler.Profile(scored, scheme)
	assert.Equal(t, first, second)
}
