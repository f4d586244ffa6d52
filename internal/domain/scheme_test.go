package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeFor(t *testing.T) {
	tests := []struct {
		name    string
		kind    SchemeKind
		wantErr bool
	}{
		{name: "Binary scheme", kind: BINARY, wantErr: false},
		{name: "Five-level scheme", kind: FIVE_LEVEL, wantErr: false},
		{name: "Unknown scheme", kind: SchemeKind("ternary"), wantErr: true},
		{name: "Empty scheme", kind: SchemeKind(""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, err := SchemeFor(tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidScheme)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, scheme.Validate())
		})
	}
}

func TestScoringScheme_Validate_BuiltinsAreConsistent(t *testing.T) {
	assert.NoError(t, BinaryScheme().Validate())
	assert.NoError(t, FiveLevelScheme().Validate())
}

func TestScoringScheme_Validate_RejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScoringScheme)
	}{
		{
			name:   "Missing answer table",
			mutate: func(s *ScoringScheme) { s.AnswerScores = nil },
		},
		{
			name:   "Answer score out of range",
			mutate: func(s *ScoringScheme) { s.AnswerScores["always"] = 9 },
		},
		{
			name:   "Incomplete weight table",
			mutate: func(s *ScoringScheme) { delete(s.Weights, Q7) },
		},
		{
			name:   "Gap in severity bands",
			mutate: func(s *ScoringScheme) { s.Bands[1].Min = 6 },
		},
		{
			name:   "Bands do not cover the maximum total",
			mutate: func(s *ScoringScheme) { s.Bands[len(s.Bands)-1].Max = 40 },
		},
		{
			name:   "Category order out of sync",
			mutate: func(s *ScoringScheme) { s.CategoryOrder = s.CategoryOrder[1:] },
		},
		{
			name:   "Non-positive indicator threshold",
			mutate: func(s *ScoringScheme) { s.IndicatorThreshold = 0 },
		},
		{
			name:   "Non-positive baseline window",
			mutate: func(s *ScoringScheme) { s.BaselineWindow = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme := FiveLevelScheme()
			tt.mutate(scheme)
			err := scheme.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScheme)
		})
	}
}

func TestScoringScheme_BandFor(t *testing.T) {
	scheme := FiveLevelScheme()

	tests := []struct {
		total int
		want  SeverityLevel
	}{
		{total: -5, want: NORMAL},
		{total: 0, want: NORMAL},
		{total: 3, want: NORMAL},
		{total: 4, want: MILD_RISK},
		{total: 9, want: MODERATE_RISK},
		{total: 16, want: HIGH_RISK},
		{total: 26, want: SEVERE_RISK},
		{total: 52, want: SEVERE_RISK},
		{total: 99, want: SEVERE_RISK},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, scheme.BandFor(tt.total), "total %d", tt.total)
	}
}

func TestImprovementTrend_Mirror(t *testing.T) {
	for _, trend := range []ImprovementTrend{
		SIGNIFICANT_IMPROVEMENT, MODERATE_IMPROVEMENT, MILD_IMPROVEMENT,
		STABLE,
		MILD_DETERIORATION, MODERATE_DETERIORATION, SIGNIFICANT_DETERIORATION,
	} {
		assert.Equal(t, trend, trend.Mirror().Mirror(), "%s must round-trip", trend)
		if trend.IsImprovement() {
			assert.True(t, trend.Mirror().IsDeterioration())
		}
	}
}

func TestFunctionalImpact_Rank(t *testing.T) {
	assert.Equal(t, 0, IMPACT_NONE.Rank())
	assert.Equal(t, 1, IMPACT_MINOR.Rank())
	assert.Equal(t, 2, IMPACT_MODERATE.Rank())
	assert.Equal(t, 3, IMPACT_SERIOUS.Rank())
	assert.Equal(t, 0, FunctionalImpact("unknown").Rank())
}
