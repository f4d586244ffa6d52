package assessment

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Profiler derives the clinical symptom breakdown of a scored answer set:
// category severities, positive-symptom texts, core symptom count and
// bipolar risk indicator flags.
type Profiler struct {
	logger *logrus.Logger
}

// NewProfiler creates a new symptom profiler.
func NewProfiler(logger *logrus.Logger) *Profiler {
	return &Profiler{logger: logger}
}

// Profile computes the symptom profile. Profiling is idempotent: the same
// scored set always yields the same profile.
func (p *Profiler) Profile(scored *domain.ScoredAnswerSet, scheme *domain.ScoringScheme) *domain.SymptomProfile {
	categories := make(map[string]domain.CategoryScore, len(scheme.Categories))
	for name, questions := range scheme.Categories {
		score := 0
		for _, q := range questions {
			score += scored.QuestionScores[q]
		}
		maxScore := len(questions) * scheme.MaxQuestionScore
		pct := 0.0
		if maxScore > 0 {
			pct = round1(float64(score) / float64(maxScore) * 100)
		}
		categories[name] = domain.CategoryScore{
			Score:       score,
			MaxScore:    maxScore,
			SeverityPct: pct,
		}
	}

	positives := make([]string, 0, len(domain.AllQuestionIDs))
	for _, q := range domain.AllQuestionIDs {
		score := scored.QuestionScores[q]
		if score >= scheme.PositiveThreshold {
			positives = append(positives, fmt.Sprintf("%s (%s)", scheme.Descriptions[q], severityText(score, scheme)))
		}
	}

	coreCount := 0
	for _, q := range scheme.CoreSymptoms {
		if scored.QuestionScores[q] >= scheme.PositiveThreshold {
			coreCount++
		}
	}

	indicators := make(map[string]bool, len(scheme.IndicatorGroups))
	indicatorCount := 0
	for name, questions := range scheme.IndicatorGroups {
		sum := 0
		for _, q := range questions {
			sum += scored.QuestionScores[q]
		}
		avg := float64(sum) / float64(len(questions))
		positive := avg >= scheme.IndicatorThreshold
		indicators[name] = positive
		if positive {
			indicatorCount++
		}
	}

	p.logger.WithFields(logrus.Fields{
		"scheme":            scheme.Kind.String(),
		"positive_symptoms": len(positives),
		"core_symptoms":     coreCount,
		"indicator_count":   indicatorCount,
	}).Debug("Symptom profile computed")

	return &domain.SymptomProfile{
		Categories:       categories,
		PositiveSymptoms: positives,
		CoreSymptomCount: coreCount,
		Indicators:       indicators,
		IndicatorCount:   indicatorCount,
	}
}

// severityText maps a per-question score to its display label. The binary
// scheme uses a fixed "present" label for any positive answer.
func severityText(score int, scheme *domain.ScoringScheme) string {
	if scheme.Kind == domain.BINARY {
		return "present"
	}
	switch score {
	case 1:
		return "mild"
	case 2:
		return "moderate"
	case 3:
		return "severe"
	case 4:
		return "very severe"
	default:
		return "none"
	}
}
