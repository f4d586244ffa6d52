package assessment

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Classifier maps a scored answer set and its symptom profile to a severity
// level, a continuous risk percentage and, under the five-level scheme, a
// functional impairment assessment.
type Classifier struct {
	logger *logrus.Logger
}

// NewClassifier creates a new severity classifier.
func NewClassifier(logger *logrus.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify performs the scheme-appropriate severity assessment. The binary
// scheme runs the standard MDQ decision tree; the five-level scheme uses
// threshold bands with an additive severity boost. The boost only ever
// promotes toward more severe and is clamped at the scheme's top level.
func (c *Classifier) Classify(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, scheme *domain.ScoringScheme) domain.Classification {
	record := scored.Record
	coOccurrence := false
	impact := domain.IMPACT_NONE
	if record != nil {
		coOccurrence = record.CoOccurrence
		if record.Impact.IsValid() {
			impact = record.Impact
		}
	}

	var result domain.Classification
	if scheme.Kind == domain.BINARY {
		result = c.classifyBinary(scored, coOccurrence, impact, scheme)
	} else {
		result = c.classifyFiveLevel(scored, profile, coOccurrence, impact, scheme)
	}

	c.logger.WithFields(logrus.Fields{
		"scheme":          scheme.Kind.String(),
		"total_score":     scored.TotalScore,
		"severity_level":  result.Severity.String(),
		"risk_percentage": result.RiskPercentage,
	}).Debug("Severity classified")

	return result
}

// classifyBinary runs the standard MDQ three-criterion decision tree:
// screening cutoff, symptom co-occurrence, then functional impact.
func (c *Classifier) classifyBinary(scored *domain.ScoredAnswerSet, coOccurrence bool, impact domain.FunctionalImpact, scheme *domain.ScoringScheme) domain.Classification {
	var mdq domain.MDQResult
	switch {
	case scored.TotalScore < scheme.ScreeningCutoff:
		mdq = domain.MDQ_NEGATIVE
	case !coOccurrence:
		mdq = domain.MDQ_NEGATIVE
	case impact == domain.IMPACT_NONE:
		mdq = domain.MDQ_POSITIVE_SUBCLINICAL
	case impact == domain.IMPACT_SERIOUS:
		mdq = domain.MDQ_POSITIVE_HIGH
	case impact == domain.IMPACT_MODERATE:
		mdq = domain.MDQ_POSITIVE_MODERATE
	default:
		mdq = domain.MDQ_POSITIVE_MILD
	}

	var severity domain.SeverityLevel
	switch mdq {
	case domain.MDQ_POSITIVE_HIGH:
		severity = domain.HIGH_POSITIVE
	case domain.MDQ_POSITIVE_MODERATE:
		severity = domain.MODERATE_POSITIVE
	case domain.MDQ_POSITIVE_MILD, domain.MDQ_POSITIVE_SUBCLINICAL:
		severity = domain.MILD_POSITIVE
	default:
		severity = domain.NEGATIVE
	}

	return domain.Classification{
		Severity:       severity,
		MDQResult:      mdq,
		RiskPercentage: c.binaryRisk(scored.TotalScore, coOccurrence, impact),
	}
}

// binaryRisk scores risk on the 0-13 scale: a score component capped at 60,
// flat clinical add-ons and a high-score bonus, clamped to [0,100].
func (c *Classifier) binaryRisk(total int, coOccurrence bool, impact domain.FunctionalImpact) float64 {
	risk := math.Min(60, float64(total)/13*60)
	if coOccurrence {
		risk += 20
	}
	switch impact {
	case domain.IMPACT_MINOR:
		risk += 5
	case domain.IMPACT_MODERATE:
		risk += 15
	case domain.IMPACT_SERIOUS:
		risk += 25
	}
	if total >= 9 && coOccurrence && impact != domain.IMPACT_NONE {
		risk += 15
	}
	return round1(clamp(risk, 0, 100))
}

func (c *Classifier) classifyFiveLevel(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, coOccurrence bool, impact domain.FunctionalImpact, scheme *domain.ScoringScheme) domain.Classification {
	base := scheme.BandFor(scored.TotalScore)

	boost := 0
	switch {
	case profile.IndicatorCount >= 3:
		boost += 2
	case profile.IndicatorCount == 2:
		boost += 1
	}
	switch impact {
	case domain.IMPACT_SERIOUS:
		boost += 2
	case domain.IMPACT_MODERATE:
		boost += 1
	}
	if coOccurrence {
		boost += 1
	}
	if profile.Indicators[domain.GroupCoreManic] && profile.Indicators[domain.GroupBehavioral] {
		boost += 1
	}

	idx := scheme.LevelIndex(base) + boost
	if max := len(scheme.Levels) - 1; idx > max {
		idx = max
	}

	return domain.Classification{
		Severity:       scheme.Levels[idx],
		RiskPercentage: c.fiveLevelRisk(scored, profile, coOccurrence, impact, scheme),
		Impairment:     c.assessImpairment(scored, profile, coOccurrence, impact),
	}
}

// fiveLevelRisk blends the raw-score risk, the weighted-score risk and the
// clinical adjustment 40/40/20, clamped to [0,100].
func (c *Classifier) fiveLevelRisk(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, coOccurrence bool, impact domain.FunctionalImpact, scheme *domain.ScoringScheme) float64 {
	base := math.Min(100, float64(scored.TotalScore)/float64(scheme.RiskScale)*100)
	weighted := scored.WeightedScore / scheme.MaxWeightedTotal * 100

	clinical := 0.0
	if coOccurrence {
		clinical += 15
	}
	switch impact {
	case domain.IMPACT_MINOR:
		clinical += 5
	case domain.IMPACT_MODERATE:
		clinical += 15
	case domain.IMPACT_SERIOUS:
		clinical += 25
	}
	clinical += float64(profile.IndicatorCount) * 8

	risk := base*0.4 + weighted*0.4 + clinical*0.2
	return round1(clamp(risk, 0, 100))
}

// assessImpairment derives the 4-value functional impairment ordinal from a
// priority-ordered rule chain; the first matching rule wins.
func (c *Classifier) assessImpairment(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, coOccurrence bool, impact domain.FunctionalImpact) domain.ImpairmentLevel {
	impairmentScore := scored.QuestionScores[domain.Q12]
	noticedScore := scored.QuestionScores[domain.Q13]
	behavioral := profile.Indicators[domain.GroupBehavioral]
	socialImpact := profile.Indicators[domain.GroupSocialImpact]

	switch {
	case (impact == domain.IMPACT_SERIOUS && coOccurrence) || impairmentScore >= 3:
		return domain.IMPAIRMENT_SEVERE
	case impact == domain.IMPACT_SERIOUS ||
		(impact == domain.IMPACT_MODERATE && behavioral) ||
		impairmentScore >= 2:
		return domain.IMPAIRMENT_MODERATE
	case impact == domain.IMPACT_MODERATE ||
		socialImpact ||
		noticedScore >= 2 ||
		impairmentScore >= 1:
		return domain.IMPAIRMENT_MILD
	default:
		return domain.IMPAIRMENT_MINIMAL
	}
}
