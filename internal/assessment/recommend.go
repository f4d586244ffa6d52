package assessment

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Recommender turns a classified assessment and its history analysis into a
// clinical follow-up plan: recommendation texts, a monitoring interval, an
// emergency flag and the next assessment date. Deterministic given inputs.
type Recommender struct {
	logger *logrus.Logger
}

// NewRecommender creates a new recommendation engine.
func NewRecommender(logger *logrus.Logger) *Recommender {
	return &Recommender{logger: logger}
}

// Recommend builds the follow-up plan. The base list and interval come from
// a severity-keyed table; additive rules then append texts, tighten the
// interval and may escalate to an emergency. The interval only ever
// tightens, never loosens.
func (r *Recommender) Recommend(
	scored *domain.ScoredAnswerSet,
	profile *domain.SymptomProfile,
	cls domain.Classification,
	trend domain.TrendSummary,
	improvement domain.ImprovementAnalysis,
	treatment domain.TreatmentResponse,
	scheme *domain.ScoringScheme,
	now time.Time,
) domain.RecommendationBundle {
	var bundle domain.RecommendationBundle
	if scheme.Kind == domain.BINARY {
		bundle = r.binaryBase(cls, scored)
	} else {
		bundle = r.fiveLevelBase(cls, scored, profile, treatment)
	}

	// Trend tightening applies to both schemes.
	if trend.Trend == domain.SIGNIFICANT_DETERIORATION || trend.Trend == domain.MODERATE_DETERIORATION {
		bundle.Recommendations = append(bundle.Recommendations,
			"Urgently evaluate the effectiveness of the current treatment plan")
		clampDays := 3
		if scheme.Kind == domain.BINARY {
			clampDays = 2
		}
		if bundle.MonitoringDays > clampDays {
			bundle.MonitoringDays = clampDays
		}
		bundle.Emergency = true
	}

	if improvement.ConsistencyScore < 0.4 {
		bundle.Recommendations = append(bundle.Recommendations,
			"Focus on symptom stability and identify triggers")
		if scheme.Kind == domain.FIVE_LEVEL {
			bundle.Recommendations = append(bundle.Recommendations,
				"Consider mood stabilizer treatment")
		}
	}

	// A new historical low means the subject is worse than at any prior
	// assessment.
	if improvement.ImprovementPct < -15 {
		bundle.Recommendations = append(bundle.Recommendations,
			"Comprehensively reassess the treatment plan",
			"Consider a multidisciplinary consultation")
		bundle.Emergency = true
	}

	bundle.NextAssessment = now.AddDate(0, 0, bundle.MonitoringDays)

	r.logger.WithFields(logrus.Fields{
		"scheme":          scheme.Kind.String(),
		"severity_level":  cls.Severity.String(),
		"monitoring_days": bundle.MonitoringDays,
		"emergency":       bundle.Emergency,
		"recommendations": len(bundle.Recommendations),
	}).Debug("Recommendations generated")

	return bundle
}

func (r *Recommender) binaryBase(cls domain.Classification, scored *domain.ScoredAnswerSet) domain.RecommendationBundle {
	bundle := domain.RecommendationBundle{}

	switch cls.MDQResult {
	case domain.MDQ_POSITIVE_HIGH:
		bundle.Emergency = true
		bundle.MonitoringDays = 1
		bundle.Recommendations = []string{
			"Immediate psychiatric emergency evaluation",
			"Consider inpatient treatment or crisis intervention",
			"Strongly positive MDQ screen, highly suggestive of bipolar disorder",
			"Urgent medication evaluation",
			"24-hour safety monitoring",
		}
	case domain.MDQ_POSITIVE_MODERATE:
		bundle.MonitoringDays = 3
		bundle.Recommendations = []string{
			"Arrange specialist psychiatric evaluation within 48-72 hours",
			"Moderately positive MDQ screen, suggestive of possible bipolar disorder",
			"Detailed clinical interview and history taking",
			"Consider mood stabilizer treatment",
			"Increase monitoring frequency",
		}
	case domain.MDQ_POSITIVE_MILD:
		bundle.MonitoringDays = 7
		bundle.Recommendations = []string{
			"Arrange specialist evaluation within 1-2 weeks",
			"Mildly positive MDQ screen, further evaluation needed",
			"Watch closely for symptom changes",
			"Psychoeducation and lifestyle interventions",
			"Regular follow-up",
		}
	case domain.MDQ_POSITIVE_SUBCLINICAL:
		bundle.MonitoringDays = 14
		bundle.Recommendations = []string{
			"Outpatient follow-up observation",
			"Subclinical positive screen without significant functional impairment",
			"Preventive psychological intervention",
			"Lifestyle guidance",
			"Regular reassessment",
		}
	default:
		bundle.MonitoringDays = 30
		bundle.Recommendations = []string{
			"Negative MDQ screen, continue routine care",
			"Maintain a healthy lifestyle",
			"Seek care promptly if symptoms change",
			"Regular preventive assessment",
		}
	}

	if scored.Record != nil {
		switch scored.Record.Impact {
		case domain.IMPACT_SERIOUS:
			bundle.Recommendations = append(bundle.Recommendations,
				"Urgent functional rehabilitation intervention")
			bundle.Emergency = true
		case domain.IMPACT_MODERATE:
			bundle.Recommendations = append(bundle.Recommendations,
				"Strengthen functional assessment and support")
		}
	}

	return bundle
}

func (r *Recommender) fiveLevelBase(cls domain.Classification, scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, treatment domain.TreatmentResponse) domain.RecommendationBundle {
	bundle := domain.RecommendationBundle{}

	switch {
	case cls.Severity == domain.SEVERE_RISK || scored.TotalScore >= 30:
		bundle.Emergency = true
		bundle.MonitoringDays = 1
		bundle.Recommendations = []string{
			"Immediate psychiatric emergency evaluation",
			"Consider inpatient treatment or crisis intervention",
			"24-hour monitoring and support",
			"Urgent medication adjustment",
			"Contact emergency contacts",
		}
	case cls.Severity == domain.HIGH_RISK:
		bundle.MonitoringDays = 2
		bundle.Recommendations = []string{
			"Arrange specialist psychiatric evaluation within 48 hours",
			"Increase outpatient monitoring frequency",
			"Evaluate the need for medication adjustment",
			"Implement safety monitoring measures",
			"Consider increasing treatment intensity",
		}
	case cls.Severity == domain.MODERATE_RISK:
		bundle.MonitoringDays = 7
		bundle.Recommendations = []string{
			"Arrange specialist follow-up within 1-2 weeks",
			"Continue the current treatment plan and evaluate its effect",
			"Strengthen psychosocial support",
			"Regular symptom monitoring",
			"Evaluate lifestyle interventions",
		}
	case cls.Severity == domain.MILD_RISK:
		bundle.MonitoringDays = 14
		bundle.Recommendations = []string{
			"Maintain the routine follow-up schedule",
			"Watch symptom trend changes",
			"Strengthen lifestyle management",
			"Preventive psychological intervention",
			"Continue current treatment",
		}
	default:
		bundle.MonitoringDays = 30
		bundle.Recommendations = []string{
			"Maintain the current stable state",
			"Regular preventive assessment",
			"Continue a healthy lifestyle",
			"Maintain treatment adherence",
		}
	}

	bundle.Recommendations = append(bundle.Recommendations, categoryRecommendations(profile)...)

	if profile != nil {
		switch {
		case profile.IndicatorCount >= 3:
			bundle.Recommendations = append(bundle.Recommendations,
				"Conduct a dedicated bipolar disorder evaluation",
				"Consider mood stabilizer treatment")
		case profile.IndicatorCount == 2:
			bundle.Recommendations = append(bundle.Recommendations,
				"Monitor bipolar disorder risk")
		}
	}

	switch treatment.Effectiveness {
	case "poor":
		bundle.Recommendations = append(bundle.Recommendations,
			"Evaluate treatment adherence and medication levels",
			"Consider adjusting the treatment plan")
	default:
		if treatment.ResponseSpeed == "slow" {
			bundle.Recommendations = append(bundle.Recommendations,
				"Evaluate whether the treatment dose is sufficient")
		}
	}

	switch cls.Impairment {
	case domain.IMPAIRMENT_SEVERE:
		bundle.Recommendations = append(bundle.Recommendations,
			"Urgent functional assessment and rehabilitation intervention",
			"Consider inpatient or day treatment")
	case domain.IMPAIRMENT_MODERATE:
		bundle.Recommendations = append(bundle.Recommendations,
			"Strengthen functional rehabilitation training",
			"Evaluate work and study capacity")
	}

	return bundle
}

// categoryRecommendations appends targeted texts for symptom categories at
// or above 75% severity, grouped by clinical domain.
func categoryRecommendations(profile *domain.SymptomProfile) []string {
	if profile == nil {
		return nil
	}

	behavioral := map[string]bool{
		"social_disinhibition": true, "hypersexuality": true,
		"poor_judgment": true, "reckless_spending": true,
	}
	cognitive := map[string]bool{"racing_thoughts": true, "distractibility": true}
	functional := map[string]bool{"functional_impairment": true, "others_noticed": true}

	var hasBehavioral, hasCognitive, hasFunctional bool
	for _, name := range highSeverityCategories(profile, 75) {
		switch {
		case behavioral[name]:
			hasBehavioral = true
		case cognitive[name]:
			hasCognitive = true
		case functional[name]:
			hasFunctional = true
		}
	}

	var texts []string
	if hasBehavioral {
		texts = append(texts, "Focus on high-risk behaviors and strengthen behavioral management")
	}
	if hasCognitive {
		texts = append(texts, "Consider cognitive assessment and intervention")
	}
	if hasFunctional {
		texts = append(texts, "Strengthen functional rehabilitation training")
	}
	return texts
}
