package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Analyzer orchestrates the full assessment pipeline: score the latest
// record, profile it, classify it, analyze the history trajectory and
// generate recommendations. Given the same history snapshot the result is
// identical apart from the generated analysis id and timestamp.
type Analyzer struct {
	scheme      *domain.ScoringScheme
	scorer      *Scorer
	profiler    *Profiler
	classifier  *Classifier
	trend       *TrendAnalyzer
	recommender *Recommender
	logger      *logrus.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalyzer creates an analyzer for the given scheme kind. Scheme
// configuration problems are the one error class surfaced to the caller.
func NewAnalyzer(kind domain.SchemeKind, logger *logrus.Logger) (*Analyzer, error) {
	scheme, err := domain.SchemeFor(kind)
	if err != nil {
		return nil, err
	}
	if err := scheme.Validate(); err != nil {
		return nil, fmt.Errorf("scheme %s: %w", kind, err)
	}

	return &Analyzer{
		scheme:      scheme,
		scorer:      NewScorer(logger),
		profiler:    NewProfiler(logger),
		classifier:  NewClassifier(logger),
		trend:       NewTrendAnalyzer(logger),
		recommender: NewRecommender(logger),
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}, nil
}

// Scheme returns the analyzer's scoring scheme.
func (a *Analyzer) Scheme() *domain.ScoringScheme {
	return a.scheme
}

// Analyze runs the pipeline over a subject's assessment history, newest
// first. An empty history yields the documented no-data result instead of
// an error.
func (a *Analyzer) Analyze(ctx context.Context, subjectID string, history []*domain.AnswerRecord) *domain.AnalysisResult {
	now := a.now()

	if len(history) == 0 {
		a.logger.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"scheme":     a.scheme.Kind.String(),
		}).Info("No assessment data, returning baseline result")
		return a.noDataResult(subjectID, now)
	}

	latest := history[0]

	scored := a.scorer.Score(latest, a.scheme)
	profile := a.profiler.Profile(scored, a.scheme)
	cls := a.classifier.Classify(scored, profile, a.scheme)

	points := a.scorePoints(history)
	trend := a.trend.Analyze(points, a.scheme)
	stats := a.trend.Statistics(points)
	improvement := a.trend.AnalyzeImprovement(points, profile, cls, a.scheme)
	treatment := a.trend.TreatmentIndicators(points, a.scheme)

	recommendations := a.recommender.Recommend(scored, profile, cls, trend, improvement, treatment, a.scheme, now)

	result := &domain.AnalysisResult{
		ID:              a.newID(),
		SubjectID:       subjectID,
		GeneratedAt:     now,
		Scheme:          a.scheme.Kind,
		Scored:          scored,
		Profile:         profile,
		Classification:  cls,
		Trend:           trend,
		Statistics:      stats,
		Improvement:     improvement,
		Treatment:       treatment,
		Recommendations: recommendations,
		Report:          a.reportData(scored, profile, cls, trend, improvement, treatment, points),
	}

	a.logger.WithFields(result.LogFields()).Info("Analysis completed")

	return result
}

// scorePoints converts the history into score observations, newest first.
// Records that fail basic validation are skipped rather than aborting the
// whole analysis.
func (a *Analyzer) scorePoints(history []*domain.AnswerRecord) []domain.ScorePoint {
	points := make([]domain.ScorePoint, 0, len(history))
	for _, record := range history {
		if record == nil || record.RecordedAt.IsZero() {
			continue
		}
		scored := a.scorer.Score(record, a.scheme)
		points = append(points, domain.ScorePoint{
			RecordedAt: record.RecordedAt,
			Score:      float64(scored.TotalScore),
		})
	}
	return points
}

func (a *Analyzer) noDataResult(subjectID string, now time.Time) *domain.AnalysisResult {
	cls := domain.Classification{Severity: a.scheme.LeastSevere()}
	if a.scheme.Kind == domain.BINARY {
		cls.MDQResult = domain.MDQ_NEGATIVE
	}

	return &domain.AnalysisResult{
		ID:             a.newID(),
		SubjectID:      subjectID,
		GeneratedAt:    now,
		Scheme:         a.scheme.Kind,
		Classification: cls,
		Trend: domain.TrendSummary{
			Trend:      domain.STABLE,
			Confidence: 0.5,
		},
		Improvement: domain.ImprovementAnalysis{
			ConsistencyScore:   0.5,
			RecoveryIndicators: []string{},
			RiskFactors:        []string{"No assessment data available"},
		},
		Treatment: domain.TreatmentResponse{InsufficientData: true},
		Recommendations: domain.RecommendationBundle{
			Recommendations: []string{
				"Insufficient data, complete an initial MDQ assessment to establish a baseline",
			},
			MonitoringDays: 30,
			Emergency:      false,
			NextAssessment: now.AddDate(0, 0, 30),
		},
		Report: &domain.ReportData{
			ImmediateRisk:        "low",
			EmergencyIndicators:  []string{},
			MonitoringPriorities: []string{},
			InterventionTargets:  []string{},
			LongTermRisks:        []string{},
			ProtectiveFactors:    []string{},
		},
	}
}

// reportData assembles the decision-support bundle for report generation.
func (a *Analyzer) reportData(
	scored *domain.ScoredAnswerSet,
	profile *domain.SymptomProfile,
	cls domain.Classification,
	trend domain.TrendSummary,
	improvement domain.ImprovementAnalysis,
	treatment domain.TreatmentResponse,
	points []domain.ScorePoint,
) *domain.ReportData {
	spanDays := 0
	if len(points) > 1 {
		spanDays = int(points[0].RecordedAt.Sub(points[len(points)-1].RecordedAt).Hours() / 24)
	}

	report := &domain.ReportData{
		TotalAssessments:     len(points),
		AssessmentSpanDays:   spanDays,
		ImmediateRisk:        a.immediateRisk(scored, profile, cls),
		EmergencyIndicators:  a.emergencyIndicators(scored, profile, cls, trend),
		MonitoringPriorities: a.monitoringPriorities(profile, cls, improvement),
		InterventionTargets:  a.interventionTargets(profile, cls, trend),
		LongTermRisks:        a.longTermRisks(scored, profile, cls, trend),
		ProtectiveFactors:    a.protectiveFactors(scored, cls, improvement),
		Prognosis:            a.prognosisFactors(scored, profile, cls, trend, improvement, treatment),
	}
	return report
}

func (a *Analyzer) immediateRisk(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, cls domain.Classification) string {
	if a.scheme.Kind == domain.BINARY {
		switch {
		case cls.MDQResult == domain.MDQ_POSITIVE_HIGH || scored.TotalScore >= 11:
			return "high"
		case cls.MDQResult == domain.MDQ_POSITIVE_MODERATE || cls.MDQResult == domain.MDQ_POSITIVE_MILD:
			return "moderate"
		case scored.TotalScore >= a.scheme.ScreeningCutoff:
			return "mild"
		default:
			return "low"
		}
	}

	switch {
	case cls.Severity == domain.SEVERE_RISK || scored.TotalScore >= 30:
		return "critical"
	case cls.Severity == domain.HIGH_RISK || profile.Indicators[domain.GroupBehavioral]:
		return "high"
	case cls.Severity == domain.MODERATE_RISK:
		return "moderate"
	default:
		return "low"
	}
}

func (a *Analyzer) emergencyIndicators(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, cls domain.Classification, trend domain.TrendSummary) []string {
	indicators := []string{}

	if a.scheme.Kind == domain.BINARY {
		if cls.MDQResult == domain.MDQ_POSITIVE_HIGH {
			indicators = append(indicators, "strongly_positive_screen")
		}
		if scored.Record != nil && scored.Record.Impact == domain.IMPACT_SERIOUS {
			indicators = append(indicators, "severe_functional_impairment")
		}
		if scored.TotalScore >= 11 {
			indicators = append(indicators, "very_high_symptom_score")
		}
		if trend.Trend == domain.SIGNIFICANT_DETERIORATION {
			indicators = append(indicators, "rapid_deterioration")
		}
		return indicators
	}

	if cls.Severity == domain.SEVERE_RISK {
		indicators = append(indicators, "severe_current_symptoms")
	}
	if cls.Impairment == domain.IMPAIRMENT_SEVERE {
		indicators = append(indicators, "severe_functional_impairment")
	}
	if profile.Indicators[domain.GroupBehavioral] {
		indicators = append(indicators, "high_risk_behavioral_symptoms")
	}
	if trend.Trend.IsDeterioration() && trend.Trend != domain.MILD_DETERIORATION {
		indicators = append(indicators, "rapid_deterioration")
	}
	for _, q := range []domain.QuestionID{domain.Q10, domain.Q11, domain.Q12} {
		if scored.QuestionScores[q] >= 3 {
			indicators = append(indicators, fmt.Sprintf("severe_%s_symptoms", q))
		}
	}
	return indicators
}

func (a *Analyzer) monitoringPriorities(profile *domain.SymptomProfile, cls domain.Classification, improvement domain.ImprovementAnalysis) []string {
	priorities := []string{}

	if a.scheme.Kind == domain.BINARY {
		if cls.MDQResult == domain.MDQ_POSITIVE_HIGH || cls.MDQResult == domain.MDQ_POSITIVE_MODERATE {
			priorities = append(priorities, "intensive_monitoring_required")
		}
		if improvement.ConsistencyScore < 0.5 {
			priorities = append(priorities, "symptom_stability_monitoring")
		}
		if profile.CoreSymptomCount >= 4 {
			priorities = append(priorities, "core_symptom_monitoring")
		}
		return priorities
	}

	if cls.Severity == domain.HIGH_RISK || cls.Severity == domain.SEVERE_RISK {
		priorities = append(priorities, "intensive_monitoring_required")
	}
	if improvement.ConsistencyScore < 0.5 {
		priorities = append(priorities, "symptom_stability_monitoring")
	}
	if profile.Indicators[domain.GroupBehavioral] {
		priorities = append(priorities, "behavioral_risk_monitoring")
	}
	if len(highSeverityCategories(profile, 60)) > 0 {
		priorities = append(priorities, "high_severity_symptom_monitoring")
	}
	return priorities
}

func (a *Analyzer) interventionTargets(profile *domain.SymptomProfile, cls domain.Classification, trend domain.TrendSummary) []string {
	targets := []string{}

	for _, name := range highSeverityCategories(profile, 50) {
		targets = append(targets, name+"_intervention")
	}
	if cls.Impairment == domain.IMPAIRMENT_MODERATE || cls.Impairment == domain.IMPAIRMENT_SEVERE {
		targets = append(targets, "functional_restoration")
	}
	if a.scheme.Kind == domain.BINARY && scoredImpactAtLeastModerate(profile, cls) {
		targets = append(targets, "functional_restoration")
	}
	if trend.Trend == domain.MODERATE_DETERIORATION || trend.Trend == domain.SIGNIFICANT_DETERIORATION {
		targets = append(targets, "symptom_stabilization")
	}
	return targets
}

// scoredImpactAtLeastModerate reports binary-scheme functional restoration
// need: the binary scheme has no impairment ordinal, so the screening result
// stands in for it.
func scoredImpactAtLeastModerate(profile *domain.SymptomProfile, cls domain.Classification) bool {
	return cls.MDQResult == domain.MDQ_POSITIVE_MODERATE || cls.MDQResult == domain.MDQ_POSITIVE_HIGH
}

func (a *Analyzer) longTermRisks(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, cls domain.Classification, trend domain.TrendSummary) []string {
	risks := []string{}

	if trend.Trend == domain.MODERATE_DETERIORATION || trend.Trend == domain.SIGNIFICANT_DETERIORATION {
		risks = append(risks, "sustained_deterioration_trend")
	}

	if a.scheme.Kind == domain.BINARY {
		if scored.TotalScore >= 9 {
			risks = append(risks, "high_screening_score")
		}
		if scored.Record != nil && scored.Record.Impact == domain.IMPACT_SERIOUS {
			risks = append(risks, "severe_functional_impairment")
		}
		if profile.CoreSymptomCount >= 5 {
			risks = append(risks, "multiple_core_symptoms")
		}
		return risks
	}

	if profile.IndicatorCount >= 3 {
		risks = append(risks, "multiple_bipolar_indicators")
	}
	if cls.Impairment == domain.IMPAIRMENT_MODERATE || cls.Impairment == domain.IMPAIRMENT_SEVERE {
		risks = append(risks, "persistent_functional_impairment")
	}
	return risks
}

func (a *Analyzer) protectiveFactors(scored *domain.ScoredAnswerSet, cls domain.Classification, improvement domain.ImprovementAnalysis) []string {
	factors := []string{}

	if improvement.ImprovementPct > 20 {
		factors = append(factors, "significant_improvement_history")
	}
	if improvement.ConsistencyScore > 0.7 {
		factors = append(factors, "good_symptom_stability")
	}

	if a.scheme.Kind == domain.BINARY {
		if scored.TotalScore <= 5 {
			factors = append(factors, "current_mild_symptoms")
		}
		if cls.MDQResult == domain.MDQ_NEGATIVE {
			factors = append(factors, "negative_screening_result")
		}
		return factors
	}

	if scored.TotalScore <= 8 {
		factors = append(factors, "current_mild_symptoms")
	}
	return factors
}

func (a *Analyzer) prognosisFactors(scored *domain.ScoredAnswerSet, profile *domain.SymptomProfile, cls domain.Classification, trend domain.TrendSummary, improvement domain.ImprovementAnalysis, treatment domain.TreatmentResponse) domain.PrognosisFactors {
	factors := domain.PrognosisFactors{
		Positive: []string{},
		Negative: []string{},
		Neutral:  []string{},
	}

	if improvement.ImprovementPct > 30 {
		factors.Positive = append(factors.Positive, "significant_historical_improvement")
	}
	if improvement.ConsistencyScore > 0.7 {
		factors.Positive = append(factors.Positive, "stable_symptom_pattern")
	}

	lowScore := 8
	if a.scheme.Kind == domain.BINARY {
		lowScore = 5
	}
	if scored.TotalScore <= lowScore {
		factors.Positive = append(factors.Positive, "current_low_severity")
	}
	if a.scheme.Kind == domain.BINARY && cls.MDQResult == domain.MDQ_NEGATIVE {
		factors.Positive = append(factors.Positive, "negative_screening_result")
	}
	if treatment.Effectiveness == "excellent" || treatment.Effectiveness == "good" {
		factors.Positive = append(factors.Positive, "good_treatment_response")
	}

	if trend.Trend == domain.MODERATE_DETERIORATION || trend.Trend == domain.SIGNIFICANT_DETERIORATION {
		factors.Negative = append(factors.Negative, "deteriorating_trend")
	}
	if a.scheme.Kind == domain.FIVE_LEVEL && profile.Indicators[domain.GroupBehavioral] {
		factors.Negative = append(factors.Negative, "high_risk_behaviors")
	}
	if improvement.ImprovementPct < -10 {
		factors.Negative = append(factors.Negative, "worsening_from_baseline")
	}
	if cls.Impairment == domain.IMPAIRMENT_SEVERE {
		factors.Negative = append(factors.Negative, "severe_functional_impairment")
	}
	highScore := 10
	if a.scheme.Kind == domain.BINARY && scored.TotalScore >= highScore {
		factors.Negative = append(factors.Negative, "high_symptom_score")
	}

	if improvement.ConsistencyScore > 0.4 && improvement.ConsistencyScore < 0.7 {
		factors.Neutral = append(factors.Neutral, "moderate_symptom_stability")
	}

	return factors
}
