package domain

import (
	"time"
)

// ScoredAnswerSet is one answer record with all scoring tables applied.
type ScoredAnswerSet struct {
	Record          *AnswerRecord      `json:"record"`
	QuestionScores  map[QuestionID]int `json:"question_scores"`
	TotalScore      int                `json:"total_score"`
	WeightedScore   float64            `json:"weighted_score"`
	NormalizedScore int                `json:"normalized_score"`
}

// CategoryScore summarizes one symptom category of a scored answer set.
type CategoryScore struct {
	Score       int     `json:"score"`
	MaxScore    int     `json:"max_score"`
	SeverityPct float64 `json:"severity_pct"`
}

// SymptomProfile is the clinical symptom breakdown of a scored answer set.
type SymptomProfile struct {
	Categories       map[string]CategoryScore `json:"categories"`
	PositiveSymptoms []string                 `json:"positive_symptoms"`
	CoreSymptomCount int                      `json:"core_symptom_count"`
	Indicators       map[string]bool          `json:"bipolar_indicators"`
	IndicatorCount   int                      `json:"bipolar_indicator_count"`
}

// Classification is the severity assessment of a single scored answer set.
type Classification struct {
	Severity       SeverityLevel   `json:"severity_level"`
	MDQResult      MDQResult       `json:"mdq_result,omitempty"`
	RiskPercentage float64         `json:"risk_percentage"`
	Impairment     ImpairmentLevel `json:"functional_impairment_level,omitempty"`
}

// TrendPoint is one timeline entry of the trend analysis.
type TrendPoint struct {
	RecordedAt        time.Time `json:"recorded_at"`
	Score             float64   `json:"score"`
	BaselineDeviation float64   `json:"baseline_deviation"`
	CumulativeChange  float64   `json:"cumulative_change"`
}

// TrendSummary is the longitudinal trajectory assessment.
type TrendSummary struct {
	Trend      ImprovementTrend `json:"improvement_trend"`
	Confidence float64          `json:"trend_confidence"`
	Baseline   float64          `json:"historical_baseline"`
	ChangePct  float64          `json:"change_percentage"`
	Slope      float64          `json:"linear_slope"`
	DataPoints int              `json:"data_points"`
	Timeline   []TrendPoint     `json:"timeline,omitempty"`
}

// ScoreStatistics are descriptive statistics over the full score history.
type ScoreStatistics struct {
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	StdDev         float64 `json:"std"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Range          float64 `json:"range"`
	P25            float64 `json:"percentile_25"`
	P75            float64 `json:"percentile_75"`
	Volatility     float64 `json:"volatility_index"`
	StabilityIndex float64 `json:"stability_index"`
	AverageChange  float64 `json:"average_change"`
	MaxChange      float64 `json:"max_single_change"`
}

// ImprovementAnalysis measures recovery relative to the worst historical
// point and the stability of recent scores.
type ImprovementAnalysis struct {
	ImprovementPct     float64  `json:"improvement_percentage"`
	ConsistencyScore   float64  `json:"consistency_score"`
	RecoveryIndicators []string `json:"recovery_indicators"`
	RiskFactors        []string `json:"risk_factors"`
}

// TreatmentResponse summarizes treatment-response indicators derived from
// the score history. InsufficientData is set when fewer than three
// assessments exist and all other fields are unset.
type TreatmentResponse struct {
	InsufficientData   bool    `json:"insufficient_data,omitempty"`
	ResponseSpeed      string  `json:"response_speed,omitempty"`
	MaintenanceAbility string  `json:"maintenance_ability,omitempty"`
	ResidualSymptoms   string  `json:"residual_symptoms,omitempty"`
	Effectiveness      string  `json:"treatment_effectiveness,omitempty"`
	ImprovementRate    float64 `json:"improvement_rate"`
	TimeToImproveDays  int     `json:"time_to_improve_days,omitempty"`
}

// RecommendationBundle is the clinical follow-up plan.
type RecommendationBundle struct {
	Recommendations []string  `json:"clinical_recommendations"`
	MonitoringDays  int       `json:"monitoring_frequency_days"`
	Emergency       bool      `json:"emergency_flag"`
	NextAssessment  time.Time `json:"next_assessment_date"`
}

// PrognosisFactors groups prognosis-relevant findings by direction.
type PrognosisFactors struct {
	Positive []string `json:"positive_factors"`
	Negative []string `json:"negative_factors"`
	Neutral  []string `json:"neutral_factors"`
}

// ReportData is the decision-support bundle assembled for downstream report
// generation. It is derived data only; nothing in it feeds back into
// classification.
type ReportData struct {
	TotalAssessments     int              `json:"total_assessments"`
	AssessmentSpanDays   int              `json:"assessment_span_days"`
	ImmediateRisk        string           `json:"immediate_risk_level"`
	EmergencyIndicators  []string         `json:"emergency_indicators"`
	MonitoringPriorities []string         `json:"monitoring_priorities"`
	InterventionTargets  []string         `json:"intervention_targets"`
	LongTermRisks        []string         `json:"long_term_risk_factors"`
	ProtectiveFactors    []string         `json:"protective_factors"`
	Prognosis            PrognosisFactors `json:"prognosis_factors"`
}

// AnalysisResult is the complete outcome of analyzing one subject's
// assessment history.
type AnalysisResult struct {
	ID          string     `json:"analysis_id"`
	SubjectID   string     `json:"subject_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Scheme      SchemeKind `json:"scheme"`

	Scored          *ScoredAnswerSet     `json:"scored,omitempty"`
	Profile         *SymptomProfile      `json:"symptom_profile,omitempty"`
	Classification  Classification       `json:"classification"`
	Trend           TrendSummary         `json:"trend"`
	Statistics      *ScoreStatistics     `json:"score_statistics,omitempty"`
	Improvement     ImprovementAnalysis  `json:"improvement_analysis"`
	Treatment       TreatmentResponse    `json:"treatment_response"`
	Recommendations RecommendationBundle `json:"recommendations"`
	Report          *ReportData          `json:"report_data,omitempty"`
}

// LogFields returns structured logging fields for audit trails.
func (r *AnalysisResult) LogFields() map[string]any {
	return map[string]any{
		"analysis_id":     r.ID,
		"subject_id":      r.SubjectID,
		"scheme":          r.Scheme.String(),
		"severity_level":  r.Classification.Severity.String(),
		"risk_percentage": r.Classification.RiskPercentage,
		"trend":           r.Trend.Trend.String(),
		"emergency":       r.Recommendations.Emergency,
	}
}
