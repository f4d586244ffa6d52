// Package domain contains core business entities and types for Mood Disorder
// Questionnaire (MDQ) screening, scoring and longitudinal trend analysis.
//
// Reference: Hirschfeld et al. (2000) Development and validation of a screening
// instrument for bipolar spectrum disorder: the Mood Disorder Questionnaire.
// Am J Psychiatry. 157(11):1873-5. doi: 10.1176/appi.ajp.157.11.1873
package domain

import (
	"errors"
	"time"
)

// QuestionID identifies one of the 13 MDQ symptom questions.
type QuestionID string

const (
	Q1  QuestionID = "q1"
	Q2  QuestionID = "q2"
	Q3  QuestionID = "q3"
	Q4  QuestionID = "q4"
	Q5  QuestionID = "q5"
	Q6  QuestionID = "q6"
	Q7  QuestionID = "q7"
	Q8  QuestionID = "q8"
	Q9  QuestionID = "q9"
	Q10 QuestionID = "q10"
	Q11 QuestionID = "q11"
	Q12 QuestionID = "q12"
	Q13 QuestionID = "q13"
)

// AllQuestionIDs lists the questionnaire items in instrument order.
var AllQuestionIDs = []QuestionID{Q1, Q2, Q3, Q4, Q5, Q6, Q7, Q8, Q9, Q10, Q11, Q12, Q13}

// Answer labels accepted on the wire. The binary instrument uses yes/no,
// the five-level instrument uses the frequency labels.
const (
	AnswerNo        = "no"
	AnswerYes       = "yes"
	AnswerRarely    = "rarely"
	AnswerSometimes = "sometimes"
	AnswerOften     = "often"
	AnswerAlways    = "always"
)

// SchemeKind selects which scoring scheme an assessment is interpreted under.
type SchemeKind string

const (
	BINARY     SchemeKind = "binary"
	FIVE_LEVEL SchemeKind = "five_level"
)

// IsValid reports whether the scheme kind is one of the supported variants.
func (k SchemeKind) IsValid() bool {
	switch k {
	case BINARY, FIVE_LEVEL:
		return true
	default:
		return false
	}
}

// String returns the string representation of the scheme kind.
func (k SchemeKind) String() string {
	return string(k)
}

// FunctionalImpact represents the self-reported degree of problems the
// symptoms caused (MDQ question 15).
type FunctionalImpact string

const (
	IMPACT_NONE     FunctionalImpact = "none"
	IMPACT_MINOR    FunctionalImpact = "minor"
	IMPACT_MODERATE FunctionalImpact = "moderate"
	IMPACT_SERIOUS  FunctionalImpact = "serious"
)

// IsValid validates that the impact value is one of the four MDQ levels.
func (f FunctionalImpact) IsValid() bool {
	switch f {
	case IMPACT_NONE, IMPACT_MINOR, IMPACT_MODERATE, IMPACT_SERIOUS:
		return true
	default:
		return false
	}
}

// String returns the string representation of the functional impact.
func (f FunctionalImpact) String() string {
	return string(f)
}

// Rank returns the ordinal position of the impact level, with unknown
// values ranked as none. Used for monotonic severity adjustments.
func (f FunctionalImpact) Rank() int {
	switch f {
	case IMPACT_MINOR:
		return 1
	case IMPACT_MODERATE:
		return 2
	case IMPACT_SERIOUS:
		return 3
	default:
		return 0
	}
}

// SeverityLevel represents the ordered screening severity classification.
// The binary scheme uses the four *_POSITIVE levels, the five-level scheme
// uses the five *_RISK levels; ordering within a scheme is defined by the
// scheme's level list.
type SeverityLevel string

const (
	// Binary scheme levels, least to most severe.
	NEGATIVE          SeverityLevel = "negative"
	MILD_POSITIVE     SeverityLevel = "mild_positive"
	MODERATE_POSITIVE SeverityLevel = "moderate_positive"
	HIGH_POSITIVE     SeverityLevel = "high_positive"

	// Five-level scheme levels, least to most severe.
	NORMAL        SeverityLevel = "normal"
	MILD_RISK     SeverityLevel = "mild_risk"
	MODERATE_RISK SeverityLevel = "moderate_risk"
	HIGH_RISK     SeverityLevel = "high_risk"
	SEVERE_RISK   SeverityLevel = "severe_risk"
)

// String returns the string representation of the severity level.
func (s SeverityLevel) String() string {
	return string(s)
}

// MDQResult represents the standard MDQ screening decision produced by the
// binary scheme's three-criterion decision tree.
type MDQResult string

const (
	MDQ_NEGATIVE             MDQResult = "negative"
	MDQ_POSITIVE_SUBCLINICAL MDQResult = "positive_subclinical"
	MDQ_POSITIVE_MILD        MDQResult = "positive_mild"
	MDQ_POSITIVE_MODERATE    MDQResult = "positive_moderate"
	MDQ_POSITIVE_HIGH        MDQResult = "positive_high"
)

// String returns the string representation of the MDQ result.
func (r MDQResult) String() string {
	return string(r)
}

// ImprovementTrend represents the direction and magnitude of score change
// across a subject's assessment history.
type ImprovementTrend string

const (
	SIGNIFICANT_IMPROVEMENT   ImprovementTrend = "significant_improvement"
	MODERATE_IMPROVEMENT      ImprovementTrend = "moderate_improvement"
	MILD_IMPROVEMENT          ImprovementTrend = "mild_improvement"
	STABLE                    ImprovementTrend = "stable"
	MILD_DETERIORATION        ImprovementTrend = "mild_deterioration"
	MODERATE_DETERIORATION    ImprovementTrend = "moderate_deterioration"
	SIGNIFICANT_DETERIORATION ImprovementTrend = "significant_deterioration"
)

// String returns the string representation of the trend.
func (t ImprovementTrend) String() string {
	return string(t)
}

// IsImprovement reports whether the trend indicates falling scores.
func (t ImprovementTrend) IsImprovement() bool {
	switch t {
	case SIGNIFICANT_IMPROVEMENT, MODERATE_IMPROVEMENT, MILD_IMPROVEMENT:
		return true
	default:
		return false
	}
}

// IsDeterioration reports whether the trend indicates rising scores.
func (t ImprovementTrend) IsDeterioration() bool {
	switch t {
	case SIGNIFICANT_DETERIORATION, MODERATE_DETERIORATION, MILD_DETERIORATION:
		return true
	default:
		return false
	}
}

// Mirror returns the opposite-direction trend of equal magnitude.
// STABLE mirrors to itself.
func (t ImprovementTrend) Mirror() ImprovementTrend {
	switch t {
	case SIGNIFICANT_IMPROVEMENT:
		return SIGNIFICANT_DETERIORATION
	case MODERATE_IMPROVEMENT:
		return MODERATE_DETERIORATION
	case MILD_IMPROVEMENT:
		return MILD_DETERIORATION
	case SIGNIFICANT_DETERIORATION:
		return SIGNIFICANT_IMPROVEMENT
	case MODERATE_DETERIORATION:
		return MODERATE_IMPROVEMENT
	case MILD_DETERIORATION:
		return MILD_IMPROVEMENT
	default:
		return STABLE
	}
}

// ImpairmentLevel represents the functional impairment assessment derived
// from impact, co-occurrence and symptom answers under the five-level scheme.
type ImpairmentLevel string

const (
	IMPAIRMENT_MINIMAL  ImpairmentLevel = "minimal"
	IMPAIRMENT_MILD     ImpairmentLevel = "mild"
	IMPAIRMENT_MODERATE ImpairmentLevel = "moderate"
	IMPAIRMENT_SEVERE   ImpairmentLevel = "severe"
)

// String returns the string representation of the impairment level.
func (l ImpairmentLevel) String() string {
	return string(l)
}

// Validation errors surfaced by storage and configuration layers. The
// scoring pipeline skips or zero-scores bad input instead of returning errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidScheme     = errors.New("invalid scoring scheme configuration")
	ErrInvalidSubjectID  = errors.New("invalid subject identifier")
	ErrInvalidAssessment = errors.New("invalid assessment record")
)

// AnswerRecord is one completed questionnaire: the raw answer labels plus
// the two gating items (symptom co-occurrence and functional impact).
type AnswerRecord struct {
	ID           string                `json:"id"`
	SubjectID    string                `json:"subject_id"`
	RecordedAt   time.Time             `json:"recorded_at"`
	Answers      map[QuestionID]string `json:"answers"`
	CoOccurrence bool                  `json:"co_occurrence"`
	Impact       FunctionalImpact      `json:"functional_impact"`
}

// Validate checks the record's identity fields. Answer labels are not
// validated here; the scorer maps unknown labels to zero.
func (r *AnswerRecord) Validate() error {
	if r.SubjectID == "" {
		return ErrInvalidSubjectID
	}
	if r.RecordedAt.IsZero() {
		return ErrInvalidAssessment
	}
	return nil
}

// ScorePoint is one historical observation used by trend analysis.
type ScorePoint struct {
	RecordedAt time.Time `json:"recorded_at"`
	Score      float64   `json:"score"`
}
