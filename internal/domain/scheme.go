package domain

import (
	"fmt"
)

// SeverityBand maps an inclusive total-score range to a severity level.
// Bands must be non-overlapping and ordered; the first matching band wins.
type SeverityBand struct {
	Min   int
	Max   int
	Level SeverityLevel
}

// TrendCutoffs holds the percentage-change cutoffs used to bucket score
// trajectories into the improvement trend enum. Change percentage is
// (oldest - newest) / max(newest, 1) * 100, so positive means improvement.
type TrendCutoffs struct {
	// Regression path (3+ data points).
	StableBand  float64
	Mild        float64
	Moderate    float64
	Significant float64

	// Two-point path.
	TwoPointStableBand float64
	TwoPointStep       float64
}

// ScoringScheme is the immutable configuration that defines how answers are
// scored, profiled and classified. Two variants exist: the standard binary
// MDQ and the extended five-level frequency instrument. All tables are fixed
// at construction; the engine never mutates a scheme.
type ScoringScheme struct {
	Kind SchemeKind

	// Scoring tables.
	AnswerScores     map[string]int
	MaxQuestionScore int
	MaxTotalScore    int
	Weights          map[QuestionID]float64
	MaxWeightedTotal float64

	// RiskScale is the total-score denominator used by legacy risk and
	// residual-symptom thresholds. The five-level instrument caps it at 39
	// even though the true maximum is 52.
	RiskScale int

	// NormalizedDivisor converts a raw total to the 0-13 compatibility
	// score via min(13, round(total/divisor)). 1 for the binary scheme.
	NormalizedDivisor int

	// Classification tables.
	Levels          []SeverityLevel
	Bands           []SeverityBand
	ScreeningCutoff int

	// Profiling tables.
	Descriptions       map[QuestionID]string
	Categories         map[string][]QuestionID
	CategoryOrder      []string
	CoreSymptoms       []QuestionID
	IndicatorGroups    map[string][]QuestionID
	IndicatorThreshold float64
	PositiveThreshold  int

	// Trend tables.
	Trend          TrendCutoffs
	BaselineWindow int
}

// Indicator group names shared by both schemes.
const (
	GroupCoreManic    = "core_manic_symptoms"
	GroupBehavioral   = "behavioral_symptoms"
	GroupSocialImpact = "social_impact"
	GroupCognitive    = "cognitive_symptoms"
)

// questionDescriptions is shared by both schemes for positive-symptom texts.
var questionDescriptions = map[QuestionID]string{
	Q1:  "Abnormally elevated or euphoric mood",
	Q2:  "Inflated self-esteem or excessive confidence",
	Q3:  "Decreased need for sleep while still feeling energetic",
	Q4:  "More talkative or faster speech than usual",
	Q5:  "Racing thoughts or flight of ideas",
	Q6:  "Easily distracted",
	Q7:  "Unusually energetic and active",
	Q8:  "More social or outgoing than usual",
	Q9:  "Increased interest in sex",
	Q10: "Unusual or impulsive decisions",
	Q11: "Impulsive or unwise spending",
	Q12: "Behavior changes causing problems with work, school or relationships",
	Q13: "Behavior changes noticed by family, friends or clinicians",
}

// indicatorGroups are the bipolar risk indicator clusters. The group mean is
// compared against the scheme's IndicatorThreshold.
var indicatorGroups = map[string][]QuestionID{
	GroupCoreManic:    {Q1, Q2, Q3, Q5},
	GroupBehavioral:   {Q8, Q9, Q10, Q11},
	GroupSocialImpact: {Q12, Q13},
	GroupCognitive:    {Q5, Q6},
}

// BinaryScheme returns the standard yes/no MDQ scoring configuration with a
// 0-13 total range and the classic screening cutoff of 7.
func BinaryScheme() *ScoringScheme {
	weights := make(map[QuestionID]float64, len(AllQuestionIDs))
	for _, q := range AllQuestionIDs {
		weights[q] = 1.0
	}

	return &ScoringScheme{
		Kind: BINARY,
		AnswerScores: map[string]int{
			AnswerNo:        0,
			AnswerYes:       1,
			AnswerRarely:    1,
			AnswerSometimes: 1,
			AnswerOften:     1,
			AnswerAlways:    1,
		},
		MaxQuestionScore:  1,
		MaxTotalScore:     13,
		Weights:           weights,
		MaxWeightedTotal:  13,
		RiskScale:         13,
		NormalizedDivisor: 1,
		Levels:            []SeverityLevel{NEGATIVE, MILD_POSITIVE, MODERATE_POSITIVE, HIGH_POSITIVE},
		Bands: []SeverityBand{
			{Min: 0, Max: 6, Level: NEGATIVE},
			{Min: 7, Max: 8, Level: MILD_POSITIVE},
			{Min: 9, Max: 10, Level: MODERATE_POSITIVE},
			{Min: 11, Max: 13, Level: HIGH_POSITIVE},
		},
		ScreeningCutoff: 7,
		Descriptions:    questionDescriptions,
		Categories: map[string][]QuestionID{
			"mood_elevation":        {Q1},
			"grandiosity":           {Q2},
			"sleep_changes":         {Q3},
			"speech_changes":        {Q4},
			"cognitive_symptoms":    {Q5, Q6},
			"behavioral_activation": {Q7, Q8},
			"risk_behaviors":        {Q9, Q10, Q11},
			"functional_impact":     {Q12, Q13},
		},
		CategoryOrder: []string{
			"mood_elevation", "grandiosity", "sleep_changes", "speech_changes",
			"cognitive_symptoms", "behavioral_activation", "risk_behaviors", "functional_impact",
		},
		CoreSymptoms:       []QuestionID{Q1, Q2, Q3, Q4, Q5, Q6, Q7},
		IndicatorGroups:    indicatorGroups,
		IndicatorThreshold: 2.0,
		PositiveThreshold:  1,
		Trend: TrendCutoffs{
			StableBand:         20,
			Mild:               20,
			Moderate:           30,
			Significant:        50,
			TwoPointStableBand: 15,
			TwoPointStep:       30,
		},
		BaselineWindow: 3,
	}
}

// FiveLevelScheme returns the extended frequency-scored configuration with a
// 0-52 total range, clinical symptom weights and legacy thresholds scaled
// against 39.
func FiveLevelScheme() *ScoringScheme {
	return &ScoringScheme{
		Kind: FIVE_LEVEL,
		AnswerScores: map[string]int{
			AnswerNo:        0,
			AnswerRarely:    1,
			AnswerSometimes: 2,
			AnswerOften:     3,
			AnswerAlways:    4,
		},
		MaxQuestionScore: 4,
		MaxTotalScore:    52,
		Weights: map[QuestionID]float64{
			Q1: 1.2, Q2: 1.1, Q3: 1.5, Q4: 1.0,
			Q5: 1.8, Q6: 1.2, Q7: 1.1, Q8: 1.4,
			Q9: 1.6, Q10: 1.9, Q11: 1.7, Q12: 2.0,
			Q13: 1.8,
		},
		MaxWeightedTotal:  78, // 39 * max weight 2.0
		RiskScale:         39,
		NormalizedDivisor: 5,
		Levels:            []SeverityLevel{NORMAL, MILD_RISK, MODERATE_RISK, HIGH_RISK, SEVERE_RISK},
		Bands: []SeverityBand{
			{Min: 0, Max: 3, Level: NORMAL},
			{Min: 4, Max: 8, Level: MILD_RISK},
			{Min: 9, Max: 15, Level: MODERATE_RISK},
			{Min: 16, Max: 25, Level: HIGH_RISK},
			{Min: 26, Max: 52, Level: SEVERE_RISK},
		},
		ScreeningCutoff: 7,
		Descriptions:    questionDescriptions,
		Categories: map[string][]QuestionID{
			"elevated_mood":           {Q1},
			"inflated_self_esteem":    {Q2},
			"decreased_sleep":         {Q3},
			"increased_talkativeness": {Q4},
			"racing_thoughts":         {Q5},
			"distractibility":         {Q6},
			"increased_activity":      {Q7},
			"social_disinhibition":    {Q8},
			"hypersexuality":          {Q9},
			"poor_judgment":           {Q10},
			"reckless_spending":       {Q11},
			"functional_impairment":   {Q12},
			"others_noticed":          {Q13},
		},
		CategoryOrder: []string{
			"elevated_mood", "inflated_self_esteem", "decreased_sleep",
			"increased_talkativeness", "racing_thoughts", "distractibility",
			"increased_activity", "social_disinhibition", "hypersexuality",
			"poor_judgment", "reckless_spending", "functional_impairment",
			"others_noticed",
		},
		CoreSymptoms:       []QuestionID{Q1, Q2, Q3, Q5},
		IndicatorGroups:    indicatorGroups,
		IndicatorThreshold: 2.0,
		PositiveThreshold:  2,
		Trend: TrendCutoffs{
			StableBand:         15,
			Mild:               15,
			Moderate:           25,
			Significant:        40,
			TwoPointStableBand: 10,
			TwoPointStep:       20,
		},
		BaselineWindow: 5,
	}
}

// SchemeFor returns the scoring scheme for the given kind.
func SchemeFor(kind SchemeKind) (*ScoringScheme, error) {
	switch kind {
	case BINARY:
		return BinaryScheme(), nil
	case FIVE_LEVEL:
		return FiveLevelScheme(), nil
	default:
		return nil, fmt.Errorf("%w: unknown scheme kind %q", ErrInvalidScheme, kind)
	}
}

// Validate checks the internal consistency of the scheme tables. It is the
// only place a configuration error surfaces; downstream scoring never fails.
func (s *ScoringScheme) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: kind %q", ErrInvalidScheme, s.Kind)
	}
	if len(s.AnswerScores) == 0 {
		return fmt.Errorf("%w: empty answer score table", ErrInvalidScheme)
	}
	for label, score := range s.AnswerScores {
		if score < 0 || score > s.MaxQuestionScore {
			return fmt.Errorf("%w: answer %q maps to %d outside [0,%d]", ErrInvalidScheme, label, score, s.MaxQuestionScore)
		}
	}
	if s.MaxTotalScore != s.MaxQuestionScore*len(AllQuestionIDs) {
		return fmt.Errorf("%w: max total %d does not match %d questions at max %d", ErrInvalidScheme, s.MaxTotalScore, len(AllQuestionIDs), s.MaxQuestionScore)
	}
	if len(s.Weights) != len(AllQuestionIDs) {
		return fmt.Errorf("%w: weight table covers %d of %d questions", ErrInvalidScheme, len(s.Weights), len(AllQuestionIDs))
	}
	for q, w := range s.Weights {
		if w <= 0 {
			return fmt.Errorf("%w: non-positive weight %.2f for %s", ErrInvalidScheme, w, q)
		}
	}
	if s.MaxWeightedTotal <= 0 {
		return fmt.Errorf("%w: non-positive max weighted total", ErrInvalidScheme)
	}
	if s.RiskScale <= 0 {
		return fmt.Errorf("%w: non-positive risk scale", ErrInvalidScheme)
	}
	if s.NormalizedDivisor <= 0 {
		return fmt.Errorf("%w: non-positive normalized divisor", ErrInvalidScheme)
	}
	if len(s.Levels) < 2 {
		return fmt.Errorf("%w: need at least two severity levels", ErrInvalidScheme)
	}
	if err := s.validateBands(); err != nil {
		return err
	}
	if len(s.CategoryOrder) != len(s.Categories) {
		return fmt.Errorf("%w: category order lists %d of %d categories", ErrInvalidScheme, len(s.CategoryOrder), len(s.Categories))
	}
	for _, name := range s.CategoryOrder {
		qs, ok := s.Categories[name]
		if !ok {
			return fmt.Errorf("%w: ordered category %q missing from table", ErrInvalidScheme, name)
		}
		if len(qs) == 0 {
			return fmt.Errorf("%w: category %q has no questions", ErrInvalidScheme, name)
		}
	}
	if len(s.CoreSymptoms) == 0 {
		return fmt.Errorf("%w: empty core symptom list", ErrInvalidScheme)
	}
	for name, qs := range s.IndicatorGroups {
		if len(qs) == 0 {
			return fmt.Errorf("%w: indicator group %q has no questions", ErrInvalidScheme, name)
		}
	}
	if s.IndicatorThreshold <= 0 {
		return fmt.Errorf("%w: non-positive indicator threshold", ErrInvalidScheme)
	}
	if s.BaselineWindow <= 0 {
		return fmt.Errorf("%w: non-positive baseline window", ErrInvalidScheme)
	}
	return nil
}

func (s *ScoringScheme) validateBands() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: empty severity band table", ErrInvalidScheme)
	}
	prev := -1
	for _, b := range s.Bands {
		if b.Min != prev+1 {
			return fmt.Errorf("%w: band for %s starts at %d, expected %d", ErrInvalidScheme, b.Level, b.Min, prev+1)
		}
		if b.Max < b.Min {
			return fmt.Errorf("%w: band for %s has max %d below min %d", ErrInvalidScheme, b.Level, b.Max, b.Min)
		}
		if s.LevelIndex(b.Level) < 0 {
			return fmt.Errorf("%w: band level %s not in level list", ErrInvalidScheme, b.Level)
		}
		prev = b.Max
	}
	if prev != s.MaxTotalScore {
		return fmt.Errorf("%w: bands end at %d, expected %d", ErrInvalidScheme, prev, s.MaxTotalScore)
	}
	return nil
}

// LevelIndex returns the ordinal position of the level within the scheme's
// ordered level list, or -1 if the level does not belong to this scheme.
func (s *ScoringScheme) LevelIndex(level SeverityLevel) int {
	for i, l := range s.Levels {
		if l == level {
			return i
		}
	}
	return -1
}

// LeastSevere returns the scheme's lowest severity level.
func (s *ScoringScheme) LeastSevere() SeverityLevel {
	return s.Levels[0]
}

// MostSevere returns the scheme's highest severity level.
func (s *ScoringScheme) MostSevere() SeverityLevel {
	return s.Levels[len(s.Levels)-1]
}

// BandFor returns the base severity level for a total score. Totals outside
// the table are clamped to the nearest band rather than rejected.
func (s *ScoringScheme) BandFor(total int) SeverityLevel {
	if total < 0 {
		total = 0
	}
	for _, b := range s.Bands {
		if total >= b.Min && total <= b.Max {
			return b.Level
		}
	}
	return s.Bands[len(s.Bands)-1].Level
}

// ScoreFor maps an answer label to its score, defaulting unknown labels to 0.
func (s *ScoringScheme) ScoreFor(answer string) int {
	return s.AnswerScores[answer]
}
