package assessment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// TrendAnalyzer evaluates a subject's score trajectory: improvement trend
// bucketing, descriptive statistics, recovery analysis and treatment
// response indicators. Input histories are newest-first, as storage returns
// them; the analyzer reverses internally where chronological order matters.
type TrendAnalyzer struct {
	logger *logrus.Logger
}

// NewTrendAnalyzer creates a new trend analyzer.
func NewTrendAnalyzer(logger *logrus.Logger) *TrendAnalyzer {
	return &TrendAnalyzer{logger: logger}
}

// Analyze buckets the trajectory into the improvement trend enum. Change
// percentage is (oldest - newest) / max(newest, 1) * 100, so positive means
// improvement (lower questionnaire scores are better). Fewer than two points
// and degenerate regressions yield (STABLE, 0.5).
func (t *TrendAnalyzer) Analyze(points []domain.ScorePoint, scheme *domain.ScoringScheme) domain.TrendSummary {
	chrono := reverseChronological(points)
	n := len(chrono)

	summary := domain.TrendSummary{
		Trend:      domain.STABLE,
		Confidence: 0.5,
		DataPoints: n,
	}
	if n == 0 {
		return summary
	}

	scores := make([]float64, n)
	for i, p := range chrono {
		scores[i] = p.Score
	}

	window := scheme.BaselineWindow
	if half := n / 2; half < window {
		window = half
	}
	baseline := scores[0]
	if window > 0 {
		baseline = mean(scores[:window])
	}
	summary.Baseline = round2(baseline)

	summary.Timeline = make([]domain.TrendPoint, n)
	for i, p := range chrono {
		cumulative := 0.0
		if i > 0 {
			cumulative = p.Score - scores[0]
		}
		summary.Timeline[i] = domain.TrendPoint{
			RecordedAt:        p.RecordedAt,
			Score:             p.Score,
			BaselineDeviation: round2(p.Score - baseline),
			CumulativeChange:  round2(cumulative),
		}
	}

	if n < 2 {
		return summary
	}

	oldest, newest := scores[0], scores[n-1]
	changePct := (oldest - newest) / math.Max(newest, 1) * 100
	summary.ChangePct = round1(changePct)

	if n == 2 {
		summary.Trend, summary.Confidence = t.twoPointTrend(changePct, scheme.Trend)
		return summary
	}

	slope, _, fitOK := olsFit(scores)
	r, corrOK := pearson(scores)
	if !fitOK || !corrOK {
		// Constant or otherwise degenerate series.
		return summary
	}

	summary.Slope = round3(slope)
	summary.Confidence = round2(math.Min(0.95, math.Abs(r)+0.1))
	summary.Trend = bucketTrend(changePct, scheme.Trend)

	t.logger.WithFields(logrus.Fields{
		"scheme":      scheme.Kind.String(),
		"data_points": n,
		"trend":       summary.Trend.String(),
		"confidence":  summary.Confidence,
		"change_pct":  summary.ChangePct,
	}).Debug("Trend analyzed")

	return summary
}

func (t *TrendAnalyzer) twoPointTrend(changePct float64, cutoffs domain.TrendCutoffs) (domain.ImprovementTrend, float64) {
	switch {
	case math.Abs(changePct) <= cutoffs.TwoPointStableBand:
		return domain.STABLE, 0.6
	case changePct >= cutoffs.TwoPointStep:
		return domain.MILD_IMPROVEMENT, 0.7
	case changePct <= -cutoffs.TwoPointStep:
		return domain.MILD_DETERIORATION, 0.7
	case changePct > 0:
		return domain.MILD_IMPROVEMENT, 0.6
	default:
		return domain.MILD_DETERIORATION, 0.6
	}
}

func bucketTrend(changePct float64, cutoffs domain.TrendCutoffs) domain.ImprovementTrend {
	switch {
	case math.Abs(changePct) < cutoffs.StableBand:
		return domain.STABLE
	case changePct >= cutoffs.Significant:
		return domain.SIGNIFICANT_IMPROVEMENT
	case changePct >= cutoffs.Moderate:
		return domain.MODERATE_IMPROVEMENT
	case changePct >= cutoffs.Mild:
		return domain.MILD_IMPROVEMENT
	case changePct <= -cutoffs.Significant:
		return domain.SIGNIFICANT_DETERIORATION
	case changePct <= -cutoffs.Moderate:
		return domain.MODERATE_DETERIORATION
	default:
		return domain.MILD_DETERIORATION
	}
}

// Statistics computes descriptive statistics over the full score history.
// Returns nil for an empty history. Volatility and stability metrics need at
// least three points and are zero below that.
func (t *TrendAnalyzer) Statistics(points []domain.ScorePoint) *domain.ScoreStatistics {
	if len(points) == 0 {
		return nil
	}

	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.Score
	}

	lo, hi := minMax(scores)
	stats := &domain.ScoreStatistics{
		Mean:   round2(mean(scores)),
		Median: round2(median(scores)),
		StdDev: round2(stdDev(scores)),
		Min:    lo,
		Max:    hi,
		Range:  hi - lo,
		P25:    round2(percentile(scores, 25)),
		P75:    round2(percentile(scores, 75)),
	}

	if len(scores) >= 3 {
		stats.Volatility = round3(stdDev(scores) / (mean(scores) + 1))

		diffs := make([]float64, len(scores)-1)
		for i := 0; i < len(scores)-1; i++ {
			diffs[i] = math.Abs(scores[i] - scores[i+1])
		}
		stats.StabilityIndex = round3(1 / (1 + stdDev(diffs)))
		stats.AverageChange = round2(mean(diffs))
		_, stats.MaxChange = minMax(diffs)
	}

	return stats
}

// AnalyzeImprovement measures recovery from the worst historical point and
// the consistency of recent scores, and derives the recovery indicator and
// risk factor text lists. Points are newest-first.
func (t *TrendAnalyzer) AnalyzeImprovement(points []domain.ScorePoint, profile *domain.SymptomProfile, cls domain.Classification, scheme *domain.ScoringScheme) domain.ImprovementAnalysis {
	if len(points) < 2 {
		return domain.ImprovementAnalysis{
			ImprovementPct:     0,
			ConsistencyScore:   0.5,
			RecoveryIndicators: []string{},
			RiskFactors:        []string{"Insufficient data to evaluate improvement"},
		}
	}

	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.Score
	}
	current := scores[0]
	_, peak := minMax(scores)

	improvementPct := 0.0
	if peak > 0 {
		improvementPct = (peak - current) / peak * 100
	}

	consistency := 0.5
	if len(scores) >= 3 {
		recent := scores[:minInt(5, len(scores))]
		cv := 1.0
		if m := mean(recent); m > 0 {
			cv = stdDev(recent) / m
		}
		consistency = clamp(1-cv/2, 0, 1)
	}

	return domain.ImprovementAnalysis{
		ImprovementPct:     round1(improvementPct),
		ConsistencyScore:   round2(consistency),
		RecoveryIndicators: t.recoveryIndicators(current, improvementPct, consistency, profile, scheme),
		RiskFactors:        t.riskFactors(current, improvementPct, consistency, profile, cls, scheme),
	}
}

func (t *TrendAnalyzer) recoveryIndicators(current, improvementPct, consistency float64, profile *domain.SymptomProfile, scheme *domain.ScoringScheme) []string {
	indicators := []string{}

	switch {
	case improvementPct >= 60:
		indicators = append(indicators, "Symptoms markedly improved, down more than 60% from peak")
	case improvementPct >= 40:
		indicators = append(indicators, "Symptoms clearly improved, down more than 40% from peak")
	case improvementPct >= 25:
		indicators = append(indicators, "Symptoms somewhat improved, down more than 25% from peak")
	}

	if scheme.Kind == domain.BINARY {
		switch {
		case current <= 3:
			indicators = append(indicators, "Current score within the normal range")
		case current <= 6:
			indicators = append(indicators, "Current symptoms mild, below the screening cutoff")
		}
	} else {
		switch {
		case current <= 8:
			indicators = append(indicators, "Currently in a normal or low-risk state")
		case current <= 15:
			indicators = append(indicators, "Current symptoms mild and manageable")
		}
	}

	switch {
	case consistency >= 0.8:
		indicators = append(indicators, "Symptom presentation stable with little fluctuation")
	case consistency >= 0.6:
		indicators = append(indicators, "Symptom presentation relatively stable")
	}

	if profile != nil && len(profile.Categories) > 0 {
		low := 0
		for _, c := range profile.Categories {
			if c.SeverityPct < 25 {
				low++
			}
		}
		if float64(low) >= float64(len(profile.Categories))*0.7 {
			indicators = append(indicators, "Most symptom categories at a mild level")
		}
	}

	return indicators
}

func (t *TrendAnalyzer) riskFactors(current, improvementPct, consistency float64, profile *domain.SymptomProfile, cls domain.Classification, scheme *domain.ScoringScheme) []string {
	factors := []string{}

	if improvementPct < -10 {
		factors = append(factors, "Symptoms worse than the most severe historical period")
	}
	if consistency < 0.4 {
		factors = append(factors, "High symptom volatility, insufficient stability")
	}

	if scheme.Kind == domain.BINARY {
		if cls.MDQResult == domain.MDQ_POSITIVE_HIGH || cls.MDQResult == domain.MDQ_POSITIVE_MODERATE {
			factors = append(factors, "Current MDQ screening remains positive")
		}
		if current >= 10 {
			factors = append(factors, "Current MDQ score is high and needs close attention")
		}
		return factors
	}

	if cls.Severity == domain.HIGH_RISK || cls.Severity == domain.SEVERE_RISK {
		factors = append(factors, "Currently remains in a high-risk state")
	}
	if high := highSeverityCategories(profile, 75); len(high) > 0 {
		factors = append(factors, fmt.Sprintf("High-severity symptom categories present: %s", strings.Join(high, ", ")))
	}
	if cls.Impairment == domain.IMPAIRMENT_MODERATE || cls.Impairment == domain.IMPAIRMENT_SEVERE {
		factors = append(factors, "Significant functional impairment present")
	}

	return factors
}

// TreatmentIndicators derives treatment-response indicators from the score
// history. Points are newest-first. Fewer than three assessments yield the
// insufficient-data marker.
func (t *TrendAnalyzer) TreatmentIndicators(points []domain.ScorePoint, scheme *domain.ScoringScheme) domain.TreatmentResponse {
	if len(points) < 3 {
		return domain.TreatmentResponse{InsufficientData: true}
	}

	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.Score
	}
	n := len(scores)
	current := scores[0]

	// Response speed: days from the historical peak to the latest
	// assessment. Unknown when the peak is the oldest record.
	resp := "unknown"
	timeToImprove := 0
	peakIdx := 0
	for i, s := range scores {
		if s > scores[peakIdx] {
			peakIdx = i
		}
	}
	if peakIdx < n-1 {
		timeToImprove = int(points[0].RecordedAt.Sub(points[peakIdx].RecordedAt).Hours() / 24)
		switch {
		case timeToImprove <= 30:
			resp = "rapid"
		case timeToImprove <= 90:
			resp = "moderate"
		default:
			resp = "slow"
		}
	}

	// Maintenance ability: stability of the newest three scores, thresholds
	// scaled to the scheme's score range.
	goodStd, moderateStd := 3.0, 6.0
	if scheme.Kind == domain.BINARY {
		goodStd, moderateStd = 1.0, 2.0
	}
	maintenance := "unknown"
	if n >= 5 {
		recentStd := stdDev(scores[:3])
		switch {
		case recentStd <= goodStd:
			maintenance = "good"
		case recentStd <= moderateStd:
			maintenance = "moderate"
		default:
			maintenance = "poor"
		}
	}

	residual := residualSymptoms(current, scheme)

	effectiveness := "unknown"
	improvementRate := 0.0
	if n >= 4 {
		earlyAvg := mean(scores[n-3:])
		recentAvg := mean(scores[:3])
		if earlyAvg > 0 {
			improvementRate = (earlyAvg - recentAvg) / earlyAvg * 100
		}
		switch {
		case improvementRate >= 40:
			effectiveness = "excellent"
		case improvementRate >= 25:
			effectiveness = "good"
		case improvementRate >= 10:
			effectiveness = "moderate"
		case improvementRate >= -10:
			effectiveness = "stable"
		default:
			effectiveness = "poor"
		}
	}

	return domain.TreatmentResponse{
		ResponseSpeed:      resp,
		MaintenanceAbility: maintenance,
		ResidualSymptoms:   residual,
		Effectiveness:      effectiveness,
		ImprovementRate:    round1(improvementRate),
		TimeToImproveDays:  timeToImprove,
	}
}

func residualSymptoms(current float64, scheme *domain.ScoringScheme) string {
	minimal, mild, moderate := 4.0, 12.0, 20.0
	if scheme.Kind == domain.BINARY {
		minimal, mild, moderate = 2.0, 5.0, 8.0
	}
	switch {
	case current <= minimal:
		return "minimal"
	case current <= mild:
		return "mild"
	case current <= moderate:
		return "moderate"
	default:
		return "significant"
	}
}

// highSeverityCategories returns category names at or above the percentage
// cutoff, sorted for deterministic output.
func highSeverityCategories(profile *domain.SymptomProfile, cutoff float64) []string {
	if profile == nil {
		return nil
	}
	var names []string
	for name, c := range profile.Categories {
		if c.SeverityPct >= cutoff {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// reverseChronological returns the points oldest-first.
func reverseChronological(points []domain.ScorePoint) []domain.ScorePoint {
	out := make([]domain.ScorePoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
