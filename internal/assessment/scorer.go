package assessment

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Scorer applies a scoring scheme's answer table to raw questionnaire
// answers. Unknown or missing answer labels score zero; scoring never fails.
type Scorer struct {
	logger *logrus.Logger
}

// NewScorer creates a new answer scorer.
func NewScorer(logger *logrus.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score converts one answer record into a scored answer set under the given
// scheme: per-question scores, raw total, weighted total and the 0-13
// normalized compatibility score.
func (s *Scorer) Score(record *domain.AnswerRecord, scheme *domain.ScoringScheme) *domain.ScoredAnswerSet {
	scores := make(map[domain.QuestionID]int, len(domain.AllQuestionIDs))
	total := 0
	weighted := 0.0

	for _, q := range domain.AllQuestionIDs {
		score := 0
		if record != nil {
			score = scheme.ScoreFor(record.Answers[q])
		}
		scores[q] = score
		total += score
		weighted += float64(score) * scheme.Weights[q]
	}

	normalized := int(math.Round(float64(total) / float64(scheme.NormalizedDivisor)))
	if normalized > 13 {
		normalized = 13
	}

	s.logger.WithFields(logrus.Fields{
		"scheme":           scheme.Kind.String(),
		"total_score":      total,
		"weighted_score":   weighted,
		"normalized_score": normalized,
	}).Debug("Answer set scored")

	return &domain.ScoredAnswerSet{
		Record:          record,
		QuestionScores:  scores,
		TotalScore:      total,
		WeightedScore:   weighted,
		NormalizedScore: normalized,
	}
}
