package assessment

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// answerAll builds a record with the same answer for every question.
func answerAll(answer string, coOccurrence bool, impact domain.FunctionalImpact) *domain.AnswerRecord {
	answers := make(map[domain.QuestionID]string, len(domain.AllQuestionIDs))
	for _, q := range domain.AllQuestionIDs {
		answers[q] = answer
	}
	return &domain.AnswerRecord{
		ID:           "rec-1",
		SubjectID:    "subject-1",
		RecordedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Answers:      answers,
		CoOccurrence: coOccurrence,
		Impact:       impact,
	}
}

// answerSome marks the listed questions with answer and the rest "no".
func answerSome(answer string, questions []domain.QuestionID, coOccurrence bool, impact domain.FunctionalImpact) *domain.AnswerRecord {
	record := answerAll(domain.AnswerNo, coOccurrence, impact)
	for _, q := range questions {
		record.Answers[q] = answer
	}
	return record
}

// scoreSeries builds score points newest-first from oldest-first totals,
// spacing assessments ten days apart.
func scoreSeries(oldestFirst ...float64) []domain.ScorePoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.ScorePoint, len(oldestFirst))
	for i, score := range oldestFirst {
		points[len(oldestFirst)-1-i] = domain.ScorePoint{
			RecordedAt: start.AddDate(0, 0, i*10),
			Score:      score,
		}
	}
	return points
}
