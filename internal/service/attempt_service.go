package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/model"
	"clarita-backend/internal/quizgen"
	"clarita-backend/internal/repository"
	logger "clarita-backend/pkg/logging"
	"clarita-backend/utilities"
)

// AttemptSubmission is a completed submission as sent by the client. The
// score is computed client-side from the quiz's answer key and stored
// verbatim.
type AttemptSubmission struct {
	QuizID         uint                  `json:"quizId" binding:"required"`
	Score          int                   `json:"score"`
	TotalQuestions int                   `json:"totalQuestions" binding:"required"`
	Percentage     float64               `json:"percentage"`
	Answers        []model.AttemptAnswer `json:"answers" binding:"required"`
	CompletedAt    *time.Time            `json:"completedAt"`
}

type AttemptService interface {
	SubmitAttempt(userID uint, sub AttemptSubmission) (*model.QuizAttempt, error)
	GetLatestAttempt(userID, quizID uint) (*model.QuizAttempt, error)
	GetAttemptsByQuiz(userID, quizID uint) ([]model.QuizAttempt, error)
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
	quizSvc     QuizService
	bus         *utilities.EventBus
}

func NewAttemptService(attemptRepo repository.AttemptRepository, quizSvc QuizService, bus *utilities.EventBus) AttemptService {
	return &attemptService{attemptRepo: attemptRepo, quizSvc: quizSvc, bus: bus}
}

// SubmitAttempt persists the submission as sent. The server still grades
// it against the stored answer key and logs any disagreement, but never
// rejects or rewrites the client's result.
func (s *attemptService) SubmitAttempt(userID uint, sub AttemptSubmission) (*model.QuizAttempt, error) {
	quiz, err := s.quizSvc.GetOwnedQuiz(userID, sub.QuizID)
	if err != nil {
		return nil, err
	}
	if len(sub.Answers) == 0 {
		return nil, apperrors.Validation("attempt has no answers")
	}
	if sub.TotalQuestions <= 0 {
		return nil, apperrors.Validation("totalQuestions must be positive")
	}

	s.auditAgainstKey(quiz, sub.Answers)

	completedAt := time.Now()
	if sub.CompletedAt != nil {
		completedAt = *sub.CompletedAt
	}

	attempt := &model.QuizAttempt{
		QuizID:         sub.QuizID,
		UserID:         userID,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Percentage:     sub.Percentage,
		Answers:        model.MustJSON(sub.Answers),
		CompletedAt:    completedAt,
	}
	if err := s.attemptRepo.CreateAttempt(attempt); err != nil {
		return nil, apperrors.Persistence("create attempt", err)
	}

	s.bus.Publish(utilities.EventAttemptSubmitted, attempt.ID)
	return attempt, nil
}

// auditAgainstKey re-grades each submitted answer with the stored key
// (fill answers compare case- and trim-insensitively) and logs
// discrepancies with the client's verdict.
func (s *attemptService) auditAgainstKey(quiz *model.Quiz, answers []model.AttemptAnswer) {
	key, err := s.quizSvc.AnswerKey(quiz)
	if err != nil {
		logger.Warn("quiz %d answer key unreadable, skipping attempt audit: %v", quiz.ID, err)
		return
	}
	for _, a := range answers {
		correct, ok := key[a.QuestionID]
		if !ok {
			logger.Warn("attempt on quiz %d references unknown question %s", quiz.ID, a.QuestionID)
			continue
		}
		var submitted quizgen.Answer
		if err := json.Unmarshal(a.UserAnswer, &submitted); err != nil {
			continue
		}
		if graded := correct.Grade(submitted); graded != a.IsCorrect {
			logger.Warn("quiz %d question %s: client graded isCorrect=%t, server graded %t",
				quiz.ID, a.QuestionID, a.IsCorrect, graded)
		}
	}
}

func (s *attemptService) GetLatestAttempt(userID, quizID uint) (*model.QuizAttempt, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(userID, quizID); err != nil {
		return nil, err
	}
	attempt, err := s.attemptRepo.GetLatestAttempt(quizID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("attempt")
		}
		return nil, apperrors.Persistence("load attempt", err)
	}
	return attempt, nil
}

func (s *attemptService) GetAttemptsByQuiz(userID, quizID uint) ([]model.QuizAttempt, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(userID, quizID); err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.GetAttemptsByQuiz(quizID, userID)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}
	return attempts, nil
}
