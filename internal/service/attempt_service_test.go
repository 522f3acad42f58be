package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/model"
	"clarita-backend/internal/quizgen"
	"clarita-backend/internal/repository"
	"clarita-backend/utilities"
)

func newAttemptServiceForTest(t *testing.T) (AttemptService, *model.Quiz) {
	t.Helper()
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeMCQ, quizgen.TypeFill)}
	quizSvc := newQuizServiceForTest(gen)

	quiz, err := quizSvc.GenerateQuiz(context.Background(), 1, upload.ID, 2, []string{"mcq", "fill"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}

	svc := NewAttemptService(repository.NewAttemptRepository(), quizSvc, utilities.NewEventBus())
	return svc, quiz
}

func submissionFor(quiz *model.Quiz) AttemptSubmission {
	answers := make([]model.AttemptAnswer, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers = append(answers, model.AttemptAnswer{
			QuestionID:    q.PublicID,
			UserAnswer:    json.RawMessage(q.Answer),
			CorrectAnswer: json.RawMessage(q.Answer),
			IsCorrect:     true,
		})
	}
	return AttemptSubmission{
		QuizID:         quiz.ID,
		Score:          len(answers),
		TotalQuestions: len(answers),
		Percentage:     100,
		Answers:        answers,
	}
}

func TestSubmitAttemptStoresVerbatim(t *testing.T) {
	svc, quiz := newAttemptServiceForTest(t)

	sub := submissionFor(quiz)
	sub.Score = 1
	sub.Percentage = 50
	completed := time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC)
	sub.CompletedAt = &completed

	attempt, err := svc.SubmitAttempt(1, sub)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if attempt.ID == 0 {
		t.Error("attempt was not persisted")
	}
	if attempt.Score != 1 || attempt.Percentage != 50 {
		t.Errorf("stored score %d/%v, want client's 1/50", attempt.Score, attempt.Percentage)
	}
	if !attempt.CompletedAt.Equal(completed) {
		t.Errorf("completed at %v, want %v", attempt.CompletedAt, completed)
	}

	stored, err := attempt.AttemptAnswers()
	if err != nil {
		t.Fatalf("decode stored answers: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d answers, want 2", len(stored))
	}
}

func TestSubmitAttemptValidation(t *testing.T) {
	svc, quiz := newAttemptServiceForTest(t)

	var ve *apperrors.ValidationError

	empty := submissionFor(quiz)
	empty.Answers = nil
	if _, err := svc.SubmitAttempt(1, empty); !errors.As(err, &ve) {
		t.Errorf("empty answers: expected validation error, got %v", err)
	}

	zero := submissionFor(quiz)
	zero.TotalQuestions = 0
	if _, err := svc.SubmitAttempt(1, zero); !errors.As(err, &ve) {
		t.Errorf("zero total: expected validation error, got %v", err)
	}
}

func TestSubmitAttemptOwnership(t *testing.T) {
	svc, quiz := newAttemptServiceForTest(t)

	var forbidden *apperrors.AuthorizationError
	if _, err := svc.SubmitAttempt(2, submissionFor(quiz)); !errors.As(err, &forbidden) {
		t.Errorf("other user's submission: expected authorization error, got %v", err)
	}

	sub := submissionFor(quiz)
	sub.QuizID = quiz.ID + 999
	var notFound *apperrors.NotFoundError
	if _, err := svc.SubmitAttempt(1, sub); !errors.As(err, &notFound) {
		t.Errorf("missing quiz: expected not-found error, got %v", err)
	}
}

func TestGetLatestAttempt(t *testing.T) {
	svc, quiz := newAttemptServiceForTest(t)

	var notFound *apperrors.NotFoundError
	if _, err := svc.GetLatestAttempt(1, quiz.ID); !errors.As(err, &notFound) {
		t.Fatalf("no attempts yet: expected not-found error, got %v", err)
	}

	first := submissionFor(quiz)
	earlier := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	first.CompletedAt = &earlier
	first.Score = 1
	if _, err := svc.SubmitAttempt(1, first); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	second := submissionFor(quiz)
	later := earlier.Add(2 * time.Hour)
	second.CompletedAt = &later
	second.Score = 2
	if _, err := svc.SubmitAttempt(1, second); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	latest, err := svc.GetLatestAttempt(1, quiz.ID)
	if err != nil {
		t.Fatalf("GetLatestAttempt: %v", err)
	}
	if latest.Score != 2 {
		t.Errorf("latest attempt score = %d, want the later submission's 2", latest.Score)
	}

	attempts, err := svc.GetAttemptsByQuiz(1, quiz.ID)
	if err != nil {
		t.Fatalf("GetAttemptsByQuiz: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("listed %d attempts, want 2", len(attempts))
	}
}
