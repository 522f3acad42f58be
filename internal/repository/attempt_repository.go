package repository

import (
	"clarita-backend/internal/db"
	"clarita-backend/internal/model"
)

type AttemptRepository interface {
	CreateAttempt(attempt *model.QuizAttempt) error
	GetLatestAttempt(quizID, userID uint) (*model.QuizAttempt, error)
	GetAttemptsByQuiz(quizID, userID uint) ([]model.QuizAttempt, error)
	GetAttemptsByUser(userID uint) ([]model.QuizAttempt, error)
}

type attemptRepository struct{}

func NewAttemptRepository() AttemptRepository {
	return &attemptRepository{}
}

func (r *attemptRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return db.GetDB().Create(attempt).Error
}

func (r *attemptRepository) GetLatestAttempt(quizID, userID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := db.GetDB().
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("completed_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) GetAttemptsByQuiz(quizID, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := db.GetDB().
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) GetAttemptsByUser(userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := db.GetDB().Where("user_id = ?", userID).Find(&attempts).Error
	return attempts, err
}
