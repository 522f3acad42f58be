package repository

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"clarita-backend/internal/db"
	"clarita-backend/internal/model"
)

type QuizRepository interface {
	CreateQuiz(quiz *model.Quiz) error
	GetQuizByID(id uint) (*model.Quiz, error)
	GetQuizzesByUser(userID uint) ([]model.Quiz, error)
	CountQuizzesByUser(userID uint) (int64, error)
	UpdateQuizFields(id uint, updates map[string]interface{}) error
	ReplaceQuestions(quizID uint, questions []model.Question, meta datatypes.JSON) error
	DeleteQuiz(id uint) error
	GetFoldersByUser(userID uint) ([]string, error)
}

type quizRepository struct{}

func NewQuizRepository() QuizRepository {
	return &quizRepository{}
}

func (r *quizRepository) CreateQuiz(quiz *model.Quiz) error {
	return db.GetDB().Create(quiz).Error
}

func (r *quizRepository) GetQuizByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := db.GetDB().
		Preload("Questions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) GetQuizzesByUser(userID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := db.GetDB().
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) CountQuizzesByUser(userID uint) (int64, error) {
	var count int64
	err := db.GetDB().Model(&model.Quiz{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *quizRepository) UpdateQuizFields(id uint, updates map[string]interface{}) error {
	return db.GetDB().Model(&model.Quiz{}).Where("id = ?", id).Updates(updates).Error
}

// ReplaceQuestions swaps a quiz's question set and meta wholesale inside
// one transaction. Questions are never merged.
func (r *quizRepository) ReplaceQuestions(quizID uint, questions []model.Question, meta datatypes.JSON) error {
	return db.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quizID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Quiz{}).
			Where("id = ?", quizID).
			Updates(map[string]interface{}{"meta": meta, "updated_at": time.Now()}).Error
	})
}

// DeleteQuiz removes the quiz together with its questions and attempts.
func (r *quizRepository) DeleteQuiz(id uint) error {
	return db.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Quiz{}).Error
	})
}

func (r *quizRepository) GetFoldersByUser(userID uint) ([]string, error) {
	var folders []string
	err := db.GetDB().Model(&model.Quiz{}).
		Distinct("folder").
		Where("user_id = ? AND folder <> ''", userID).
		Order("folder ASC").
		Pluck("folder", &folders).Error
	return folders, err
}
