package repository

import (
	"clarita-backend/internal/db"
	"clarita-backend/internal/model"
)

type UploadRepository interface {
	CreateUpload(upload *model.Upload) error
	GetUploadByID(id uint) (*model.Upload, error)
	GetUploadsByUser(userID uint) ([]model.Upload, error)
}

type uploadRepository struct{}

func NewUploadRepository() UploadRepository {
	return &uploadRepository{}
}

func (r *uploadRepository) CreateUpload(upload *model.Upload) error {
	return db.GetDB().Create(upload).Error
}

func (r *uploadRepository) GetUploadByID(id uint) (*model.Upload, error) {
	var upload model.Upload
	err := db.GetDB().Where("id = ?", id).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *uploadRepository) GetUploadsByUser(userID uint) ([]model.Upload, error) {
	var uploads []model.Upload
	err := db.GetDB().
		Select("id", "user_id", "file_name", "file_size", "page_count", "uploaded_at").
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&uploads).Error
	return uploads, err
}
